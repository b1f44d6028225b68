package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsignal/loraplan/internal/model"
)

// chainState builds gateway -> N1 -> ... -> Nn where each node is within
// range of its predecessor only (≈4.45 km hops along a meridian).
func chainState(n int) *model.NetworkState {
	s := model.NewNetworkState()
	s.Gateway = &model.Gateway{Coordinate: model.Coordinate{Lat: 40.7128, Lon: -74.0060}}
	for i := 1; i <= n; i++ {
		s.UpsertNode(model.Node{
			Name:            fmt.Sprintf("N%d", i),
			Coordinate:      model.Coordinate{Lat: 40.7128 + 0.04*float64(i), Lon: -74.0060},
			DirectToGateway: i == 1,
		})
	}
	return s
}

func TestBuildTree_DirectAttachment(t *testing.T) {
	state := testState(
		model.Node{Name: "NodeA", Coordinate: model.Coordinate{Lat: 40.7129, Lon: -74.0061}, DirectToGateway: true},
		model.Node{Name: "NodeB", Coordinate: model.Coordinate{Lat: 40.9, Lon: -74.9}, DirectToGateway: false},
	)
	cfg := DefaultConfig()
	g, _ := BuildGraph(state, cfg)

	tree, unreachable := BuildTree(state, g, cfg)

	assert.Equal(t, model.GatewayID, tree.Parent["NodeA"])
	assert.Equal(t, []string{"NodeA"}, tree.ChildrenOf(model.GatewayID))
	assert.Equal(t, 1, len(tree.Order))
	assert.Equal(t, []string{"NodeB"}, unreachable)
}

func TestBuildTree_OverrideMakesNodeUnreachable(t *testing.T) {
	state := testState(
		model.Node{Name: "NodeA", Coordinate: model.Coordinate{Lat: 40.7129, Lon: -74.0061}, DirectToGateway: true},
	)
	state.Overrides.Add(model.GatewayID, "NodeA")
	cfg := DefaultConfig()
	g, _ := BuildGraph(state, cfg)

	tree, unreachable := BuildTree(state, g, cfg)

	assert.Empty(t, tree.Order)
	assert.Equal(t, []string{"NodeA"}, unreachable)
}

func TestBuildTree_ChainIsLinear(t *testing.T) {
	state := chainState(5)
	cfg := DefaultConfig()
	g, _ := BuildGraph(state, cfg)

	tree, unreachable := BuildTree(state, g, cfg)

	assert.Empty(t, unreachable)
	assert.Equal(t, 5, len(tree.Order))
	assert.Equal(t, model.GatewayID, tree.Parent["N1"])
	for i := 2; i <= 5; i++ {
		assert.Equal(t, fmt.Sprintf("N%d", i-1), tree.Parent[fmt.Sprintf("N%d", i)])
	}
	assert.Empty(t, tree.ChildrenOf("N5"))
}

func TestBuildTree_FanOutCap(t *testing.T) {
	// Six nodes clustered within range of the gateway and of each other;
	// node cap of 4 applies to relays, the gateway capped at 2 forces the
	// remaining nodes through the first-attached children.
	s := model.NewNetworkState()
	s.Gateway = &model.Gateway{Coordinate: model.Coordinate{Lat: 40.7128, Lon: -74.0060}}
	for i := 1; i <= 6; i++ {
		s.UpsertNode(model.Node{
			Name:            fmt.Sprintf("N%d", i),
			Coordinate:      model.Coordinate{Lat: 40.7128 + 0.001*float64(i), Lon: -74.0060},
			DirectToGateway: true,
		})
	}
	cfg := DefaultConfig()
	cfg.GatewayMaxChildren = 2

	g, _ := BuildGraph(s, cfg)
	tree, unreachable := BuildTree(s, g, cfg)

	assert.Empty(t, unreachable)
	assert.Len(t, tree.ChildrenOf(model.GatewayID), 2)
	for id, children := range tree.Children {
		if id == model.GatewayID {
			continue
		}
		assert.LessOrEqual(t, len(children), cfg.MaxChildren, "node %s exceeds fan-out cap", id)
	}
}

func TestBuildTree_UncappedGatewayTakesAll(t *testing.T) {
	s := model.NewNetworkState()
	s.Gateway = &model.Gateway{Coordinate: model.Coordinate{Lat: 40.7128, Lon: -74.0060}}
	for i := 1; i <= 6; i++ {
		s.UpsertNode(model.Node{
			Name:            fmt.Sprintf("N%d", i),
			Coordinate:      model.Coordinate{Lat: 40.7128 + 0.001*float64(i), Lon: -74.0060},
			DirectToGateway: true,
		})
	}
	cfg := DefaultConfig() // GatewayMaxChildren: 0 (unlimited)

	g, _ := BuildGraph(s, cfg)
	tree, _ := BuildTree(s, g, cfg)

	assert.Len(t, tree.ChildrenOf(model.GatewayID), 6)
}

func TestBuildTree_Acyclic(t *testing.T) {
	state := chainState(5)
	cfg := DefaultConfig()
	g, _ := BuildGraph(state, cfg)
	tree, _ := BuildTree(state, g, cfg)

	for _, name := range tree.Order {
		require.NotEqual(t, name, tree.Parent[name], "node cannot parent itself")
		seen := map[string]bool{name: true}
		cur := tree.Parent[name]
		for cur != model.GatewayID {
			require.False(t, seen[cur], "cycle through %s", cur)
			seen[cur] = true
			cur = tree.Parent[cur]
		}
	}
}

func TestBuildTree_EmptyGraphAllUnreachable(t *testing.T) {
	state := testState(
		model.Node{Name: "n1", Coordinate: model.Coordinate{Lat: 50, Lon: 50}},
		model.Node{Name: "n2", Coordinate: model.Coordinate{Lat: 60, Lon: 60}},
	)
	cfg := DefaultConfig()
	g, _ := BuildGraph(state, cfg)

	tree, unreachable := BuildTree(state, g, cfg)

	assert.Empty(t, tree.Order)
	assert.ElementsMatch(t, []string{"n1", "n2"}, unreachable)
}
