package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsignal/loraplan/internal/geo"
	"github.com/gridsignal/loraplan/internal/model"
)

// testState builds a state with a Manhattan gateway and the given nodes.
func testState(nodes ...model.Node) *model.NetworkState {
	s := model.NewNetworkState()
	s.Gateway = &model.Gateway{Coordinate: model.Coordinate{Lat: 40.7128, Lon: -74.0060}}
	for _, n := range nodes {
		s.UpsertNode(n)
	}
	return s
}

func TestBuildGraph_GatewayEdge(t *testing.T) {
	state := testState(
		model.Node{Name: "NodeA", Coordinate: model.Coordinate{Lat: 40.7129, Lon: -74.0061}, DirectToGateway: true},
		model.Node{Name: "NodeB", Coordinate: model.Coordinate{Lat: 40.9, Lon: -74.9}, DirectToGateway: false},
	)

	g, diags := BuildGraph(state, DefaultConfig())

	assert.True(t, g.HasEdge(model.GatewayID, "NodeA"))
	assert.True(t, g.HasEdge("NodeA", model.GatewayID), "edges must be symmetric")
	assert.False(t, g.HasEdge(model.GatewayID, "NodeB"))

	require.NotEmpty(t, diags)
	var found bool
	for _, d := range diags {
		if d.From == model.GatewayID && d.To == "NodeB" {
			found = true
			assert.Equal(t, model.LinkReasonNoDirectGateway, d.Reason)
		}
	}
	assert.True(t, found, "rejected gateway pair must be diagnosed")
}

func TestBuildGraph_ThresholdAsymmetry(t *testing.T) {
	// Two sites one degree of latitude apart; the exact distance becomes
	// both thresholds. The gateway rule is inclusive, the node-to-node
	// rule is strict, so only the gateway edge survives.
	gw := model.Coordinate{Lat: 40.7128, Lon: -74.0060}
	at := model.Coordinate{Lat: 41.7128, Lon: -74.0060}
	exact := geo.Distance(gw, at)

	state := testState(
		model.Node{Name: "far", Coordinate: at, DirectToGateway: true},
		model.Node{Name: "peer", Coordinate: gw}, // co-located with gateway
	)
	cfg := DefaultConfig()
	cfg.GatewayThresholdKm = exact
	cfg.NodeThresholdKm = exact

	g, diags := BuildGraph(state, cfg)

	assert.True(t, g.HasEdge(model.GatewayID, "far"), "gateway threshold is inclusive")
	assert.False(t, g.HasEdge("far", "peer"), "node threshold is strict")

	var nodeDiag *model.LinkDiagnostic
	for i, d := range diags {
		if d.From == "far" && d.To == "peer" || d.From == "peer" && d.To == "far" {
			nodeDiag = &diags[i]
		}
	}
	require.NotNil(t, nodeDiag)
	assert.Equal(t, model.LinkReasonDistanceExceeded, nodeDiag.Reason)
	assert.InDelta(t, exact, nodeDiag.DistanceKm, 1e-9)
}

func TestBuildGraph_OverrideBlocksEdge(t *testing.T) {
	state := testState(
		model.Node{Name: "NodeA", Coordinate: model.Coordinate{Lat: 40.7129, Lon: -74.0061}, DirectToGateway: true},
	)
	state.Overrides.Add("NodeA", model.GatewayID)

	g, diags := BuildGraph(state, DefaultConfig())

	assert.False(t, g.HasEdge(model.GatewayID, "NodeA"))
	require.Len(t, diags, 1)
	assert.Equal(t, model.LinkReasonFailedOverride, diags[0].Reason)
}

func TestBuildGraph_NodeToNodeSymmetry(t *testing.T) {
	state := testState(
		model.Node{Name: "n1", Coordinate: model.Coordinate{Lat: 40.7129, Lon: -74.0061}},
		model.Node{Name: "n2", Coordinate: model.Coordinate{Lat: 40.7130, Lon: -74.0062}},
		model.Node{Name: "n3", Coordinate: model.Coordinate{Lat: 45.0, Lon: -70.0}},
	)

	g, _ := BuildGraph(state, DefaultConfig())

	assert.True(t, g.HasEdge("n1", "n2"))
	assert.True(t, g.HasEdge("n2", "n1"))
	assert.False(t, g.HasEdge("n1", "n3"))
	for _, id := range []string{"n1", "n2", "n3"} {
		for _, nb := range g.Neighbors(id) {
			assert.True(t, g.HasEdge(nb, id), "graph must be symmetric")
		}
	}
}

func TestBuildGraph_EmptyNodeSet(t *testing.T) {
	state := testState()
	g, diags := BuildGraph(state, DefaultConfig())
	assert.Empty(t, g.Neighbors(model.GatewayID))
	assert.Empty(t, diags)
}

func TestBuildGraph_NoGatewayStillLinksNodes(t *testing.T) {
	state := testState(
		model.Node{Name: "n1", Coordinate: model.Coordinate{Lat: 40.7129, Lon: -74.0061}},
		model.Node{Name: "n2", Coordinate: model.Coordinate{Lat: 40.7130, Lon: -74.0062}},
	)
	state.Gateway = nil

	g, _ := BuildGraph(state, DefaultConfig())
	assert.True(t, g.HasEdge("n1", "n2"))
	assert.Empty(t, g.Neighbors(model.GatewayID))
}

func TestDescribeDiagnostic(t *testing.T) {
	d := model.LinkDiagnostic{From: "gateway", To: "n1", Reason: model.LinkReasonDistanceExceeded, DistanceKm: 25.1234}
	assert.Equal(t, "gateway <-> n1: distance too far (25.12 km)", DescribeDiagnostic(d))

	d.Reason = model.LinkReasonFailedOverride
	assert.Equal(t, "gateway <-> n1: manually marked as failed", DescribeDiagnostic(d))

	d.Reason = model.LinkReasonNoDirectGateway
	assert.Equal(t, "gateway <-> n1: no direct gateway connection allowed", DescribeDiagnostic(d))
}
