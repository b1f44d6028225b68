package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkState_UpsertPreservesOrder(t *testing.T) {
	s := NewNetworkState()
	s.UpsertNode(Node{Name: "a", Coordinate: Coordinate{Lat: 1}})
	s.UpsertNode(Node{Name: "b", Coordinate: Coordinate{Lat: 2}})
	s.UpsertNode(Node{Name: "a", Coordinate: Coordinate{Lat: 9}, DirectToGateway: true})

	require.Len(t, s.Nodes, 2)
	assert.Equal(t, "a", s.Nodes[0].Name)
	assert.Equal(t, 9.0, s.Nodes[0].Coordinate.Lat)
	assert.True(t, s.Nodes[0].DirectToGateway)
	assert.Equal(t, "b", s.Nodes[1].Name)
}

func TestNetworkState_RemoveNode(t *testing.T) {
	s := NewNetworkState()
	s.UpsertNode(Node{Name: "a"})
	s.UpsertNode(Node{Name: "b"})

	assert.True(t, s.RemoveNode("a"))
	assert.False(t, s.RemoveNode("a"))
	require.Len(t, s.Nodes, 1)
	assert.Equal(t, "b", s.Nodes[0].Name)
}

func TestNetworkState_KnowsEndpoint(t *testing.T) {
	s := NewNetworkState()
	s.UpsertNode(Node{Name: "a"})

	assert.True(t, s.KnowsEndpoint(GatewayID))
	assert.True(t, s.KnowsEndpoint("a"))
	assert.False(t, s.KnowsEndpoint("ghost"))
}

func TestTree_Attach(t *testing.T) {
	tr := NewTree()
	tr.Attach(GatewayID, "a")
	tr.Attach("a", "b")

	assert.True(t, tr.Attached("a"))
	assert.False(t, tr.Attached(GatewayID))
	assert.Equal(t, []string{"a"}, tr.ChildrenOf(GatewayID))
	assert.Equal(t, "a", tr.Parent["b"])
	assert.Equal(t, []string{"a", "b"}, tr.Order)
}
