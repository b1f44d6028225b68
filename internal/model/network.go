package model

import (
	"github.com/gridsignal/loraplan/internal/override"
)

// GatewayID is the well-known identity of the single root concentrator.
// It is a valid endpoint for failed-connection pairs and appears as the
// root of every planned tree.
const GatewayID = "gateway"

// Coordinate is a geographic position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Gateway is the network's root concentrator. A planning run has exactly
// one; its downlink frequency comes from the 3-bit gateway range and is
// assigned by the frequency stage, not drawn from the shared pool.
type Gateway struct {
	Coordinate Coordinate `json:"coordinate" yaml:"coordinate"`
}

// Node is a candidate relay or leaf radio site. Tree position and
// frequencies are derived per planning run and live in PlanResult, never
// on the node record itself.
type Node struct {
	Name            string     `json:"name" yaml:"name"`
	Coordinate      Coordinate `json:"coordinate" yaml:"coordinate"`
	DirectToGateway bool       `json:"direct_to_gateway" yaml:"direct_to_gateway"`
}

// NetworkState is the full planner input snapshot: gateway position, the
// candidate node set in insertion order, and the manually failed pairs.
// Planning stages treat it as read-only.
type NetworkState struct {
	Gateway   *Gateway
	Nodes     []Node
	Overrides *override.Set
}

// NewNetworkState returns an empty state with an initialized override set.
func NewNetworkState() *NetworkState {
	return &NetworkState{Overrides: override.NewSet()}
}

// UpsertNode adds a node or, when the name already exists, overwrites its
// position and eligibility in place. Insertion order is preserved across
// re-adds so repeated planning runs stay deterministic.
func (s *NetworkState) UpsertNode(n Node) {
	for i := range s.Nodes {
		if s.Nodes[i].Name == n.Name {
			s.Nodes[i] = n
			return
		}
	}
	s.Nodes = append(s.Nodes, n)
}

// RemoveNode deletes a node by name and reports whether it existed.
func (s *NetworkState) RemoveNode(name string) bool {
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			s.Nodes = append(s.Nodes[:i], s.Nodes[i+1:]...)
			return true
		}
	}
	return false
}

// Node returns the node with the given name, or nil.
func (s *NetworkState) Node(name string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			return &s.Nodes[i]
		}
	}
	return nil
}

// KnowsEndpoint reports whether an identity is a valid failed-pair
// endpoint: the gateway id or an existing node name.
func (s *NetworkState) KnowsEndpoint(id string) bool {
	if id == GatewayID {
		return true
	}
	return s.Node(id) != nil
}
