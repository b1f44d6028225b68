package planner

import (
	"fmt"

	"github.com/gridsignal/loraplan/internal/geo"
	"github.com/gridsignal/loraplan/internal/model"
)

// Graph is the feasibility adjacency derived from distance thresholds and
// manual overrides. Neighbor lists keep insertion order; the tree builder
// depends on that order for deterministic expansion. Edges are always
// inserted in both directions.
type Graph struct {
	adj map[string][]string
}

// NewGraph returns an empty feasibility graph.
func NewGraph() *Graph {
	return &Graph{adj: make(map[string][]string)}
}

// Neighbors returns the recorded neighbor list for an identity.
func (g *Graph) Neighbors(id string) []string {
	return g.adj[id]
}

// HasEdge reports whether an undirected edge exists between a and b.
func (g *Graph) HasEdge(a, b string) bool {
	for _, n := range g.adj[a] {
		if n == b {
			return true
		}
	}
	return false
}

func (g *Graph) addEdge(a, b string) {
	g.adj[a] = append(g.adj[a], b)
	g.adj[b] = append(g.adj[b], a)
}

// BuildGraph derives the feasibility graph from a state snapshot.
//
// A gateway link exists iff the node is flagged for direct attachment,
// lies within GatewayThresholdKm (inclusive), and the pair is not
// overridden. A node-to-node link exists iff the distance is strictly
// below NodeThresholdKm and the pair is not overridden. Every rejected
// pair yields one diagnostic; construction itself never fails.
func BuildGraph(state *model.NetworkState, cfg Config) (*Graph, []model.LinkDiagnostic) {
	g := NewGraph()
	var diags []model.LinkDiagnostic

	if state.Gateway != nil {
		for _, n := range state.Nodes {
			d := geo.Distance(state.Gateway.Coordinate, n.Coordinate)
			switch {
			case state.Overrides != nil && state.Overrides.Contains(model.GatewayID, n.Name):
				diags = append(diags, model.LinkDiagnostic{
					From: model.GatewayID, To: n.Name,
					Reason: model.LinkReasonFailedOverride, DistanceKm: d,
				})
			case !n.DirectToGateway:
				diags = append(diags, model.LinkDiagnostic{
					From: model.GatewayID, To: n.Name,
					Reason: model.LinkReasonNoDirectGateway, DistanceKm: d,
				})
			case d > cfg.GatewayThresholdKm:
				diags = append(diags, model.LinkDiagnostic{
					From: model.GatewayID, To: n.Name,
					Reason: model.LinkReasonDistanceExceeded, DistanceKm: d,
				})
			default:
				g.addEdge(model.GatewayID, n.Name)
			}
		}
	}

	for i := 0; i < len(state.Nodes); i++ {
		for j := i + 1; j < len(state.Nodes); j++ {
			a, b := state.Nodes[i], state.Nodes[j]
			d := geo.Distance(a.Coordinate, b.Coordinate)
			switch {
			case state.Overrides != nil && state.Overrides.Contains(a.Name, b.Name):
				diags = append(diags, model.LinkDiagnostic{
					From: a.Name, To: b.Name,
					Reason: model.LinkReasonFailedOverride, DistanceKm: d,
				})
			case d >= cfg.NodeThresholdKm:
				diags = append(diags, model.LinkDiagnostic{
					From: a.Name, To: b.Name,
					Reason: model.LinkReasonDistanceExceeded, DistanceKm: d,
				})
			default:
				g.addEdge(a.Name, b.Name)
			}
		}
	}

	return g, diags
}

// DescribeDiagnostic renders a diagnostic the way the CLI reports it.
func DescribeDiagnostic(d model.LinkDiagnostic) string {
	switch d.Reason {
	case model.LinkReasonFailedOverride:
		return fmt.Sprintf("%s <-> %s: manually marked as failed", d.From, d.To)
	case model.LinkReasonNoDirectGateway:
		return fmt.Sprintf("%s <-> %s: no direct gateway connection allowed", d.From, d.To)
	default:
		return fmt.Sprintf("%s <-> %s: distance too far (%.2f km)", d.From, d.To, d.DistanceKm)
	}
}
