package model

import (
	"time"

	"github.com/gridsignal/loraplan/internal/override"
)

// LinkReason classifies why an evaluated pair was rejected during
// feasibility-graph construction. Diagnostics are report-only; nothing
// downstream branches on them.
type LinkReason string

const (
	LinkReasonFailedOverride   LinkReason = "failed-override"
	LinkReasonNoDirectGateway  LinkReason = "no-direct-gateway-flag"
	LinkReasonDistanceExceeded LinkReason = "distance-exceeded"
)

// LinkDiagnostic records a rejected candidate link and the measured
// distance between its endpoints.
type LinkDiagnostic struct {
	From       string     `json:"from"`
	To         string     `json:"to"`
	Reason     LinkReason `json:"reason"`
	DistanceKm float64    `json:"distance_km"`
}

// Tree is the rooted routing tree produced by the tree builder. Parent
// maps each attached node to its parent (GatewayID for first-hop nodes);
// Children preserves attachment order; Order is the breadth-first
// attachment sequence.
type Tree struct {
	Parent   map[string]string   `json:"parent"`
	Children map[string][]string `json:"children"`
	Order    []string            `json:"order"`
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{
		Parent:   make(map[string]string),
		Children: make(map[string][]string),
	}
}

// Attached reports whether a node was reached by the tree builder.
func (t *Tree) Attached(name string) bool {
	_, ok := t.Parent[name]
	return ok
}

// ChildrenOf returns the ordered children of an identity (GatewayID for
// the root's children).
func (t *Tree) ChildrenOf(id string) []string {
	return t.Children[id]
}

// Attach links child under parent, recording it in all three views.
func (t *Tree) Attach(parent, child string) {
	t.Parent[child] = parent
	t.Children[parent] = append(t.Children[parent], child)
	t.Order = append(t.Order, child)
}

// FrequencyPlan holds the channel assignment for one planning run.
// Uplink and Downlink are keyed by node name; nodes without children have
// no downlink entry. Skipped lists nodes left unserved when the
// exhaustion policy is "skip".
type FrequencyPlan struct {
	GatewayDownlink int            `json:"gateway_downlink"`
	Uplink          map[string]int `json:"uplink"`
	Downlink        map[string]int `json:"downlink"`
	Skipped         []string       `json:"skipped,omitempty"`
}

// FrequencyOutcome summarizes how frequency assignment ended.
type FrequencyOutcome string

const (
	FrequencyOutcomeOK        FrequencyOutcome = "ok"
	FrequencyOutcomeExhausted FrequencyOutcome = "exhausted"
)

// PlanResult is the output of one full planning run: the input snapshot it
// was computed from plus every derived structure.
type PlanResult struct {
	ID               string           `json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	Gateway          Gateway          `json:"gateway"`
	Nodes            []Node           `json:"nodes"`
	Overrides        []override.Pair  `json:"overrides,omitempty"`
	Tree             *Tree            `json:"tree"`
	Unreachable      []string         `json:"unreachable"`
	ReachableCount   int              `json:"reachable_count"`
	Frequencies      FrequencyPlan    `json:"frequencies"`
	FrequencyOutcome FrequencyOutcome `json:"frequency_outcome"`
	Diagnostics      []LinkDiagnostic `json:"diagnostics,omitempty"`
}
