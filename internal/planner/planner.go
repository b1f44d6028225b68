// Package planner implements the three-stage radio network planning
// pipeline: feasibility-graph construction from pairwise great-circle
// distances and manual exclusions, capacity-constrained breadth-first
// tree construction rooted at the gateway, and frequency assignment along
// the resulting tree.
//
// Every stage is a pure function over a NetworkState snapshot plus a
// Config; node records are never mutated and no reset step exists. A full
// run is a stateless recomputation, so callers that share a state across
// goroutines only need to serialize whole runs, not individual stages.
package planner

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/geo"
	"github.com/gridsignal/loraplan/internal/model"
)

// PlanNetwork runs the full pipeline over a state snapshot and returns
// the planned network.
//
// Unreachable nodes are a normal outcome, reported in the result.
// ErrNoGateway is returned when no gateway position is set. Pool
// exhaustion under the fail policy returns *FrequencyExhaustedError along
// with the partial result for reporting.
func PlanNetwork(state *model.NetworkState, cfg Config) (*model.PlanResult, error) {
	if state == nil || state.Gateway == nil {
		return nil, eris.Wrap(ErrNoGateway, "plan network")
	}

	log := zap.L().With(zap.Int("nodes", len(state.Nodes)))

	graph, diags := BuildGraph(state, cfg)
	tree, unreachable := BuildTree(state, graph, cfg)

	result := &model.PlanResult{
		ID:             uuid.New().String(),
		CreatedAt:      time.Now().UTC(),
		Gateway:        *state.Gateway,
		Nodes:          append([]model.Node(nil), state.Nodes...),
		Tree:           tree,
		Unreachable:    unreachable,
		ReachableCount: len(tree.Order),
		Diagnostics:    diags,
	}
	if state.Overrides != nil {
		result.Overrides = state.Overrides.Pairs()
	}

	if len(unreachable) > 0 {
		log.Warn("planner: nodes unreachable",
			zap.Int("unreachable", len(unreachable)),
			zap.Strings("names", unreachable),
		)
	}

	freqs, err := AssignFrequencies(tree, cfg)
	result.Frequencies = freqs
	if err != nil {
		result.FrequencyOutcome = model.FrequencyOutcomeExhausted
		log.Error("planner: frequency assignment failed", zap.Error(err))
		return result, eris.Wrap(err, "plan network")
	}
	result.FrequencyOutcome = model.FrequencyOutcomeOK
	if len(freqs.Skipped) > 0 {
		result.FrequencyOutcome = model.FrequencyOutcomeExhausted
	}

	log.Info("planner: plan complete",
		zap.Int("reachable", result.ReachableCount),
		zap.Int("unreachable", len(unreachable)),
		zap.Int("downlinks", len(freqs.Downlink)),
	)
	return result, nil
}

// EvaluateNodeEligibility pre-classifies a prospective node position: true
// when the gateway or any existing node lies within the applicable
// threshold and the corresponding pair is not overridden. Ingestion
// surfaces use this to default the direct-to-gateway flag before insert;
// name may be empty for a node that has no identity yet.
func EvaluateNodeEligibility(name string, coord model.Coordinate, state *model.NetworkState, cfg Config) bool {
	if state == nil {
		return false
	}
	overridden := func(a, b string) bool {
		return name != "" && state.Overrides != nil && state.Overrides.Contains(a, b)
	}

	if state.Gateway != nil &&
		geo.Distance(coord, state.Gateway.Coordinate) <= cfg.GatewayThresholdKm &&
		!overridden(model.GatewayID, name) {
		return true
	}
	for _, n := range state.Nodes {
		if n.Name == name {
			continue
		}
		if geo.Distance(coord, n.Coordinate) < cfg.NodeThresholdKm && !overridden(n.Name, name) {
			return true
		}
	}
	return false
}

// ValidateOverride checks that both endpoints of a prospective failed
// pair exist in the state. Unknown identities are surfaced, never
// silently corrected.
func ValidateOverride(state *model.NetworkState, a, b string) error {
	for _, id := range []string{a, b} {
		if !state.KnowsEndpoint(id) {
			return eris.Wrapf(ErrUnknownNode, "override endpoint %q", id)
		}
	}
	return nil
}

// IsExhausted reports whether err stems from frequency-pool exhaustion.
func IsExhausted(err error) bool {
	var fe *FrequencyExhaustedError
	return errors.As(err, &fe)
}
