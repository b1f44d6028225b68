// Package store persists the planner's long-lived state (gateway, node
// registry, failed-connection pairs) and the results of planning runs.
// Two drivers exist: embedded SQLite for single-operator use and
// Postgres for shared deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/override"
)

// Store defines the persistence interface for the network planner.
type Store interface {
	// Gateway
	SetGateway(ctx context.Context, coord model.Coordinate) error
	GetGateway(ctx context.Context) (*model.Gateway, error)

	// Nodes. ListNodes returns insertion order; UpsertNode keyed by name
	// preserves the original position on re-add.
	UpsertNode(ctx context.Context, n model.Node) error
	GetNode(ctx context.Context, name string) (*model.Node, error)
	ListNodes(ctx context.Context) ([]model.Node, error)
	DeleteNode(ctx context.Context, name string) (bool, error)

	// Failed-connection overrides, stored canonicalized.
	AddOverride(ctx context.Context, p override.Pair) error
	RemoveOverride(ctx context.Context, p override.Pair) (bool, error)
	ListOverrides(ctx context.Context) ([]override.Pair, error)

	// Plan runs.
	SavePlan(ctx context.Context, result *model.PlanResult) error
	GetPlan(ctx context.Context, id string) (*model.PlanResult, error)
	LatestPlan(ctx context.Context) (*model.PlanResult, error)
	ListPlans(ctx context.Context, limit int) ([]model.PlanResult, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// LoadState assembles the planner input snapshot from the store.
func LoadState(ctx context.Context, s Store) (*model.NetworkState, error) {
	state := model.NewNetworkState()

	gw, err := s.GetGateway(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load state: gateway")
	}
	state.Gateway = gw

	nodes, err := s.ListNodes(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load state: nodes")
	}
	state.Nodes = nodes

	pairs, err := s.ListOverrides(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load state: overrides")
	}
	state.Overrides = override.NewSet(pairs...)

	return state, nil
}
