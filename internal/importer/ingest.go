package importer

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/planner"
	"github.com/gridsignal/loraplan/internal/store"
)

// Summary reports the outcome of an ingest run.
type Summary struct {
	Added    int
	Updated  int
	Direct   int // records classified direct-to-gateway
	Indirect int
}

// Ingest upserts parsed records into the store in order. When a record
// carries no direct flag the node is classified against the current
// network: direct when the gateway or an already known node is in range.
func Ingest(ctx context.Context, st store.Store, records []Record, cfg planner.Config) (Summary, error) {
	state, err := store.LoadState(ctx, st)
	if err != nil {
		return Summary{}, eris.Wrap(err, "importer: load network state")
	}

	var sum Summary
	for _, rec := range records {
		direct := false
		switch {
		case rec.Direct != nil:
			direct = *rec.Direct
		default:
			direct = planner.EvaluateNodeEligibility(rec.Name, rec.Coord, state, cfg)
		}

		node := model.Node{
			Name:            rec.Name,
			Coordinate:      rec.Coord,
			DirectToGateway: direct,
		}

		existing := state.Node(rec.Name)
		if err := st.UpsertNode(ctx, node); err != nil {
			return sum, eris.Wrapf(err, "importer: upsert node %q", rec.Name)
		}
		state.UpsertNode(node)

		if existing != nil {
			sum.Updated++
		} else {
			sum.Added++
		}
		if direct {
			sum.Direct++
		} else {
			sum.Indirect++
		}
	}

	zap.L().Info("importer: ingest complete",
		zap.Int("added", sum.Added),
		zap.Int("updated", sum.Updated),
		zap.Int("direct", sum.Direct),
		zap.Int("indirect", sum.Indirect),
	)
	return sum, nil
}
