package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/export"
	"github.com/gridsignal/loraplan/internal/planner"
	"github.com/gridsignal/loraplan/internal/store"
)

var (
	planCommands bool
	planShowDiag bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a routing tree and frequency assignment",
	Long:  "Runs the full pipeline against the stored network: feasibility graph, breadth-first tree, frequency assignment. The result is saved and the tree printed.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		state, err := store.LoadState(ctx, st)
		if err != nil {
			return eris.Wrap(err, "load state")
		}

		result, planErr := planner.PlanNetwork(state, cfg.Plan.Planner())
		if planErr != nil && !planner.IsExhausted(planErr) {
			return planErr
		}

		if err := st.SavePlan(ctx, result); err != nil {
			return eris.Wrap(err, "save plan")
		}

		out := cmd.OutOrStdout()
		if planCommands {
			for _, line := range export.ConfigCommands(result) {
				fmt.Fprintln(out, line)
			}
		} else {
			fmt.Fprint(out, export.RenderTree(result))
		}

		if planShowDiag {
			for _, d := range result.Diagnostics {
				fmt.Fprintln(out, planner.DescribeDiagnostic(d))
			}
		}

		zap.L().Info("plan saved",
			zap.String("id", result.ID),
			zap.Int("reachable", result.ReachableCount),
			zap.Int("unreachable", len(result.Unreachable)),
			zap.String("frequency_outcome", string(result.FrequencyOutcome)),
		)

		if planErr != nil {
			return planErr
		}
		return nil
	},
}

func init() {
	planCmd.Flags().BoolVar(&planCommands, "commands", false, "print per-node configuration commands instead of the tree")
	planCmd.Flags().BoolVar(&planShowDiag, "diagnostics", false, "also print rejected-link diagnostics")
	rootCmd.AddCommand(planCmd)
}
