package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/override"
	"github.com/gridsignal/loraplan/internal/planner"
	"github.com/gridsignal/loraplan/internal/store"
)

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage failed-connection records",
	Long:  "A failed-connection record marks a pair of endpoints that cannot talk in the field regardless of distance. The planner never routes across a recorded pair. Use \"gateway\" as an endpoint for links to the root.",
}

var overrideAddCmd = &cobra.Command{
	Use:   "add <a> <b>",
	Short: "Record a failed connection between two endpoints",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
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
		if err := planner.ValidateOverride(state, args[0], args[1]); err != nil {
			return err
		}

		pair := override.NewPair(args[0], args[1])
		if err := st.AddOverride(ctx, pair); err != nil {
			return eris.Wrap(err, "add override")
		}

		zap.L().Info("failed connection recorded",
			zap.String("a", pair.A),
			zap.String("b", pair.B),
		)
		return nil
	},
}

var overrideRemoveCmd = &cobra.Command{
	Use:   "remove <a> <b>",
	Short: "Clear a failed-connection record",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pair := override.NewPair(args[0], args[1])
		removed, err := st.RemoveOverride(ctx, pair)
		if err != nil {
			return eris.Wrap(err, "remove override")
		}
		if !removed {
			return eris.Errorf("no failed connection recorded between %q and %q", args[0], args[1])
		}

		zap.L().Info("failed connection cleared",
			zap.String("a", pair.A),
			zap.String("b", pair.B),
		)
		return nil
	},
}

var overrideListCmd = &cobra.Command{
	Use:   "list",
	Short: "List failed-connection records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pairs, err := st.ListOverrides(ctx)
		if err != nil {
			return eris.Wrap(err, "list overrides")
		}

		out := cmd.OutOrStdout()
		for _, p := range pairs {
			fmt.Fprintf(out, "%s <-> %s\n", p.A, p.B)
		}
		fmt.Fprintf(out, "%d failed connections\n", len(pairs))
		return nil
	},
}

func init() {
	overrideCmd.AddCommand(overrideAddCmd)
	overrideCmd.AddCommand(overrideRemoveCmd)
	overrideCmd.AddCommand(overrideListCmd)
	rootCmd.AddCommand(overrideCmd)
}
