package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/planner"
	"github.com/gridsignal/loraplan/internal/store"
)

var (
	nodeLat    float64
	nodeLon    float64
	nodeDirect bool
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Manage candidate sites",
}

var nodeAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or update a candidate site",
	Long:  "Adds a site by name and position. Without --direct the gateway reachability flag is computed from the current network: in range of the gateway or of a known node means direct.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		name := args[0]

		if name == model.GatewayID {
			return eris.Errorf("node name %q is reserved", model.GatewayID)
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		coord := model.Coordinate{Lat: nodeLat, Lon: nodeLon}

		direct := nodeDirect
		if !cmd.Flags().Changed("direct") {
			state, err := store.LoadState(ctx, st)
			if err != nil {
				return eris.Wrap(err, "load state")
			}
			direct = planner.EvaluateNodeEligibility(name, coord, state, cfg.Plan.Planner())
		}

		node := model.Node{Name: name, Coordinate: coord, DirectToGateway: direct}
		if err := st.UpsertNode(ctx, node); err != nil {
			return eris.Wrapf(err, "upsert node %q", name)
		}

		zap.L().Info("node saved",
			zap.String("name", name),
			zap.Bool("direct_to_gateway", direct),
		)
		return nil
	},
}

var nodeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List candidate sites in insertion order",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		nodes, err := st.ListNodes(ctx)
		if err != nil {
			return eris.Wrap(err, "list nodes")
		}

		out := cmd.OutOrStdout()
		for _, n := range nodes {
			marker := " "
			if n.DirectToGateway {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-20s %.6f, %.6f\n", marker, n.Name, n.Coordinate.Lat, n.Coordinate.Lon)
		}
		fmt.Fprintf(out, "%d sites (* = direct to gateway)\n", len(nodes))
		return nil
	},
}

var nodeRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a candidate site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		removed, err := st.DeleteNode(ctx, args[0])
		if err != nil {
			return eris.Wrapf(err, "delete node %q", args[0])
		}
		if !removed {
			return eris.Errorf("unknown node %q", args[0])
		}

		zap.L().Info("node removed", zap.String("name", args[0]))
		return nil
	},
}

func init() {
	nodeAddCmd.Flags().Float64Var(&nodeLat, "lat", 0, "latitude in decimal degrees (required)")
	nodeAddCmd.Flags().Float64Var(&nodeLon, "lon", 0, "longitude in decimal degrees (required)")
	nodeAddCmd.Flags().BoolVar(&nodeDirect, "direct", false, "force the direct-to-gateway flag instead of computing it")
	_ = nodeAddCmd.MarkFlagRequired("lat")
	_ = nodeAddCmd.MarkFlagRequired("lon")

	nodeCmd.AddCommand(nodeAddCmd)
	nodeCmd.AddCommand(nodeListCmd)
	nodeCmd.AddCommand(nodeRemoveCmd)
	rootCmd.AddCommand(nodeCmd)
}
