package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/gridsignal/loraplan/internal/export"
	"github.com/gridsignal/loraplan/internal/model"
	"github.com/gridsignal/loraplan/internal/planner"
	"github.com/gridsignal/loraplan/internal/store"
)

var (
	exportFormat string
	exportPlanID string
	exportReplan bool
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a saved plan",
	Long:  "Exports the latest plan (or one selected by --plan) as an ASCII tree, node configuration commands, GeoJSON, or YAML. With --replan the pipeline runs fresh instead of reading a saved result.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		var result *model.PlanResult
		switch {
		case exportReplan:
			state, err := store.LoadState(ctx, st)
			if err != nil {
				return eris.Wrap(err, "load state")
			}
			result, err = planner.PlanNetwork(state, cfg.Plan.Planner())
			if err != nil && !planner.IsExhausted(err) {
				return err
			}
		case exportPlanID != "":
			result, err = st.GetPlan(ctx, exportPlanID)
			if err != nil {
				return eris.Wrap(err, "get plan")
			}
			if result == nil {
				return eris.Errorf("no plan with id %q", exportPlanID)
			}
		default:
			result, err = st.LatestPlan(ctx)
			if err != nil {
				return eris.Wrap(err, "latest plan")
			}
			if result == nil {
				return eris.New("no saved plans; run \"loraplan plan\" first")
			}
		}

		var data []byte
		switch exportFormat {
		case "tree":
			data = []byte(export.RenderTree(result))
		case "commands":
			for _, line := range export.ConfigCommands(result) {
				data = append(data, line...)
				data = append(data, '\n')
			}
		case "geojson":
			data, err = export.GeoJSON(result)
			if err != nil {
				return eris.Wrap(err, "encode geojson")
			}
		case "yaml":
			data, err = export.YAML(result)
			if err != nil {
				return eris.Wrap(err, "encode yaml")
			}
		default:
			return eris.Errorf("unknown format %q (want tree, commands, geojson, or yaml)", exportFormat)
		}

		if exportOut != "" {
			if err := os.WriteFile(exportOut, data, 0o644); err != nil {
				return eris.Wrapf(err, "write %s", exportOut)
			}
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "tree", "output format: tree, commands, geojson, yaml")
	exportCmd.Flags().StringVar(&exportPlanID, "plan", "", "plan id (default latest)")
	exportCmd.Flags().BoolVar(&exportReplan, "replan", false, "recompute instead of reading a saved plan")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
