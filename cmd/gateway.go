package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/model"
)

var (
	gatewayLat float64
	gatewayLon float64
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Manage the root gateway",
}

var gatewaySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the gateway position",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		coord := model.Coordinate{Lat: gatewayLat, Lon: gatewayLon}
		if err := st.SetGateway(ctx, coord); err != nil {
			return eris.Wrap(err, "set gateway")
		}

		zap.L().Info("gateway set",
			zap.Float64("lat", coord.Lat),
			zap.Float64("lon", coord.Lon),
		)
		return nil
	},
}

var gatewayShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the gateway position",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		gw, err := st.GetGateway(ctx)
		if err != nil {
			return eris.Wrap(err, "get gateway")
		}
		if gw == nil {
			return eris.New("no gateway configured")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "gateway: %.6f, %.6f\n", gw.Coordinate.Lat, gw.Coordinate.Lon)
		return nil
	},
}

func init() {
	gatewaySetCmd.Flags().Float64Var(&gatewayLat, "lat", 0, "latitude in decimal degrees (required)")
	gatewaySetCmd.Flags().Float64Var(&gatewayLon, "lon", 0, "longitude in decimal degrees (required)")
	_ = gatewaySetCmd.MarkFlagRequired("lat")
	_ = gatewaySetCmd.MarkFlagRequired("lon")

	gatewayCmd.AddCommand(gatewaySetCmd)
	gatewayCmd.AddCommand(gatewayShowCmd)
	rootCmd.AddCommand(gatewayCmd)
}
