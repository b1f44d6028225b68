package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gridsignal/loraplan/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "loraplan",
	Short: "LoRa tree-network planner",
	Long:  "Plans capacitated routing trees for LoRa sensor networks: feasibility from haversine distance and failed-connection records, breadth-first attachment, frequency assignment from the shared pool.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
