package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reclutahub/recluta-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "recluta-cli",
	Short: "Bulk CV analysis for the recruitment pipeline",
	Long:  "Uploads CV batches, extracts contact data, scores each CV against a vacancy through the processor services, runs deep LLM analysis on strong matches, and produces hire-pipeline candidate records.",
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
