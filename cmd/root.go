package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "buyergroup",
	Short: "Buyer group identification and scoring engine",
	Long:  "Finds the buying committee inside a target company: plans dataset searches, collects candidate profiles within a credit budget, classifies people into buying roles, and assembles a scored buyer group report.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Past flag parsing, errors are operational; don't dump usage on them.
		cmd.SilenceUsage = true

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
