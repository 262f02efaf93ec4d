package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/pipeline"
)

var (
	runCompany       string
	runAliases       []string
	runProfile       string
	runSearchBudget  int
	runCollectBudget int
	runMaxGroupSize  int
	runEarlyStop     string
	runDryRun        bool
	runOut           string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Identify the buyer group for a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mode := "run"
		if runDryRun {
			mode = "estimate"
		}
		env, err := initPipeline(ctx, mode, runDryRun)
		if err != nil {
			return err
		}
		defer env.Close()

		opts := pipeline.FromConfig(cfg.Pipeline)
		if cmd.Flags().Changed("search-budget") {
			opts.SearchBudget = runSearchBudget
		}
		if cmd.Flags().Changed("collect-budget") {
			opts.CollectBudget = runCollectBudget
		}
		if runMaxGroupSize > 0 {
			opts.MaxGroupSize = runMaxGroupSize
		}
		if runEarlyStop != "" {
			opts.EarlyStop = model.EarlyStopMode(runEarlyStop)
		}
		opts.DryRun = runDryRun

		target := model.Target{
			CompanyName: runCompany,
			Aliases:     runAliases,
		}

		report, err := env.Pipeline.Run(ctx, target, runProfile, opts)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("run complete",
			zap.String("company", target.CompanyName),
			zap.Int("members", report.BuyerGroup.TotalMembers),
			zap.Float64("confidence", report.BuyerGroup.OverallConfidence),
			zap.Int("credits", report.CreditsUsed.Search+report.CreditsUsed.Collect),
		)

		if runOut != "" {
			f, err := os.Create(runOut)
			if err != nil {
				return eris.Wrap(err, "create report file")
			}
			defer f.Close() //nolint:errcheck
			if err := writeReport(f, report); err != nil {
				return eris.Wrap(err, "write report file")
			}
		}

		// Print the report JSON to stdout.
		return writeReport(os.Stdout, report)
	},
}

// writeReport writes the indented report JSON to w.
func writeReport(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func init() {
	runCmd.Flags().StringVar(&runCompany, "company", "", "target company name (required)")
	runCmd.Flags().StringArrayVar(&runAliases, "alias", nil, "additional company name the target operates under (repeatable)")
	runCmd.Flags().StringVar(&runProfile, "profile", "enterprise-saas", "seller profile name")
	runCmd.Flags().IntVar(&runSearchBudget, "search-budget", 0, "search credit budget (default from config)")
	runCmd.Flags().IntVar(&runCollectBudget, "collect-budget", 0, "collect credit budget (default from config)")
	runCmd.Flags().IntVar(&runMaxGroupSize, "max-group-size", 0, "override the profile's max buyer group size")
	runCmd.Flags().StringVar(&runEarlyStop, "early-stop", "", "early stop mode: accuracy_first or cost_first (default from config)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "walk the pipeline without network calls or persistence")
	runCmd.Flags().StringVar(&runOut, "out", "", "also write the report JSON to this file")
	_ = runCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(runCmd)
}
