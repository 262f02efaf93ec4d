package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/pipeline"
	"github.com/sells-group/buyergroup-cli/internal/query"
)

var (
	estimateCompany string
	estimateAliases []string
	estimateProfile string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate the credit cost of a run without spending anything",
	Long:  "Plans the provider searches for a target and walks the pipeline in dry mode. Prints the query plan and the credits a live run would consume. Cached responses are free, so a warm cache lowers the estimate.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx, "estimate", true)
		if err != nil {
			return err
		}
		defer env.Close()

		target := model.Target{
			CompanyName: estimateCompany,
			Aliases:     estimateAliases,
		}

		plan, prof, err := env.Pipeline.Plan(target, estimateProfile)
		if err != nil {
			return err
		}

		formatPlan(os.Stdout, plan, prof)

		opts := pipeline.FromConfig(cfg.Pipeline)
		opts.DryRun = true
		report, err := env.Pipeline.Run(ctx, target, estimateProfile, opts)
		if err != nil {
			return eris.Wrap(err, "dry run")
		}

		formatEstimate(os.Stdout, report)
		return nil
	},
}

// formatPlan writes the planned queries as a table.
func formatPlan(out io.Writer, plan *query.Plan, prof *model.SellerProfile) {
	_, _ = fmt.Fprintf(out, "Profile: %s", prof.Name)
	if prof.DealSizeClass != "" {
		_, _ = fmt.Fprintf(out, " (%s)", prof.DealSizeClass)
	}
	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "#\tLABEL\tCOMPANY\tTITLE KEYWORDS\tCREDITS")
	for i, q := range plan.Queries {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n",
			i+1,
			q.Label,
			q.Filter.CompanyName,
			strings.Join(q.Filter.TitleKeywords, ", "),
			q.Credits,
		)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintf(out, "Planned searches: %d (%d credits)\n\n", len(plan.Queries), plan.Credits())
}

// formatEstimate writes the projected spend of the dry run.
func formatEstimate(out io.Writer, report *model.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Search credits:\t%d\n", report.CreditsUsed.Search)
	_, _ = fmt.Fprintf(w, "Collect credits:\t%d\n", report.CreditsUsed.Collect)
	_, _ = fmt.Fprintf(w, "Total credits:\t%d\n", report.CreditsUsed.Search+report.CreditsUsed.Collect)
	_, _ = fmt.Fprintf(w, "Estimated cost:\t$%.4f\n", report.EstimatedUSD)
	if len(report.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "Warnings:\t%s\n", strings.Join(report.Warnings, ", "))
	}
	_ = w.Flush()
}

func init() {
	estimateCmd.Flags().StringVar(&estimateCompany, "company", "", "target company name (required)")
	estimateCmd.Flags().StringArrayVar(&estimateAliases, "alias", nil, "additional company name the target operates under (repeatable)")
	estimateCmd.Flags().StringVar(&estimateProfile, "profile", "enterprise-saas", "seller profile name")
	_ = estimateCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(estimateCmd)
}
