package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/store"
)

// statsScanLimit bounds how many runs the stats subcommand pulls into memory.
const statsScanLimit = 10000

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List stored pipeline runs",
	Long:  "Lists, shows, and summarizes stored buyer-group runs. Dry runs are never stored.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunStore(cmd, func(ctx context.Context, st store.Store) error {
			status, _ := cmd.Flags().GetString("status")
			company, _ := cmd.Flags().GetString("company")
			limit, _ := cmd.Flags().GetInt("limit")

			runs, err := st.ListRuns(ctx, store.RunFilter{
				Status:  model.RunStatus(status),
				Company: company,
				Limit:   limit,
			})
			if err != nil {
				return eris.Wrap(err, "list runs")
			}
			if len(runs) == 0 {
				fmt.Fprintln(os.Stderr, "No runs found.")
				return nil
			}
			writeRunTable(os.Stdout, runs)
			return nil
		})
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRunStore(cmd, func(ctx context.Context, st store.Store) error {
			run, err := st.GetRun(ctx, args[0])
			if eris.Is(err, store.ErrRunNotFound) {
				return eris.Errorf("no run with id %s", args[0])
			}
			if err != nil {
				return eris.Wrap(err, "show run")
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		})
	},
}

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withRunStore(cmd, func(ctx context.Context, st store.Store) error {
			runs, err := st.ListRuns(ctx, store.RunFilter{Limit: statsScanLimit})
			if err != nil {
				return eris.Wrap(err, "run stats")
			}
			if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
				cutoff := time.Now().Add(-since)
				runs = slices.DeleteFunc(runs, func(r model.Run) bool {
					return r.CreatedAt.Before(cutoff)
				})
			}
			writeRunSummary(os.Stdout, tallyRuns(runs))
			return nil
		})
	},
}

func init() {
	runsCmd.Flags().String("status", "", "filter by run status (init, searching, collecting, analyzing, classifying, selecting, done, failed)")
	runsCmd.Flags().String("company", "", "filter by target company name")
	runsCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 0, "only count runs created within this window (e.g. 24h, 168h)")

	runsCmd.AddCommand(runsShowCmd, runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// withRunStore opens the run store for one CLI invocation and closes it when
// fn returns.
func withRunStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	ctx := cmd.Context()
	st, err := initStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	return fn(ctx, st)
}

// runSummary aggregates the runs table for the stats subcommand.
type runSummary struct {
	Total        int
	Done         int
	Failed       int
	InFlight     int
	Members      int
	Credits      int
	EstimatedUSD float64
	AvgDurSecs   float64
}

func tallyRuns(runs []model.Run) runSummary {
	sum := runSummary{Total: len(runs)}
	var doneDur time.Duration
	for _, r := range runs {
		switch r.Status {
		case model.StatusDone:
			sum.Done++
			doneDur += r.UpdatedAt.Sub(r.CreatedAt)
		case model.StatusFailed:
			sum.Failed++
		default:
			sum.InFlight++
		}
		if r.Report == nil {
			continue
		}
		sum.Members += r.Report.BuyerGroup.TotalMembers
		sum.Credits += r.Report.CreditsUsed.Search + r.Report.CreditsUsed.Collect
		sum.EstimatedUSD += r.Report.EstimatedUSD
	}
	if sum.Done > 0 {
		sum.AvgDurSecs = doneDur.Seconds() / float64(sum.Done)
	}
	return sum
}

func writeRunTable(out io.Writer, runs []model.Run) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOMPANY\tPROFILE\tSTATUS\tMEMBERS\tCREDITS\tCREATED\tDURATION")
	for _, r := range runs {
		fmt.Fprintln(tw, strings.Join(runRow(r), "\t"))
	}
	_ = tw.Flush()
}

// runRow renders one run as table cells. Members and credits show a dash
// until the run has a report.
func runRow(r model.Run) []string {
	members, credits := "-", "-"
	if r.Report != nil {
		members = strconv.Itoa(r.Report.BuyerGroup.TotalMembers)
		credits = strconv.Itoa(r.Report.CreditsUsed.Search + r.Report.CreditsUsed.Collect)
	}
	return []string{
		shortID(r.ID),
		clip(r.Target.CompanyName, 30),
		r.Profile,
		string(r.Status),
		members,
		credits,
		r.CreatedAt.Format("2006-01-02 15:04"),
		r.UpdatedAt.Sub(r.CreatedAt).Round(time.Second).String(),
	}
}

func writeRunSummary(out io.Writer, sum runSummary) {
	rows := [][2]string{
		{"Total runs:", strconv.Itoa(sum.Total)},
		{"Done:", strconv.Itoa(sum.Done)},
		{"Failed:", strconv.Itoa(sum.Failed)},
		{"In flight:", strconv.Itoa(sum.InFlight)},
		{"Group members:", strconv.Itoa(sum.Members)},
		{"Credits spent:", strconv.Itoa(sum.Credits)},
		{"Estimated cost:", fmt.Sprintf("$%.4f", sum.EstimatedUSD)},
	}
	if sum.Done > 0 {
		rows = append(rows, [2]string{"Avg duration:", fmt.Sprintf("%.1fs", sum.AvgDurSecs)})
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
}

// shortID returns the leading segment of a run UUID, enough to tell runs
// apart in a table.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return id[:i]
	}
	return id
}

// clip shortens s to at most max bytes, marking the cut with an ellipsis.
func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
