package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/buyergroup-cli/internal/snapshot"
)

var (
	warmSource  string
	warmCompany string
)

var warmCmd = &cobra.Command{
	Use:   "warm",
	Short: "Warm the profile cache from a bulk snapshot",
	Long:  "Imports provider snapshot records (a local NDJSON file or an ftp:// drop) into the profile cache. Later collects of warmed records are served locally and cost nothing.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("warm"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		imp := snapshot.NewImporter(st,
			snapshot.WithTTL(cfg.Cache.ProfileTTL()),
			snapshot.WithTimeout(time.Duration(cfg.Snapshot.TimeoutSecs)*time.Second),
		)

		stats, err := imp.Import(ctx, warmSource, warmCompany)
		if err != nil {
			return eris.Wrap(err, "warm cache")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	},
}

func init() {
	warmCmd.Flags().StringVar(&warmSource, "source", "", "snapshot source: NDJSON file path or ftp:// URL (required)")
	warmCmd.Flags().StringVar(&warmCompany, "company", "", "only import records whose current employer matches this company")
	_ = warmCmd.MarkFlagRequired("source")
	rootCmd.AddCommand(warmCmd)
}
