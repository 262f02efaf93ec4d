package main

import (
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/export"
	"github.com/sells-group/buyergroup-cli/internal/store"
	"github.com/sells-group/buyergroup-cli/pkg/notion"
	sfpkg "github.com/sells-group/buyergroup-cli/pkg/salesforce"
)

var (
	exportRunID   string
	exportFormat  string
	exportOut     string
	exportAccount string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored report to xlsx, Notion, or Salesforce",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("export"); err != nil {
			return err
		}
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, exportRunID)
		if err != nil {
			if eris.Is(err, store.ErrRunNotFound) {
				return eris.Errorf("run %s not found", exportRunID)
			}
			return eris.Wrap(err, "load run")
		}
		if run.Report == nil {
			return eris.Errorf("run %s has no report yet (status %s)", run.ID, run.Status)
		}

		exp, err := newExporter(format)
		if err != nil {
			return err
		}
		if err := exp.Export(ctx, run.Report); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.String("run_id", run.ID),
			zap.String("format", string(format)),
		)
		return nil
	},
}

// newExporter builds the exporter for the requested format from config.
func newExporter(format export.Format) (export.Exporter, error) {
	switch format {
	case export.FormatXLSX:
		return export.NewXLSX(exportOut), nil

	case export.FormatNotion:
		if cfg.Export.Notion.Token == "" {
			return nil, eris.New("notion token is required (BUYERGROUP_EXPORT_NOTION_TOKEN)")
		}
		client := notion.NewClient(cfg.Export.Notion.Token, notion.WithRateLimit(cfg.Export.Notion.RPS))
		return export.NewNotion(client, cfg.Export.Notion.ReportDB), nil

	case export.FormatSalesforce:
		client, err := initSalesforce()
		if err != nil {
			return nil, err
		}
		var opts []export.SalesforceOption
		if exportAccount != "" {
			opts = append(opts, export.WithAccountID(exportAccount))
		}
		return export.NewSalesforce(client, opts...), nil
	}
	return nil, eris.Errorf("unsupported export format %q", format)
}

// initSalesforce authenticates against Salesforce with the configured JWT
// bearer credentials.
func initSalesforce() (sfpkg.Client, error) {
	if cfg.Export.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (BUYERGROUP_EXPORT_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Export.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Export.Salesforce.LoginURL,
		Username:       cfg.Export.Salesforce.Username,
		ConsumerKey:    cfg.Export.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

func init() {
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "run ID to export (required)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "xlsx", "export format: xlsx, notion, or salesforce")
	exportCmd.Flags().StringVar(&exportOut, "out", "buyer-group.xlsx", "output path for the xlsx workbook")
	exportCmd.Flags().StringVar(&exportAccount, "account", "", "Salesforce account ID to sync into (default: match by company name)")
	_ = exportCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(exportCmd)
}
