// Package export renders stored reports onto the surfaces sellers work in:
// an XLSX workbook, a Notion reports database, and Salesforce.
//
// Exporters operate on the stored Report only; they never talk to the
// candidate provider and never spend credits. Remote reads and idempotent
// updates are retried once on transient failures, creates are single-shot
// so a timed-out call cannot duplicate records.
package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/resilience"
)

// Format names a supported export target.
type Format string

const (
	FormatXLSX       Format = "xlsx"
	FormatNotion     Format = "notion"
	FormatSalesforce Format = "salesforce"
)

// Formats lists every supported export format.
var Formats = []Format{FormatXLSX, FormatNotion, FormatSalesforce}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", eris.Errorf("export: unknown format %q (want xlsx, notion or salesforce)", s)
}

// Exporter renders one stored report onto an external surface.
type Exporter interface {
	Export(ctx context.Context, report *model.Report) error
}

func retryPolicy(service, operation string) resilience.Policy {
	return resilience.Policy{OnRetry: resilience.RetryLogger(service, operation)}
}
