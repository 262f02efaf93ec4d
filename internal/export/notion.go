package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/resilience"
	"github.com/sells-group/buyergroup-cli/pkg/notion"
)

// NotionExporter publishes the report as a page in a Notion database. Pages
// are keyed by run ID: re-exporting a run refreshes the existing page
// instead of creating a duplicate.
type NotionExporter struct {
	client notion.Client
	dbID   string
	now    func() time.Time
	retry  resilience.Policy
}

// NotionOption configures the exporter.
type NotionOption func(*NotionExporter)

// WithNotionClock overrides the clock used for the Exported At property.
func WithNotionClock(now func() time.Time) NotionOption {
	return func(e *NotionExporter) {
		e.now = now
	}
}

// WithNotionRetry overrides the retry policy for lookups and page updates.
func WithNotionRetry(p resilience.Policy) NotionOption {
	return func(e *NotionExporter) {
		e.retry = p
	}
}

// NewNotion creates an exporter that writes report pages into dbID.
func NewNotion(c notion.Client, dbID string, opts ...NotionOption) *NotionExporter {
	e := &NotionExporter{
		client: c,
		dbID:   dbID,
		now:    time.Now,
		retry:  retryPolicy("notion", "export report"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export upserts the report page. The lookup and the property refresh are
// idempotent and retried; page creation is single-shot.
func (e *NotionExporter) Export(ctx context.Context, report *model.Report) error {
	if e.dbID == "" {
		return eris.New("export: notion report database is not configured")
	}

	existing, _, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*notionapi.Page, error) {
		return notion.FindReportPage(ctx, e.client, e.dbID, report.RunID)
	})
	if err != nil {
		return eris.Wrap(err, "export: find report page")
	}

	props := pageProperties(e.now().UTC(), report)

	if existing != nil {
		_, _, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*notionapi.Page, error) {
			return e.client.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{
				Properties: props,
			})
		})
		if err != nil {
			return eris.Wrap(err, "export: refresh report page")
		}
		zap.L().Info("export: notion page refreshed",
			zap.String("run_id", report.RunID),
			zap.String("page_id", string(existing.ID)),
		)
		return nil
	}

	page, err := e.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(e.dbID),
		},
		Properties: props,
		Children:   reportBlocks(report),
	})
	if err != nil {
		return eris.Wrap(err, "export: create report page")
	}
	zap.L().Info("export: notion page created",
		zap.String("run_id", report.RunID),
		zap.String("page_id", string(page.ID)),
	)
	return nil
}

func pageProperties(exportedAt time.Time, report *model.Report) notionapi.Properties {
	g := report.BuyerGroup
	date := notionapi.Date(exportedAt)

	props := notionapi.Properties{
		"Company": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(report.Target.CompanyName),
		},
		notion.RunIDProperty: notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(report.RunID),
		},
		"Profile":  selectOption(report.ProfileName),
		"Strategy": selectOption(string(g.Dynamics.Strategy)),
		"Priority": selectOption(string(g.Dynamics.Priority)),
		"Risk":     selectOption(string(g.Dynamics.RiskLevel)),
		"Members": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(g.TotalMembers),
		},
		"Confidence": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: g.OverallConfidence,
		},
		"Search Credits": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(report.CreditsUsed.Search),
		},
		"Collect Credits": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: float64(report.CreditsUsed.Collect),
		},
		"Estimated USD": notionapi.NumberProperty{
			Type:   notionapi.PropertyTypeNumber,
			Number: report.EstimatedUSD,
		},
		"Exported At": notionapi.DateProperty{
			Type: notionapi.PropertyTypeDate,
			Date: &notionapi.DateObject{Start: &date},
		},
	}
	if len(report.Warnings) > 0 {
		props["Warnings"] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(strings.Join(report.Warnings, "; ")),
		}
	}
	return props
}

// reportBlocks renders the page body: the member list, then any warnings.
func reportBlocks(report *model.Report) []notionapi.Block {
	blocks := []notionapi.Block{heading("Buyer group")}
	for _, m := range report.BuyerGroup.Members() {
		blocks = append(blocks, bullet(memberLine(m)))
	}
	if len(report.Warnings) > 0 {
		blocks = append(blocks, heading("Warnings"))
		for _, w := range report.Warnings {
			blocks = append(blocks, bullet(w))
		}
	}
	return blocks
}

func memberLine(m model.RoleAssignment) string {
	return fmt.Sprintf("%s: %s, %s (score %.2f, influence %.1f)",
		m.Role, m.FullName, m.Title, m.Score, m.InfluenceScore)
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type: notionapi.ObjectTypeText,
		Text: &notionapi.Text{Content: s},
	}}
}

func selectOption(name string) notionapi.SelectProperty {
	return notionapi.SelectProperty{
		Type:   notionapi.PropertyTypeSelect,
		Select: notionapi.Option{Name: name},
	}
}

func heading(text string) notionapi.Block {
	return notionapi.Heading2Block{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeHeading2,
		},
		Heading2: notionapi.Heading{RichText: richText(text)},
	}
}

func bullet(text string) notionapi.Block {
	return notionapi.BulletedListItemBlock{
		BasicBlock: notionapi.BasicBlock{
			Object: notionapi.ObjectTypeBlock,
			Type:   notionapi.BlockTypeBulletedListItem,
		},
		BulletedListItem: notionapi.ListItem{RichText: richText(text)},
	}
}
