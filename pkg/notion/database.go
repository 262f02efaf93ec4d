package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// RunIDProperty keys report pages to pipeline runs. The exporter looks a
// run up by this property before creating a page, so re-exporting the same
// run updates the existing page instead of duplicating it.
const RunIDProperty = "Run ID"

// QueryPages walks a database query to completion, following the pagination
// cursor until the API reports no more results. The filter request is copied,
// so callers can reuse it across calls.
func QueryPages(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var req notionapi.DatabaseQueryRequest
	if filter != nil {
		req = *filter
	}
	req.StartCursor = ""

	var pages []notionapi.Page
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query pages cancelled")
		}

		resp, err := c.QueryDatabase(ctx, dbID, &req)
		if err != nil {
			return nil, eris.Wrap(err, "notion: query pages")
		}
		pages = append(pages, resp.Results...)

		if !resp.HasMore {
			return pages, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// FindReportPage returns the page in the reports database whose run-ID
// property equals runID, or nil when that run has never been exported.
// Should duplicates exist, the first match wins.
func FindReportPage(ctx context.Context, c Client, dbID, runID string) (*notionapi.Page, error) {
	req := &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: RunIDProperty,
			RichText: &notionapi.TextFilterCondition{Equals: runID},
		},
	}
	pages, err := QueryPages(ctx, c, dbID, req)
	if err != nil {
		return nil, eris.Wrap(err, "notion: find report page")
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &pages[0], nil
}
