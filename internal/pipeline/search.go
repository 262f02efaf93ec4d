package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/cost"
	"github.com/sells-group/buyergroup-cli/internal/query"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// searchOutcome summarizes the search phase. IDs are deduplicated in first
// appearance order; Projected counts candidates a dry run would have
// discovered through queries it could not serve from cache.
type searchOutcome struct {
	IDs       []string
	Executed  int
	CacheHits int
	SoftFails int
	Projected int
	Exhausted bool
}

// runSearches walks the query plan in order, stopping the moment the next
// call would not fit the search budget or the run deadline. The gate applies
// only before a call is issued; a call already in flight always completes
// and bills.
func (p *Pipeline) runSearches(ctx context.Context, plan *query.Plan, ledger *cost.Ledger, opts Options, deadline time.Time) (*searchOutcome, error) {
	out := &searchOutcome{}
	seen := make(map[string]bool)

	for _, q := range plan.Queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if expired(deadline, p.now()) || !ledger.CanSearch(opts.SearchBudget) {
			out.Exhausted = true
			break
		}

		res, err := p.provider.Search(ctx, q.Filter)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: search %q", q.Label)
		}
		out.Executed++
		if res.Cached {
			out.CacheHits++
		} else {
			ledger.AddSearch()
		}

		switch {
		case res.Status == brightdata.StatusSoftFail:
			out.SoftFails++
			zap.L().Warn("pipeline: search failed, skipping query",
				zap.String("query", q.Label),
				zap.Error(res.Err),
			)
		case res.DryRun:
			out.Projected += q.Filter.Limit
		default:
			for _, id := range res.IDs {
				if seen[id] {
					continue
				}
				seen[id] = true
				out.IDs = append(out.IDs, id)
			}
			zap.L().Debug("pipeline: search executed",
				zap.String("query", q.Label),
				zap.Int("ids", len(res.IDs)),
				zap.Bool("cached", res.Cached),
			)
		}
	}
	return out, nil
}
