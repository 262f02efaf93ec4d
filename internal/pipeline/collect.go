package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/buyergroup-cli/internal/cost"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// collectOutcome summarizes the collect phase. Projected counts billed
// collects that returned no record because the run is dry.
type collectOutcome struct {
	Records   []*brightdata.PersonRecord
	CacheHits int
	SoftFails int
	Projected int
	Exhausted bool
	EarlyStop bool
}

// runCollects fetches full profiles for the discovered candidates in bounded
// concurrent batches. Each worker re-checks the budget and deadline gates
// right before issuing its call; gates never interrupt a call in flight, so
// up to MaxConcurrent collects may bill past the budget line while draining.
// Under cost_first early stopping the minimum role targets are re-evaluated
// between batches, and remaining batches are skipped once they are met.
func (p *Pipeline) runCollects(ctx context.Context, ids []string, projected int, ledger *cost.Ledger, opts Options, deadline time.Time, minMet func([]*brightdata.PersonRecord) bool) (*collectOutcome, error) {
	out := &collectOutcome{}

	batchSize := p.cfg.Pipeline.CollectBatch
	if batchSize < 1 {
		batchSize = 10
	}
	workers := p.cfg.Pipeline.MaxConcurrent
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex

	for offset := 0; offset < len(ids); offset += batchSize {
		end := offset + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, id := range ids[offset:end] {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}

				mu.Lock()
				stop := out.Exhausted
				if !stop && (expired(deadline, p.now()) || !ledger.CanCollect(opts.CollectBudget)) {
					out.Exhausted = true
					stop = true
				}
				mu.Unlock()
				if stop {
					return nil
				}

				res, err := p.provider.Collect(gctx, id)
				if err != nil {
					return eris.Wrapf(err, "pipeline: collect %s", id)
				}

				mu.Lock()
				defer mu.Unlock()
				if res.Cached {
					out.CacheHits++
				} else {
					ledger.AddCollect()
				}
				switch {
				case res.Status == brightdata.StatusSoftFail:
					out.SoftFails++
					zap.L().Warn("pipeline: collect failed, skipping candidate",
						zap.String("person_id", id),
						zap.Error(res.Err),
					)
				case res.DryRun:
					out.Projected++
				default:
					out.Records = append(out.Records, res.Record)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if out.Exhausted {
			break
		}
		if minMet != nil && end < len(ids) && minMet(out.Records) {
			out.EarlyStop = true
			zap.L().Info("pipeline: minimum role targets met, stopping collection early",
				zap.Int("collected", len(out.Records)),
				zap.Int("skipped", len(ids)-end),
			)
			break
		}
	}

	// Candidates a dry search only projected have no IDs to collect; bill
	// what fetching them would have cost, up to the same budget line.
	for i := 0; i < projected; i++ {
		if !ledger.CanCollect(opts.CollectBudget) {
			out.Exhausted = true
			break
		}
		ledger.AddCollect()
		out.Projected++
	}

	return out, nil
}
