// Package pipeline orchestrates buyer-group runs end to end: plan the
// provider searches, gather candidate profiles within credit budget, analyze
// and classify them, and assemble the selected group into the final report.
package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/analyze"
	"github.com/sells-group/buyergroup-cli/internal/company"
	"github.com/sells-group/buyergroup-cli/internal/config"
	"github.com/sells-group/buyergroup-cli/internal/cost"
	"github.com/sells-group/buyergroup-cli/internal/identify"
	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/query"
	"github.com/sells-group/buyergroup-cli/internal/registry"
	"github.com/sells-group/buyergroup-cli/internal/store"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// ReportSink receives finished reports for external persistence. Sink
// failures are logged, never fatal: the run itself already succeeded.
type ReportSink interface {
	SaveReport(ctx context.Context, report *model.Report) error
}

// Options are the per-run settings. Budgets are credit totals, not call
// counts; a zero budget disables its phase.
type Options struct {
	SearchBudget  int
	CollectBudget int
	MaxGroupSize  int
	EarlyStop     model.EarlyStopMode
	DryRun        bool
	Deadline      time.Duration
}

// FromConfig builds run options from the configured pipeline defaults.
// MaxGroupSize stays zero so the seller profile's own cap applies.
func FromConfig(cfg config.PipelineConfig) Options {
	return Options{
		SearchBudget:  cfg.SearchBudget,
		CollectBudget: cfg.CollectBudget,
		EarlyStop:     model.EarlyStopMode(cfg.EarlyStopMode),
		Deadline:      time.Duration(cfg.DeadlineSecs) * time.Second,
	}
}

// Pipeline orchestrates the run state machine: Init, Searching, Collecting,
// Analyzing, Classifying, Selecting, then Done or Failed.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	provider brightdata.Client
	registry *registry.Registry
	sink     ReportSink
	rates    cost.Rates
	now      func() time.Time
}

// PipelineOption configures optional collaborators.
type PipelineOption func(*Pipeline)

// WithReportSink attaches an external report sink, written after every
// successful live run.
func WithReportSink(sink ReportSink) PipelineOption {
	return func(p *Pipeline) {
		p.sink = sink
	}
}

// WithClock overrides the pipeline clock. Deadlines and phase durations are
// measured against it.
func WithClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

// New creates a Pipeline with its required collaborators.
func New(cfg *config.Config, st store.Store, provider brightdata.Client, reg *registry.Registry, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		store:    st,
		provider: provider,
		registry: reg,
		rates:    ratesFromConfig(cfg.Credits),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func ratesFromConfig(c config.CreditsConfig) cost.Rates {
	r := cost.DefaultRates()
	if c.PerSearch > 0 {
		r.PerSearch = c.PerSearch
	}
	if c.PerCollect > 0 {
		r.PerCollect = c.PerCollect
	}
	if c.USDPerCredit > 0 {
		r.USDPerCredit = c.USDPerCredit
	}
	return r
}

// Plan returns the ordered search plan a run for this target would execute,
// along with the loaded profile. The estimate surface uses it to show the
// queries before any credit is spent.
func (p *Pipeline) Plan(target model.Target, profileName string) (*query.Plan, *model.SellerProfile, error) {
	prof, err := p.registry.Load(profileName)
	if err != nil {
		return nil, nil, err
	}
	return p.buildPlan(target, prof), prof, nil
}

func (p *Pipeline) buildPlan(target model.Target, prof *model.SellerProfile) *query.Plan {
	builder := query.NewBuilder(p.cfg.Pipeline.MaxQueries, p.cfg.Pipeline.SearchLimit, p.rates)
	return builder.Build(target, prof)
}

// Run executes the full pipeline for one target company. Structural
// degradation (budget exhaustion, role gaps, zero candidates) lands in the
// report's warnings; only unrecoverable failures return an error. Dry runs
// walk the same control flow without touching the network or the store.
func (p *Pipeline) Run(ctx context.Context, target model.Target, profileName string, opts Options) (*model.Report, error) {
	log := zap.L().With(
		zap.String("company", target.CompanyName),
		zap.String("profile", profileName),
	)
	start := p.now()

	prof, err := p.registry.Load(profileName)
	if err != nil {
		return nil, err
	}
	if opts.MaxGroupSize > 0 {
		prof.MaxBuyerGroupSize = opts.MaxGroupSize
		if err := registry.Validate(prof); err != nil {
			return nil, err
		}
	}
	if opts.EarlyStop != model.EarlyStopCostFirst {
		opts.EarlyStop = model.EarlyStopAccuracyFirst
	}

	log.Info("pipeline: starting run",
		zap.Bool("dry_run", opts.DryRun),
		zap.Int("search_budget", opts.SearchBudget),
		zap.Int("collect_budget", opts.CollectBudget),
		zap.String("early_stop", string(opts.EarlyStop)),
	)

	var runID string
	if !opts.DryRun {
		run, err := p.store.CreateRun(ctx, target, prof.Name)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: create run")
		}
		runID = run.ID
		log = log.With(zap.String("run_id", runID))
	}

	setStatus := func(status model.RunStatus) {
		if runID == "" {
			return
		}
		if err := p.store.UpdateRunStatus(ctx, runID, status); err != nil {
			log.Warn("pipeline: update status", zap.String("status", string(status)), zap.Error(err))
		}
	}
	fail := func(err error) (*model.Report, error) {
		setStatus(model.StatusFailed)
		return nil, err
	}

	var phases []model.PhaseResult
	runPhase := func(name string, status model.RunStatus, fn func() (map[string]any, error)) error {
		setStatus(status)
		began := p.now()
		meta, err := fn()
		pr := model.PhaseResult{
			Name:     name,
			Status:   model.PhaseComplete,
			Duration: p.now().Sub(began).Milliseconds(),
			Metadata: meta,
		}
		if err != nil {
			pr.Status = model.PhaseFailed
			pr.Error = err.Error()
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
				zap.Error(err),
			)
		} else {
			log.Info("pipeline: phase complete",
				zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration),
			)
		}
		phases = append(phases, pr)
		return err
	}
	skipPhase := func(name, reason string) {
		phases = append(phases, model.PhaseResult{
			Name:     name,
			Status:   model.PhaseSkipped,
			Metadata: map[string]any{"reason": reason},
		})
	}

	var warnings []string
	warned := make(map[string]bool)
	addWarning := func(w string) {
		if warned[w] {
			return
		}
		warned[w] = true
		warnings = append(warnings, w)
	}

	ledger := cost.NewLedger(p.rates)
	var deadline time.Time
	if opts.Deadline > 0 {
		deadline = start.Add(opts.Deadline)
	}

	aliases := append(append([]string{}, target.Aliases...), prof.CompanyAliases...)
	matcher := company.NewMatcher(target.CompanyName, aliases)
	analyzer := analyze.New(matcher, analyze.WithClock(p.now))
	clf := identify.NewClassifier(*prof)

	finish := func(group model.BuyerGroup) (*model.Report, error) {
		if warnings == nil {
			warnings = []string{}
		}
		report := &model.Report{
			RunID:        runID,
			Target:       target,
			ProfileName:  prof.Name,
			BuyerGroup:   group,
			CreditsUsed:  model.CreditsUsed{Search: ledger.SearchCredits(), Collect: ledger.CollectCredits()},
			EstimatedUSD: ledger.USD(),
			Warnings:     warnings,
			DryRun:       opts.DryRun,
			Phases:       phases,
			ProcessingMS: p.now().Sub(start).Milliseconds(),
		}
		if !opts.DryRun {
			if err := p.store.UpdateRunReport(ctx, runID, report); err != nil {
				log.Warn("pipeline: save report", zap.Error(err))
			}
			if p.sink != nil {
				if err := p.sink.SaveReport(ctx, report); err != nil {
					log.Warn("pipeline: report sink", zap.Error(err))
				}
			}
		}
		log.Info("pipeline: run complete",
			zap.Int("members", group.TotalMembers),
			zap.Int("credits", ledger.Total()),
			zap.Strings("warnings", warnings),
		)
		return report, nil
	}

	// Search.
	plan := p.buildPlan(target, prof)
	var search *searchOutcome
	if err := runPhase("search", model.StatusSearching, func() (map[string]any, error) {
		so, err := p.runSearches(ctx, plan, ledger, opts, deadline)
		if err != nil {
			return nil, err
		}
		search = so
		return map[string]any{
			"queries_planned":  len(plan.Queries),
			"queries_executed": so.Executed,
			"candidates":       len(so.IDs),
			"cache_hits":       so.CacheHits,
			"soft_fails":       so.SoftFails,
		}, nil
	}); err != nil {
		return fail(err)
	}
	if search.Exhausted {
		addWarning(model.BudgetWarning("search"))
	}

	if len(search.IDs) == 0 && search.Projected == 0 {
		addWarning(model.WarnNoCandidatesFound)
		for _, name := range []string{"collect", "analyze", "classify", "select"} {
			skipPhase(name, "no candidates")
		}
		group, _ := clf.SelectGroup(nil)
		return finish(group)
	}

	var minMet func([]*brightdata.PersonRecord) bool
	if opts.EarlyStop == model.EarlyStopCostFirst {
		minMet = func(recs []*brightdata.PersonRecord) bool {
			kept, _ := analyzeRecords(analyzer, recs)
			cands := make([]identify.Candidate, 0, len(kept))
			for _, pp := range kept {
				cands = append(cands, clf.Classify(pp))
			}
			return clf.MinTargetsMet(cands)
		}
	}

	// Collect.
	var collect *collectOutcome
	if err := runPhase("collect", model.StatusCollecting, func() (map[string]any, error) {
		co, err := p.runCollects(ctx, search.IDs, search.Projected, ledger, opts, deadline, minMet)
		if err != nil {
			return nil, err
		}
		collect = co
		return map[string]any{
			"planned":       len(search.IDs),
			"collected":     len(co.Records),
			"cache_hits":    co.CacheHits,
			"soft_fails":    co.SoftFails,
			"projected":     co.Projected,
			"early_stopped": co.EarlyStop,
		}, nil
	}); err != nil {
		return fail(err)
	}
	if collect.Exhausted {
		addWarning(model.BudgetWarning("collect"))
	}

	// A dry run with a cold cache has no profiles to score; the remaining
	// phases would only simulate an empty committee.
	if opts.DryRun && len(collect.Records) == 0 {
		for _, name := range []string{"analyze", "classify", "select"} {
			skipPhase(name, "projected candidates are not collected in a dry run")
		}
		group, _ := clf.SelectGroup(nil)
		return finish(group)
	}

	// Analyze.
	var profiles []*model.PersonProfile
	if err := runPhase("analyze", model.StatusAnalyzing, func() (map[string]any, error) {
		kept, excluded := analyzeRecords(analyzer, collect.Records)
		profiles = kept
		return map[string]any{
			"collected": len(collect.Records),
			"kept":      len(kept),
			"excluded":  excluded,
		}, nil
	}); err != nil {
		return fail(err)
	}

	// Classify.
	var cands []identify.Candidate
	if err := runPhase("classify", model.StatusClassifying, func() (map[string]any, error) {
		classifiable := 0
		for _, pp := range profiles {
			cand := clf.Classify(pp)
			if cand.Classifiable() {
				classifiable++
			}
			cands = append(cands, cand)
		}
		return map[string]any{
			"scored":       len(cands),
			"classifiable": classifiable,
		}, nil
	}); err != nil {
		return fail(err)
	}

	// Select.
	var group model.BuyerGroup
	if err := runPhase("select", model.StatusSelecting, func() (map[string]any, error) {
		g, roleWarnings := clf.SelectGroup(cands)
		group = g
		for _, w := range roleWarnings {
			addWarning(w)
		}
		return map[string]any{
			"members":   g.TotalMembers,
			"role_gaps": len(roleWarnings),
		}, nil
	}); err != nil {
		return fail(err)
	}

	return finish(group)
}

// analyzeRecords converts raw records into canonical profiles and applies
// the inclusion filters. Records are sorted by ID first so results never
// depend on collect completion order.
func analyzeRecords(an *analyze.Analyzer, recs []*brightdata.PersonRecord) ([]*model.PersonProfile, map[string]int) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID < recs[j].ID })

	var kept []*model.PersonProfile
	excluded := make(map[string]int)
	for _, rec := range recs {
		pp := analyze.FromRecord(rec)
		v := an.Analyze(pp)
		if !v.Keep {
			excluded[v.Reason]++
			zap.L().Debug("pipeline: candidate excluded",
				zap.String("person_id", pp.ID),
				zap.String("reason", v.Reason),
			)
			continue
		}
		kept = append(kept, pp)
	}
	return kept, excluded
}

// expired reports whether the run deadline has passed. A zero deadline never
// expires.
func expired(deadline, now time.Time) bool {
	return !deadline.IsZero() && !now.Before(deadline)
}
