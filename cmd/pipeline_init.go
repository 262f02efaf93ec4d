package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/pipeline"
	"github.com/sells-group/buyergroup-cli/internal/registry"
	"github.com/sells-group/buyergroup-cli/internal/store"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// pipelineEnv holds the initialized store, profile registry, and pipeline
// needed by the run/estimate/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Registry *registry.Registry
	Pipeline *pipeline.Pipeline
	Reports  *store.PostgresReports // nil unless reports.database_url is set
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Reports != nil {
		_ = pe.Reports.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the operational SQLite store and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Cache.Path
	if dsn == "" {
		dsn = "buyergroup.db"
	}
	st, err := store.NewSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// initProvider builds the dataset client from config. The store-backed cache
// makes repeat searches and collects free; dry mode never dials out.
func initProvider(st store.Store, dryRun bool) brightdata.Client {
	opts := []brightdata.Option{
		brightdata.WithCache(store.NewProviderCache(st, cfg.Cache.SearchTTL(), cfg.Cache.ProfileTTL())),
	}
	if cfg.Provider.BaseURL != "" {
		opts = append(opts, brightdata.WithBaseURL(cfg.Provider.BaseURL))
	}
	if cfg.Provider.DatasetID != "" {
		opts = append(opts, brightdata.WithDatasetID(cfg.Provider.DatasetID))
	}
	if cfg.Provider.RPS > 0 {
		opts = append(opts, brightdata.WithRateLimit(cfg.Provider.RPS))
	}
	if cfg.Provider.TimeoutSecs > 0 {
		opts = append(opts, brightdata.WithTimeout(time.Duration(cfg.Provider.TimeoutSecs)*time.Second))
	}
	if cfg.Provider.PollIntervalMS > 0 {
		opts = append(opts, brightdata.WithPollInterval(time.Duration(cfg.Provider.PollIntervalMS)*time.Millisecond))
	}
	if cfg.Provider.MaxPollAttempts > 0 {
		opts = append(opts, brightdata.WithMaxPollAttempts(cfg.Provider.MaxPollAttempts))
	}
	if dryRun {
		opts = append(opts, brightdata.WithDryRun())
	}
	return brightdata.NewClient(cfg.Provider.Key, opts...)
}

// initPipeline validates config for the given mode, then sets up the store,
// provider client, profile registry, and optional report warehouse sink, and
// builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context, mode string, dryRun bool) (*pipelineEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	reg := registry.New(cfg.Profiles.Dir)

	var popts []pipeline.PipelineOption
	var reports *store.PostgresReports
	if cfg.Reports.DatabaseURL != "" {
		reports, err = store.NewPostgresReports(ctx, cfg.Reports.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Reports.MaxConns,
			MinConns: cfg.Reports.MinConns,
		})
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		if err := reports.Migrate(ctx); err != nil {
			_ = reports.Close()
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate report warehouse")
		}
		popts = append(popts, pipeline.WithReportSink(reports))
		zap.L().Info("report warehouse enabled")
	}

	p := pipeline.New(cfg, st, initProvider(st, dryRun), reg, popts...)

	return &pipelineEnv{
		Store:    st,
		Registry: reg,
		Pipeline: p,
		Reports:  reports,
	}, nil
}
