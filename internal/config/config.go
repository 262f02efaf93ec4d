package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the root of every runtime setting for the CLI and server.
type Config struct {
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Reports  ReportsConfig  `yaml:"reports" mapstructure:"reports"`
	Profiles ProfilesConfig `yaml:"profiles" mapstructure:"profiles"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Credits  CreditsConfig  `yaml:"credits" mapstructure:"credits"`
	Export   ExportConfig   `yaml:"export" mapstructure:"export"`
	Snapshot SnapshotConfig `yaml:"snapshot" mapstructure:"snapshot"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// ProviderConfig holds professional-network dataset API settings.
type ProviderConfig struct {
	Key             string  `yaml:"key" mapstructure:"key"`
	BaseURL         string  `yaml:"base_url" mapstructure:"base_url"`
	DatasetID       string  `yaml:"dataset_id" mapstructure:"dataset_id"`
	RPS             float64 `yaml:"rps" mapstructure:"rps"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PollIntervalMS  int     `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	MaxPollAttempts int     `yaml:"max_poll_attempts" mapstructure:"max_poll_attempts"`
}

// CacheConfig configures the local provider-response cache.
type CacheConfig struct {
	Path            string `yaml:"path" mapstructure:"path"`
	SearchTTLHours  int    `yaml:"search_ttl_hours" mapstructure:"search_ttl_hours"`
	ProfileTTLHours int    `yaml:"profile_ttl_hours" mapstructure:"profile_ttl_hours"`
}

// SearchTTL returns the search-cache TTL as a duration.
func (c CacheConfig) SearchTTL() time.Duration {
	return time.Duration(c.SearchTTLHours) * time.Hour
}

// ProfileTTL returns the profile-cache TTL as a duration.
func (c CacheConfig) ProfileTTL() time.Duration {
	return time.Duration(c.ProfileTTLHours) * time.Hour
}

// ReportsConfig configures the external report persistence collaborator.
type ReportsConfig struct {
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ProfilesConfig configures where named seller profiles are read from.
type ProfilesConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig configures run behavior: budgets, pool size, early stop.
type PipelineConfig struct {
	SearchBudget  int    `yaml:"search_budget" mapstructure:"search_budget"`
	CollectBudget int    `yaml:"collect_budget" mapstructure:"collect_budget"`
	MaxQueries    int    `yaml:"max_queries" mapstructure:"max_queries"`
	MaxConcurrent int    `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	CollectBatch  int    `yaml:"collect_batch" mapstructure:"collect_batch"`
	EarlyStopMode string `yaml:"early_stop_mode" mapstructure:"early_stop_mode"`
	SearchLimit   int    `yaml:"search_limit" mapstructure:"search_limit"`
	DeadlineSecs  int    `yaml:"deadline_secs" mapstructure:"deadline_secs"`
}

// CreditsConfig holds provider billing rates.
type CreditsConfig struct {
	PerSearch    int     `yaml:"per_search" mapstructure:"per_search"`
	PerCollect   int     `yaml:"per_collect" mapstructure:"per_collect"`
	USDPerCredit float64 `yaml:"usd_per_credit" mapstructure:"usd_per_credit"`
}

// ExportConfig holds settings for report export targets.
type ExportConfig struct {
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
}

// NotionConfig holds Notion API credentials and the reports database ID.
type NotionConfig struct {
	Token    string  `yaml:"token" mapstructure:"token"`
	ReportDB string  `yaml:"report_db" mapstructure:"report_db"`
	RPS      float64 `yaml:"rps" mapstructure:"rps"`
}

// SalesforceConfig holds JWT bearer auth settings for the CRM export.
type SalesforceConfig struct {
	ClientID string `yaml:"client_id" mapstructure:"client_id"`
	Username string `yaml:"username" mapstructure:"username"`
	KeyPath  string `yaml:"key_path" mapstructure:"key_path"`
	LoginURL string `yaml:"login_url" mapstructure:"login_url"`
}

// SnapshotConfig configures bulk snapshot imports.
type SnapshotConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig selects the log level and output encoding.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Validate checks the configuration for the given command mode. It collects
// every problem rather than stopping at the first.
func (c *Config) Validate(mode string) error {
	var problems []string

	checkPipeline := func() {
		if c.Pipeline.SearchBudget < 0 || c.Pipeline.CollectBudget < 0 {
			problems = append(problems, "pipeline budgets must be >= 0")
		}
		if c.Pipeline.MaxConcurrent < 1 || c.Pipeline.MaxConcurrent > 16 {
			problems = append(problems, "pipeline.max_concurrent must be between 1 and 16")
		}
		if c.Pipeline.MaxQueries < 1 {
			problems = append(problems, "pipeline.max_queries must be >= 1")
		}
		switch c.Pipeline.EarlyStopMode {
		case "accuracy_first", "cost_first":
		default:
			problems = append(problems, "pipeline.early_stop_mode must be accuracy_first or cost_first")
		}
	}

	switch mode {
	case "run":
		if c.Provider.Key == "" {
			problems = append(problems, "provider.key is required")
		}
		checkPipeline()
	case "estimate":
		checkPipeline()
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if c.Provider.Key == "" {
			problems = append(problems, "provider.key is required")
		}
		checkPipeline()
	case "export":
		// Per-format requirements are checked when the exporter is built.
	case "warm":
		if c.Cache.Path == "" {
			problems = append(problems, "cache.path is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid for %s: %s", mode, strings.Join(problems, "; "))
	}
	return nil
}

// Load layers configuration from defaults, an optional YAML file, and
// BUYERGROUP_* environment variables, later sources winning.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.buyergroup")
	v.AddConfigPath("/etc/buyergroup")

	v.SetEnvPrefix("BUYERGROUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("provider.base_url", "https://api.brightdata.com/datasets/v3")
	v.SetDefault("provider.dataset_id", "gd_l1viktl72bvl7bjuj0")
	v.SetDefault("provider.rps", 2)
	v.SetDefault("provider.timeout_secs", 30)
	v.SetDefault("provider.poll_interval_ms", 2000)
	v.SetDefault("provider.max_poll_attempts", 30)
	v.SetDefault("cache.path", "buyergroup.db")
	v.SetDefault("cache.search_ttl_hours", 24)
	v.SetDefault("cache.profile_ttl_hours", 24)
	v.SetDefault("reports.max_conns", 10)
	v.SetDefault("reports.min_conns", 2)
	v.SetDefault("profiles.dir", "profiles")
	v.SetDefault("pipeline.search_budget", 10)
	v.SetDefault("pipeline.collect_budget", 100)
	v.SetDefault("pipeline.max_queries", 12)
	v.SetDefault("pipeline.max_concurrent", 4)
	v.SetDefault("pipeline.collect_batch", 10)
	v.SetDefault("pipeline.early_stop_mode", "accuracy_first")
	v.SetDefault("pipeline.search_limit", 25)
	v.SetDefault("pipeline.deadline_secs", 600)
	v.SetDefault("credits.per_search", 1)
	v.SetDefault("credits.per_collect", 5)
	v.SetDefault("credits.usd_per_credit", 0.002)
	v.SetDefault("export.notion.rps", 3)
	v.SetDefault("export.salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("snapshot.timeout_secs", 30)

	// Secrets come in through the environment. AutomaticEnv only surfaces
	// keys viper already knows, so register each one.
	v.SetDefault("provider.key", "")
	v.SetDefault("reports.database_url", "")
	v.SetDefault("export.notion.token", "")
	v.SetDefault("export.notion.report_db", "")
	v.SetDefault("export.salesforce.client_id", "")
	v.SetDefault("export.salesforce.username", "")
	v.SetDefault("export.salesforce.key_path", "")

	// A missing file is fine; defaults plus environment carry a bare setup.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger installs the process-wide zap logger described by cfg.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
