// Package store persists pipeline runs and provider responses. SQLite is
// the operational backend: run history plus the TTL caches that make repeat
// provider calls free. Finished reports may additionally be published to a
// shared Postgres warehouse through PostgresReports.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// ErrRunNotFound reports a run ID with no stored row. Compare with eris.Is.
var ErrRunNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status  model.RunStatus `json:"status,omitempty"`
	Company string          `json:"company,omitempty"`
	Limit   int             `json:"limit,omitempty"`
	Offset  int             `json:"offset,omitempty"`
}

// SearchEntry is one cached search result set. An entry with zero IDs is
// still a valid hit: the query already ran once and matched nobody.
type SearchEntry struct {
	QueryHash string    `json:"query_hash"`
	IDs       []string  `json:"ids"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store defines the persistence interface for the buyer group pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, target model.Target, profile string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	UpdateRunReport(ctx context.Context, runID string, report *model.Report) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Search cache (query hash -> candidate IDs)
	GetSearch(ctx context.Context, queryHash string) (*SearchEntry, error)
	PutSearch(ctx context.Context, queryHash string, ids []string, ttl time.Duration) error

	// Profile cache (person ID -> raw provider record)
	GetProfile(ctx context.Context, personID string) (*brightdata.PersonRecord, error)
	PutProfile(ctx context.Context, personID string, rec *brightdata.PersonRecord, ttl time.Duration) error
	PruneExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
