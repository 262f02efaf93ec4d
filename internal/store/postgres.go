package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the report sink uses. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig tunes the warehouse connection pool.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// PostgresReports publishes finished reports to a shared Postgres warehouse.
// It is a sink beside the operational SQLite store: one row per run plus the
// member roster, for the revenue team's dashboards.
type PostgresReports struct {
	pool Pool
}

// NewPostgresReports connects a report sink with a pgx connection pool.
func NewPostgresReports(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresReports, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Unset sizes fall back to a small pool; exports are bursty, not busy.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresReports{pool: pool}, nil
}

const reportsMigration = `
CREATE TABLE IF NOT EXISTS buyer_group_reports (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	run_id        TEXT NOT NULL UNIQUE,
	company       TEXT NOT NULL,
	profile       TEXT NOT NULL,
	report        JSONB NOT NULL,
	members       INTEGER NOT NULL DEFAULT 0,
	credits       INTEGER NOT NULL DEFAULT 0,
	estimated_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	exported_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS buyer_group_members (
	run_id         TEXT NOT NULL REFERENCES buyer_group_reports(run_id),
	person_id      TEXT NOT NULL,
	full_name      TEXT NOT NULL,
	title          TEXT NOT NULL,
	department     TEXT,
	role           TEXT NOT NULL,
	score          DOUBLE PRECISION NOT NULL,
	confidence     DOUBLE PRECISION NOT NULL,
	influence      DOUBLE PRECISION NOT NULL,
	decision_power DOUBLE PRECISION NOT NULL,
	linkedin_url   TEXT,
	email          TEXT,
	PRIMARY KEY (run_id, person_id)
);

CREATE INDEX IF NOT EXISTS idx_bg_reports_company ON buyer_group_reports(company);
CREATE INDEX IF NOT EXISTS idx_bg_reports_exported_at ON buyer_group_reports(exported_at);
CREATE INDEX IF NOT EXISTS idx_bg_members_role ON buyer_group_members(role);
`

// memberColumns lists the buyer_group_members columns in COPY order.
var memberColumns = []string{
	"run_id", "person_id", "full_name", "title", "department", "role",
	"score", "confidence", "influence", "decision_power", "linkedin_url", "email",
}

func (s *PostgresReports) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresReports) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, reportsMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresReports) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// SaveReport upserts the report row for a run and replaces its member
// roster. Re-exporting a run overwrites the previous rows.
func (s *PostgresReports) SaveReport(ctx context.Context, report *model.Report) error {
	if report == nil {
		return eris.New("postgres: nil report")
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	credits := report.CreditsUsed.Search + report.CreditsUsed.Collect
	_, err = s.pool.Exec(ctx,
		`INSERT INTO buyer_group_reports (id, run_id, company, profile, report, members, credits, estimated_usd, exported_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (run_id) DO UPDATE SET
		   report = $5, members = $6, credits = $7, estimated_usd = $8, exported_at = $9`,
		uuid.New().String(), report.RunID, report.Target.CompanyName, report.ProfileName,
		reportJSON, report.BuyerGroup.TotalMembers, credits, report.EstimatedUSD, time.Now().UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save report %s", report.RunID)
	}

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM buyer_group_members WHERE run_id = $1`, report.RunID,
	); err != nil {
		return eris.Wrapf(err, "postgres: clear members %s", report.RunID)
	}

	members := report.BuyerGroup.Members()
	if len(members) == 0 {
		return nil
	}

	rows := make([][]any, 0, len(members))
	for _, m := range members {
		rows = append(rows, []any{
			report.RunID, m.PersonID, m.FullName, m.Title, m.Department, string(m.Role),
			m.Score, m.Confidence, m.InfluenceScore, m.DecisionPower, m.LinkedInURL, m.Email,
		})
	}

	// COPY is the fastest path for the roster; group sizes are small but
	// batch exports replay many runs at once.
	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"buyer_group_members"}, memberColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return eris.Wrapf(err, "postgres: copy members %s", report.RunID)
	}
	if int(n) != len(members) {
		return eris.Errorf("postgres: copied %d of %d members for %s", n, len(members), report.RunID)
	}
	return nil
}
