package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// SQLiteStore is the embedded run ledger and provider cache, backed by
// modernc.org/sqlite so the binary stays cgo-free.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// SQLiteOption configures a SQLiteStore.
type SQLiteOption func(*SQLiteStore)

// WithClock overrides the store's time source. Cache expiry is evaluated
// against this clock, so tests can age entries without sleeping.
func WithClock(now func() time.Time) SQLiteOption {
	return func(s *SQLiteStore) {
		s.now = now
	}
}

// NewSQLite opens the database at dsn. WAL mode keeps concurrent pipeline
// workers from tripping over the CLI's reads.
func NewSQLite(dsn string, opts ...SQLiteOption) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, eris.Wrapf(err, "sqlite: open %s", dsn)
	}
	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	target     TEXT NOT NULL,
	profile    TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'init',
	report     TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS search_cache (
	id         TEXT PRIMARY KEY,
	query_hash TEXT NOT NULL,
	ids        TEXT NOT NULL,
	cached_at  DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profile_cache (
	id         TEXT PRIMARY KEY,
	person_id  TEXT NOT NULL,
	record     TEXT NOT NULL,
	cached_at  DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_search_cache_hash ON search_cache(query_hash);
CREATE INDEX IF NOT EXISTS idx_search_cache_expires_at ON search_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_profile_cache_person ON profile_cache(person_id);
CREATE INDEX IF NOT EXISTS idx_profile_cache_expires_at ON profile_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runColumns is the SELECT list scanRun expects, in scan order.
const runColumns = "id, target, profile, status, report, created_at, updated_at"

// defaultListLimit bounds ListRuns when the filter does not.
const defaultListLimit = 100

func (s *SQLiteStore) CreateRun(ctx context.Context, target model.Target, profile string) (*model.Run, error) {
	id := uuid.New().String()
	now := s.now().UTC()

	targetJSON, err := json.Marshal(target)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal target")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, target, profile, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(targetJSON), profile, string(model.StatusInit), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Target:    target,
		Profile:   profile,
		Status:    model.StatusInit,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return requireRunRow(res, runID)
}

// UpdateRunReport attaches the final report and marks the run done. Partial
// outcomes (budget exhaustion, role gaps) arrive here too; they are warnings
// on the report, not failures.
func (s *SQLiteStore) UpdateRunReport(ctx context.Context, runID string, report *model.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal report")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET report = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(reportJSON), string(model.StatusDone), s.now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run report %s", runID)
	}
	return requireRunRow(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)

	var r model.Run
	if err := scanRun(row, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	var conds []string
	var args []any
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Company != "" {
		conds = append(conds, "json_extract(target, '$.company_name') = ?")
		args = append(args, filter.Company)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		if err := scanRun(rows, &r); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func (s *SQLiteStore) GetSearch(ctx context.Context, queryHash string) (*SearchEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT query_hash, ids, cached_at, expires_at FROM search_cache
		 WHERE query_hash = ? AND expires_at > ?
		 ORDER BY cached_at DESC LIMIT 1`,
		queryHash, s.now().UTC(),
	)

	var e SearchEntry
	var idsJSON string
	err := row.Scan(&e.QueryHash, &idsJSON, &e.CachedAt, &e.ExpiresAt)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get search entry")
	}
	if err := json.Unmarshal([]byte(idsJSON), &e.IDs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached ids")
	}
	return &e, nil
}

func (s *SQLiteStore) PutSearch(ctx context.Context, queryHash string, ids []string, ttl time.Duration) error {
	id := uuid.New().String()
	now := s.now().UTC()

	idsJSON, err := json.Marshal(ids)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal ids")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO search_cache (id, query_hash, ids, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, queryHash, string(idsJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: put search entry")
}

func (s *SQLiteStore) GetProfile(ctx context.Context, personID string) (*brightdata.PersonRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT record FROM profile_cache
		 WHERE person_id = ? AND expires_at > ?
		 ORDER BY cached_at DESC LIMIT 1`,
		personID, s.now().UTC(),
	)

	var recordJSON string
	err := row.Scan(&recordJSON)
	if eris.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached profile")
	}
	rec := &brightdata.PersonRecord{}
	if err := json.Unmarshal([]byte(recordJSON), rec); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached profile")
	}
	return rec, nil
}

func (s *SQLiteStore) PutProfile(ctx context.Context, personID string, rec *brightdata.PersonRecord, ttl time.Duration) error {
	id := uuid.New().String()
	now := s.now().UTC()

	recordJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal profile record")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profile_cache (id, person_id, record, cached_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, personID, string(recordJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: put cached profile")
}

// PruneExpired deletes expired rows from both cache tables and returns how
// many were removed.
func (s *SQLiteStore) PruneExpired(ctx context.Context) (int, error) {
	total := 0
	for _, table := range []string{"search_cache", "profile_cache"} {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM `+table+` WHERE expires_at <= ?`,
			s.now().UTC(),
		)
		if err != nil {
			return total, eris.Wrapf(err, "sqlite: prune %s", table)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, eris.Wrap(err, "sqlite: rows affected")
		}
		total += int(n)
	}
	return total, nil
}

// requireRunRow turns a zero-row UPDATE into ErrRunNotFound, so update paths
// report a missing run the same way GetRun does.
func requireRunRow(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanRun fills r from a runColumns row. The report column is nullable; a run
// carries one only after it finishes.
func scanRun(row scannable, r *model.Run) error {
	var targetJSON string
	var reportJSON sql.NullString

	err := row.Scan(&r.ID, &targetJSON, &r.Profile, &r.Status, &reportJSON, &r.CreatedAt, &r.UpdatedAt)
	if eris.Is(err, sql.ErrNoRows) {
		return ErrRunNotFound
	}
	if err != nil {
		return eris.Wrap(err, "sqlite: scan run")
	}

	if err := json.Unmarshal([]byte(targetJSON), &r.Target); err != nil {
		return eris.Wrap(err, "sqlite: unmarshal target")
	}
	if !reportJSON.Valid {
		return nil
	}
	r.Report = &model.Report{}
	if err := json.Unmarshal([]byte(reportJSON.String), r.Report); err != nil {
		return eris.Wrap(err, "sqlite: unmarshal report")
	}
	return nil
}
