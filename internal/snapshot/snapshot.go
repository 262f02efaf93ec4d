// Package snapshot imports provider bulk deliveries into the profile
// cache. A delivery is NDJSON: one raw person record per line, pulled
// from an FTP drop or read from local disk. Every warmed record makes a
// later collect of the same ID free.
package snapshot

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/company"
	"github.com/sells-group/buyergroup-cli/internal/store"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// maxLineBytes caps one NDJSON line. Profiles with long experience
// histories run large, but never this large.
const maxLineBytes = 4 * 1024 * 1024

// Stats counts one import's per-line outcomes.
type Stats struct {
	Imported  int `json:"imported"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// Importer loads snapshot records into the profile cache.
type Importer struct {
	store   store.Store
	ttl     time.Duration
	timeout time.Duration
}

// Option configures the importer.
type Option func(*Importer)

// WithTTL overrides the cache TTL for imported records (default 24h).
func WithTTL(d time.Duration) Option {
	return func(im *Importer) {
		if d > 0 {
			im.ttl = d
		}
	}
}

// WithTimeout overrides the FTP dial timeout (default 30s).
func WithTimeout(d time.Duration) Option {
	return func(im *Importer) {
		if d > 0 {
			im.timeout = d
		}
	}
}

// NewImporter creates an importer writing into s.
func NewImporter(s store.Store, opts ...Option) *Importer {
	im := &Importer{
		store:   s,
		ttl:     24 * time.Hour,
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import reads records from source and caches them. Source is an ftp://
// URL or a local file path. When companyFilter is non-empty, only records
// whose current employer matches it count as imported; the rest are
// skipped.
func (im *Importer) Import(ctx context.Context, source, companyFilter string) (*Stats, error) {
	rc, err := im.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	stats, err := im.importRecords(ctx, rc, companyFilter)
	if err != nil {
		return stats, err
	}

	zap.L().Info("snapshot: import complete",
		zap.String("source", source),
		zap.Int("imported", stats.Imported),
		zap.Int("skipped", stats.Skipped),
		zap.Int("malformed", stats.Malformed),
	)
	return stats, nil
}

func (im *Importer) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "ftp://") {
		return im.openFTP(ctx, source)
	}
	f, err := os.Open(source)
	if err != nil {
		return nil, eris.Wrap(err, "snapshot: open source file")
	}
	return f, nil
}

func (im *Importer) importRecords(ctx context.Context, r io.Reader, companyFilter string) (*Stats, error) {
	var matcher *company.Matcher
	if companyFilter != "" {
		matcher = company.NewMatcher(companyFilter, nil)
	}

	stats := &Stats{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return stats, eris.Wrap(err, "snapshot: import cancelled")
		}

		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec brightdata.PersonRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			stats.Malformed++
			zap.L().Debug("snapshot: malformed line", zap.Int("line", line), zap.Error(err))
			continue
		}
		if rec.ID == "" {
			stats.Malformed++
			zap.L().Debug("snapshot: record without id", zap.Int("line", line))
			continue
		}

		if matcher != nil {
			if _, ok := matcher.Match(currentEmployer(&rec)); !ok {
				stats.Skipped++
				continue
			}
		}

		if err := im.store.PutProfile(ctx, rec.ID, &rec, im.ttl); err != nil {
			return stats, eris.Wrap(err, fmt.Sprintf("snapshot: store record %s", rec.ID))
		}
		stats.Imported++
	}
	if err := scanner.Err(); err != nil {
		return stats, eris.Wrap(err, "snapshot: read source")
	}

	return stats, nil
}

// currentEmployer picks the employer text used for filtering: the embedded
// current-company object when present, else the first experience entry
// still marked current.
func currentEmployer(rec *brightdata.PersonRecord) string {
	if rec.CurrentCompany.Name != "" {
		return rec.CurrentCompany.Name
	}
	for _, e := range rec.Experience {
		if e.Current {
			return e.Company
		}
	}
	return ""
}
