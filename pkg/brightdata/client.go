// Package brightdata wraps the professional-profile dataset API behind a
// two-phase search/collect interface. Search is the cheap discovery call
// returning candidate identifiers; Collect retrieves one full profile
// record. Both phases run the same snapshot protocol: trigger a filtered
// snapshot, poll until it is ready, download the content.
package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultSearchLimit = 25

// Client defines the dataset operations the pipeline consumes.
type Client interface {
	// Search triggers a filtered snapshot and returns matching candidate IDs.
	Search(ctx context.Context, filter SearchFilter) (*SearchResult, error)
	// Collect retrieves the full profile record for one candidate ID.
	Collect(ctx context.Context, id string) (*CollectResult, error)
}

// Cache is consulted before any paid call and updated after successful ones.
// Implementations handle their own failures; a broken cache must never fail
// a provider call.
type Cache interface {
	GetSearch(ctx context.Context, key string) ([]string, bool)
	PutSearch(ctx context.Context, key string, ids []string)
	GetProfile(ctx context.Context, id string) (*PersonRecord, bool)
	PutProfile(ctx context.Context, id string, rec *PersonRecord)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithDatasetID overrides the default people dataset.
func WithDatasetID(id string) Option {
	return func(c *httpClient) {
		c.datasetID = id
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		c.http.Timeout = d
	}
}

// WithRateLimit caps outgoing requests at rps per second. A non-positive
// value disables pacing.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithCache attaches a response cache.
func WithCache(cache Cache) Option {
	return func(c *httpClient) {
		c.cache = cache
	}
}

// WithDryRun puts the client in estimation mode: cache lookups still happen,
// but no network call is ever issued. Results carry DryRun so the caller can
// bill the would-be cost.
func WithDryRun() Option {
	return func(c *httpClient) {
		c.dryRun = true
	}
}

// WithPollInterval sets the fixed wait between snapshot status checks.
func WithPollInterval(d time.Duration) Option {
	return func(c *httpClient) {
		c.pollInterval = d
	}
}

// WithMaxPollAttempts caps how many status checks a snapshot gets before the
// call is abandoned as a soft failure.
func WithMaxPollAttempts(n int) Option {
	return func(c *httpClient) {
		c.maxPollAttempts = n
	}
}

// WithRetryDelay sets the fixed wait before the single retry.
func WithRetryDelay(d time.Duration) Option {
	return func(c *httpClient) {
		c.retryDelay = d
	}
}

type httpClient struct {
	apiKey          string
	baseURL         string
	datasetID       string
	http            *http.Client
	limiter         *rate.Limiter
	cache           Cache
	dryRun          bool
	pollInterval    time.Duration
	maxPollAttempts int
	retryDelay      time.Duration
}

// NewClient creates a dataset API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:    apiKey,
		baseURL:   "https://api.brightdata.com/datasets/v3",
		datasetID: "gd_l1viktl72bvl7bjuj0",
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter:         rate.NewLimiter(rate.Limit(2), 1),
		pollInterval:    2 * time.Second,
		maxPollAttempts: 30,
		retryDelay:      time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, f SearchFilter) (*SearchResult, error) {
	if f.CompanyName == "" {
		return nil, eris.New("brightdata: search requires a company name")
	}
	if f.Limit <= 0 {
		f.Limit = defaultSearchLimit
	}

	key := QueryHash(c.datasetID, f)
	if c.cache != nil {
		if ids, ok := c.cache.GetSearch(ctx, key); ok {
			return &SearchResult{IDs: ids, Status: StatusOK, Cached: true}, nil
		}
	}
	if c.dryRun {
		return &SearchResult{Status: StatusOK, DryRun: true}, nil
	}

	records, err := c.runSnapshot(ctx, buildSearchFilter(f), f.Limit)
	if err != nil {
		if isSoft(err) {
			return &SearchResult{Status: StatusSoftFail, Err: err}, nil
		}
		return nil, err
	}

	ids := make([]string, 0, len(records))
	for _, rec := range records {
		if rec.ID != "" {
			ids = append(ids, rec.ID)
		}
	}
	if c.cache != nil {
		c.cache.PutSearch(ctx, key, ids)
	}
	return &SearchResult{IDs: ids, Status: StatusOK}, nil
}

func (c *httpClient) Collect(ctx context.Context, id string) (*CollectResult, error) {
	if id == "" {
		return nil, eris.New("brightdata: collect requires an id")
	}

	if c.cache != nil {
		if rec, ok := c.cache.GetProfile(ctx, id); ok {
			return &CollectResult{Record: rec, Status: StatusOK, Cached: true}, nil
		}
	}
	if c.dryRun {
		return &CollectResult{Status: StatusOK, DryRun: true}, nil
	}

	records, err := c.runSnapshot(ctx, collectFilter(id), 1)
	if err != nil {
		if isSoft(err) {
			return &CollectResult{Status: StatusSoftFail, Err: err}, nil
		}
		return nil, err
	}
	if len(records) == 0 {
		return &CollectResult{
			Status: StatusSoftFail,
			Err:    eris.Errorf("brightdata: no record for id %s", id),
		}, nil
	}

	rec := &records[0]
	if rec.ID == "" {
		rec.ID = id
	}
	if c.cache != nil {
		c.cache.PutProfile(ctx, id, rec)
	}
	return &CollectResult{Record: rec, Status: StatusOK}, nil
}

type triggerRequest struct {
	DatasetID    string     `json:"dataset_id"`
	Filter       filterNode `json:"filter"`
	RecordsLimit int        `json:"records_limit"`
}

type triggerResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

type snapshotStatus struct {
	Status       string `json:"status"`
	RecordsCount int    `json:"records_count"`
	Error        string `json:"error,omitempty"`
}

type snapshotContent struct {
	Records []PersonRecord `json:"records"`
}

// runSnapshot executes the full snapshot protocol: trigger, poll, download.
func (c *httpClient) runSnapshot(ctx context.Context, filter filterNode, limit int) ([]PersonRecord, error) {
	body, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/filter", triggerRequest{
		DatasetID:    c.datasetID,
		Filter:       filter,
		RecordsLimit: limit,
	})
	if err != nil {
		return nil, err
	}

	var trig triggerResponse
	if err := json.Unmarshal(body, &trig); err != nil {
		return nil, eris.Wrap(err, "brightdata: unmarshal trigger response")
	}
	if trig.SnapshotID == "" {
		return nil, eris.Errorf("brightdata: trigger returned no snapshot id: %s", string(body))
	}

	if err := c.awaitSnapshot(ctx, trig.SnapshotID); err != nil {
		return nil, err
	}

	contentURL := fmt.Sprintf("%s/snapshots/%s/content?format=json", c.baseURL, trig.SnapshotID)
	body, err = c.doJSON(ctx, http.MethodGet, contentURL, nil)
	if err != nil {
		return nil, err
	}

	var content snapshotContent
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, eris.Wrap(err, "brightdata: unmarshal snapshot content")
	}
	return content.Records, nil
}

// awaitSnapshot polls the snapshot status on a fixed interval. The poll
// budget is fixed: a snapshot still running after maxPollAttempts checks is
// abandoned as a soft failure rather than waited on indefinitely.
func (c *httpClient) awaitSnapshot(ctx context.Context, id string) error {
	statusURL := fmt.Sprintf("%s/snapshots/%s", c.baseURL, id)

	for attempt := 0; attempt < c.maxPollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.pollInterval):
			}
		}

		body, err := c.doJSON(ctx, http.MethodGet, statusURL, nil)
		if err != nil {
			return err
		}

		var st snapshotStatus
		if err := json.Unmarshal(body, &st); err != nil {
			return eris.Wrap(err, "brightdata: unmarshal snapshot status")
		}

		switch st.Status {
		case "completed", "ready":
			return nil
		case "failed", "error":
			return softErrorf("brightdata: snapshot %s failed: %s", id, st.Error)
		}
	}

	return softErrorf("brightdata: snapshot %s not ready after %d polls", id, c.maxPollAttempts)
}

// doJSON issues one paced request, retrying exactly once after the fixed
// delay when the attempt fails in a retryable way: transport error, 408,
// 429, or a 5xx status. Non-retryable statuses surface immediately as hard
// errors; retry exhaustion surfaces as a soft error.
func (c *httpClient) doJSON(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var reqBody []byte
	if payload != nil {
		var err error
		reqBody, err = json.Marshal(payload)
		if err != nil {
			return nil, eris.Wrap(err, "brightdata: marshal request")
		}
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var reader io.Reader
		if reqBody != nil {
			reader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, eris.Wrap(err, "brightdata: create request")
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		if reqBody != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			continue
		}

		if retryableStatus(resp.StatusCode) {
			lastErr = eris.Errorf("brightdata: status %d: %s", resp.StatusCode, string(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("brightdata: status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}

	return nil, &softError{err: lastErr}
}

func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= 500
}

// softError marks a failure the caller may skip and move past: a
// retry-exhausted transient, a failed snapshot, or poll budget exhaustion.
// Hard failures (bad credentials, malformed responses) stay unwrapped.
type softError struct {
	err error
}

func (e *softError) Error() string { return e.err.Error() }
func (e *softError) Unwrap() error { return e.err }

func softErrorf(format string, args ...any) error {
	return &softError{err: eris.Errorf(format, args...)}
}

func isSoft(err error) bool {
	var se *softError
	return errors.As(err, &se)
}
