//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/pipeline"
	"github.com/sells-group/buyergroup-cli/internal/store"
)

// stubLauncher records the run it was asked to launch and signals done.
type stubLauncher struct {
	mu      sync.Mutex
	calls   int
	target  model.Target
	profile string
	opts    pipeline.Options
	done    chan struct{}
}

func newStubLauncher() *stubLauncher {
	return &stubLauncher{done: make(chan struct{}, 1)}
}

func (s *stubLauncher) Run(_ context.Context, target model.Target, profileName string, opts pipeline.Options) (*model.Report, error) {
	s.mu.Lock()
	s.calls++
	s.target = target
	s.profile = profileName
	s.opts = opts
	s.mu.Unlock()
	s.done <- struct{}{}
	return &model.Report{RunID: "run-1", Target: target, ProfileName: profileName}, nil
}

func (s *stubLauncher) wait(t *testing.T) {
	t.Helper()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
		t.Fatal("launcher was never called")
	}
}

func newServeStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "serve.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestRouter(t *testing.T, st store.Store, launcher runLauncher) http.Handler {
	t.Helper()
	defaults := pipeline.Options{
		SearchBudget:  10,
		CollectBudget: 100,
		EarlyStop:     model.EarlyStopAccuracyFirst,
	}
	return newRouter(context.Background(), st, launcher, defaults, []string{"*"})
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, newServeStore(t), newStubLauncher())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestLaunchRun_Accepted(t *testing.T) {
	launcher := newStubLauncher()
	router := newTestRouter(t, newServeStore(t), launcher)

	payload := map[string]any{
		"company":       "Dell Technologies",
		"aliases":       []string{"Dell"},
		"profile":       "mid-market-saas",
		"search_budget": 5,
	}
	body, _ := json.Marshal(payload)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "accepted", resp["status"])
	assert.Equal(t, "Dell Technologies", resp["company"])
	assert.Equal(t, "mid-market-saas", resp["profile"])

	launcher.wait(t)
	launcher.mu.Lock()
	defer launcher.mu.Unlock()
	assert.Equal(t, 1, launcher.calls)
	assert.Equal(t, "Dell Technologies", launcher.target.CompanyName)
	assert.Equal(t, []string{"Dell"}, launcher.target.Aliases)
	assert.Equal(t, "mid-market-saas", launcher.profile)
	assert.Equal(t, 5, launcher.opts.SearchBudget)
	// Unset fields keep the configured defaults.
	assert.Equal(t, 100, launcher.opts.CollectBudget)
}

func TestLaunchRun_DefaultProfile(t *testing.T) {
	launcher := newStubLauncher()
	router := newTestRouter(t, newServeStore(t), launcher)

	body, _ := json.Marshal(map[string]string{"company": "Initech"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "enterprise-saas", resp["profile"])

	launcher.wait(t)
	launcher.mu.Lock()
	defer launcher.mu.Unlock()
	assert.Equal(t, "enterprise-saas", launcher.profile)
}

func TestLaunchRun_ExplicitZeroBudget(t *testing.T) {
	launcher := newStubLauncher()
	router := newTestRouter(t, newServeStore(t), launcher)

	// An explicit zero disables the collect phase; it must not fall back to
	// the default.
	body := []byte(`{"company":"Initech","collect_budget":0}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)

	launcher.wait(t)
	launcher.mu.Lock()
	defer launcher.mu.Unlock()
	assert.Equal(t, 0, launcher.opts.CollectBudget)
	assert.Equal(t, 10, launcher.opts.SearchBudget)
}

func TestLaunchRun_MissingCompany(t *testing.T) {
	launcher := newStubLauncher()
	router := newTestRouter(t, newServeStore(t), launcher)

	body, _ := json.Marshal(map[string]string{"profile": "enterprise-saas"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader(body))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "company is required")

	launcher.mu.Lock()
	defer launcher.mu.Unlock()
	assert.Equal(t, 0, launcher.calls)
}

func TestLaunchRun_InvalidJSON(t *testing.T) {
	router := newTestRouter(t, newServeStore(t), newStubLauncher())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestListRuns(t *testing.T) {
	st := newServeStore(t)
	ctx := context.Background()

	first, err := st.CreateRun(ctx, model.Target{CompanyName: "Dell Technologies"}, "enterprise-saas")
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunReport(ctx, first.ID, &model.Report{
		RunID:      first.ID,
		BuyerGroup: model.BuyerGroup{TotalMembers: 3},
	}))
	_, err = st.CreateRun(ctx, model.Target{CompanyName: "Initech"}, "mid-market-saas")
	require.NoError(t, err)

	router := newTestRouter(t, st, newStubLauncher())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var runs []model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	assert.Len(t, runs, 2)

	// Status filter narrows to the finished run.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/runs?status=done", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, first.ID, runs[0].ID)
	require.NotNil(t, runs[0].Report)
	assert.Equal(t, 3, runs[0].Report.BuyerGroup.TotalMembers)
}

func TestListRuns_Empty(t *testing.T) {
	router := newTestRouter(t, newServeStore(t), newStubLauncher())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	// Empty list, never null.
	assert.Equal(t, "[]", string(bytes.TrimSpace(rr.Body.Bytes())))
}

func TestListRuns_BadLimit(t *testing.T) {
	router := newTestRouter(t, newServeStore(t), newStubLauncher())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=abc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "limit must be a positive integer")
}

func TestGetRun(t *testing.T) {
	st := newServeStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, model.Target{CompanyName: "Dell Technologies"}, "enterprise-saas")
	require.NoError(t, err)

	router := newTestRouter(t, st, newStubLauncher())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+run.ID, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var got model.Run
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "Dell Technologies", got.Target.CompanyName)
	assert.Equal(t, model.StatusInit, got.Status)
}

func TestGetRun_NotFound(t *testing.T) {
	router := newTestRouter(t, newServeStore(t), newStubLauncher())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/nope", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "run not found")
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t, newServeStore(t), newStubLauncher())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/runs", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
