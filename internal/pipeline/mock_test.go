package pipeline

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/store"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

var (
	_ brightdata.Client = (*mockProvider)(nil)
	_ store.Store       = (*mockStore)(nil)
	_ ReportSink        = (*mockSink)(nil)
)

// ret adapts a scripted testify result to a typed pointer-and-error return.
// A nil or mistyped first value comes back as nil.
func ret[T any](args mock.Arguments) (*T, error) {
	v, _ := args.Get(0).(*T)
	return v, args.Error(1)
}

func retSlice[T any](args mock.Arguments) ([]T, error) {
	v, _ := args.Get(0).([]T)
	return v, args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Search(ctx context.Context, filter brightdata.SearchFilter) (*brightdata.SearchResult, error) {
	return ret[brightdata.SearchResult](m.Called(ctx, filter))
}

func (m *mockProvider) Collect(ctx context.Context, id string) (*brightdata.CollectResult, error) {
	return ret[brightdata.CollectResult](m.Called(ctx, id))
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, target model.Target, profile string) (*model.Run, error) {
	return ret[model.Run](m.Called(ctx, target, profile))
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return m.Called(ctx, runID, status).Error(0)
}

func (m *mockStore) UpdateRunReport(ctx context.Context, runID string, report *model.Report) error {
	return m.Called(ctx, runID, report).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	return ret[model.Run](m.Called(ctx, runID))
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	return retSlice[model.Run](m.Called(ctx, filter))
}

func (m *mockStore) GetSearch(ctx context.Context, queryHash string) (*store.SearchEntry, error) {
	return ret[store.SearchEntry](m.Called(ctx, queryHash))
}

func (m *mockStore) PutSearch(ctx context.Context, queryHash string, ids []string, ttl time.Duration) error {
	return m.Called(ctx, queryHash, ids, ttl).Error(0)
}

func (m *mockStore) GetProfile(ctx context.Context, personID string) (*brightdata.PersonRecord, error) {
	return ret[brightdata.PersonRecord](m.Called(ctx, personID))
}

func (m *mockStore) PutProfile(ctx context.Context, personID string, rec *brightdata.PersonRecord, ttl time.Duration) error {
	return m.Called(ctx, personID, rec, ttl).Error(0)
}

func (m *mockStore) PruneExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) SaveReport(ctx context.Context, report *model.Report) error {
	return m.Called(ctx, report).Error(0)
}
