package salesforce

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/buyergroup-cli/internal/resilience"
)

// Compile-time interface checks for the real client and the test fake.
var (
	_ Client = (*crmClient)(nil)
	_ Client = (*mockClient)(nil)
)

// mockClient satisfies Client with overridable hooks. Methods without a hook
// return canned successes so helper tests only stub what they assert on.
type mockClient struct {
	onQuery            func(ctx context.Context, soql string, out any) error
	onInsertOne        func(ctx context.Context, sObjectName string, record map[string]any) (string, error)
	onInsertCollection func(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error)
	onUpdateCollection func(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error)
	onDescribe         func(ctx context.Context, name string) (*SObjectDescription, error)
}

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	if m.onQuery != nil {
		return m.onQuery(ctx, soql, out)
	}
	return nil
}

func (m *mockClient) InsertOne(ctx context.Context, sObjectName string, record map[string]any) (string, error) {
	if m.onInsertOne != nil {
		return m.onInsertOne(ctx, sObjectName, record)
	}
	return "001000000000001", nil
}

func (m *mockClient) InsertCollection(ctx context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
	if m.onInsertCollection != nil {
		return m.onInsertCollection(ctx, sObjectName, records)
	}
	out := make([]CollectionResult, len(records))
	for i := range records {
		out[i] = CollectionResult{ID: "001" + string(rune('A'+i)), Success: true}
	}
	return out, nil
}

func (m *mockClient) UpdateCollection(ctx context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
	if m.onUpdateCollection != nil {
		return m.onUpdateCollection(ctx, sObjectName, records)
	}
	out := make([]CollectionResult, len(records))
	for i, r := range records {
		out[i] = CollectionResult{ID: r.ID, Success: true}
	}
	return out, nil
}

func (m *mockClient) DescribeSObject(ctx context.Context, name string) (*SObjectDescription, error) {
	if m.onDescribe != nil {
		return m.onDescribe(ctx, name)
	}
	return &SObjectDescription{Name: name, Label: name}, nil
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient(nil)
	require.NotNil(t, c)
	assert.Nil(t, c.(*crmClient).limiter)
}

func TestWithRateLimit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		rps       float64
		wantLimit rate.Limit
		wantBurst int
	}{
		{name: "whole rate keeps matching burst", rps: 10, wantLimit: 10, wantBurst: 10},
		{name: "fractional rate rounds burst up to one", rps: 0.5, wantLimit: 0.5, wantBurst: 1},
		{name: "zero disables the limiter", rps: 0},
		{name: "negative disables the limiter", rps: -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewClient(nil, WithRateLimit(tt.rps)).(*crmClient)
			if tt.wantBurst == 0 {
				assert.Nil(t, c.limiter)
				return
			}
			require.NotNil(t, c.limiter)
			assert.Equal(t, tt.wantLimit, c.limiter.Limit())
			assert.Equal(t, tt.wantBurst, c.limiter.Burst())
		})
	}
}

func TestThrottle(t *testing.T) {
	t.Parallel()

	t.Run("nil limiter passes through", func(t *testing.T) {
		t.Parallel()
		c := &crmClient{}
		assert.NoError(t, c.throttle(context.Background()))
	})

	t.Run("cancelled context aborts the wait", func(t *testing.T) {
		t.Parallel()
		c := &crmClient{limiter: rate.NewLimiter(rate.Every(time.Hour), 1)}
		// Drain the single token so the next Wait has to block.
		require.True(t, c.limiter.Allow())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := c.throttle(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sf: rate limit")
	})
}

func TestDescribeStatusError(t *testing.T) {
	t.Parallel()

	t.Run("throttling and outages are transient", func(t *testing.T) {
		t.Parallel()
		for _, status := range []int{http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable} {
			err := describeStatusError("Contact", status)
			require.Error(t, err)
			assert.True(t, resilience.IsTransient(err), "status %d", status)
			assert.Contains(t, err.Error(), "sf: describe Contact")
		}
	})

	t.Run("client mistakes are permanent", func(t *testing.T) {
		t.Parallel()
		for _, status := range []int{http.StatusBadRequest, http.StatusForbidden, http.StatusNotFound} {
			err := describeStatusError("Account", status)
			require.Error(t, err)
			assert.False(t, resilience.IsTransient(err), "status %d", status)
		}
	})
}
