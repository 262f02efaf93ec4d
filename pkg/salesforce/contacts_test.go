package salesforce

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindContactsByAccountID(t *testing.T) {
	t.Run("selects by account ordered by last name", func(t *testing.T) {
		mock := &mockClient{
			onQuery: func(_ context.Context, soql string, out any) error {
				assert.Contains(t, soql, "SELECT "+contactColumns+" FROM Contact")
				assert.Contains(t, soql, "AccountId = '0015f00000GLBX1'")
				assert.Contains(t, soql, "ORDER BY LastName")
				*out.(*[]Contact) = []Contact{
					{ID: "0035f000000Aaaa", LastName: "Alvarez", Email: "c.alvarez@globex.example"},
					{ID: "0035f000000Bbbb", LastName: "Burton"},
				}
				return nil
			},
		}

		contacts, err := FindContactsByAccountID(context.Background(), mock, "0015f00000GLBX1")
		require.NoError(t, err)
		require.Len(t, contacts, 2)
		assert.Equal(t, "Alvarez", contacts[0].LastName)
		assert.Equal(t, "c.alvarez@globex.example", contacts[0].Email)
	})

	t.Run("no contacts is an empty slice", func(t *testing.T) {
		mock := &mockClient{
			onQuery: func(_ context.Context, _ string, out any) error {
				*out.(*[]Contact) = nil
				return nil
			},
		}

		contacts, err := FindContactsByAccountID(context.Background(), mock, "0015f00000GLBX1")
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})

	t.Run("wraps query failures", func(t *testing.T) {
		mock := &mockClient{
			onQuery: func(_ context.Context, _ string, _ any) error {
				return errors.New("session expired")
			},
		}

		contacts, err := FindContactsByAccountID(context.Background(), mock, "0015f00000GLBX1")
		require.Error(t, err)
		assert.Nil(t, contacts)
		assert.Contains(t, err.Error(), "contacts for account")
	})
}

func TestBatchBounds(t *testing.T) {
	tests := []struct {
		n    int
		want [][2]int
	}{
		{n: 0, want: nil},
		{n: 1, want: [][2]int{{0, 1}}},
		{n: maxBatchSize, want: [][2]int{{0, 200}}},
		{n: maxBatchSize + 1, want: [][2]int{{0, 200}, {200, 201}}},
		{n: 450, want: [][2]int{{0, 200}, {200, 400}, {400, 450}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, batchBounds(tt.n), "n=%d", tt.n)
	}
}

func TestBulkCreateContacts(t *testing.T) {
	t.Run("no records means no API calls", func(t *testing.T) {
		mock := &mockClient{
			onInsertCollection: func(_ context.Context, _ string, _ []map[string]any) ([]CollectionResult, error) {
				t.Error("InsertCollection called with no records")
				return nil, nil
			},
		}

		results, err := BulkCreateContacts(context.Background(), mock, nil)
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("chunks to the batch ceiling and concatenates results", func(t *testing.T) {
		var sizes []int
		mock := &mockClient{
			onInsertCollection: func(_ context.Context, sObjectName string, records []map[string]any) ([]CollectionResult, error) {
				assert.Equal(t, "Contact", sObjectName)
				sizes = append(sizes, len(records))
				return cannedResults(len(records)), nil
			},
		}

		results, err := BulkCreateContacts(context.Background(), mock, contactRecords(maxBatchSize+30))
		require.NoError(t, err)
		assert.Len(t, results, maxBatchSize+30)
		assert.Equal(t, []int{maxBatchSize, 30}, sizes)
	})

	t.Run("keeps completed batches when a later one fails", func(t *testing.T) {
		calls := 0
		mock := &mockClient{
			onInsertCollection: func(_ context.Context, _ string, records []map[string]any) ([]CollectionResult, error) {
				calls++
				if calls > 1 {
					return nil, errors.New("REQUEST_LIMIT_EXCEEDED")
				}
				return cannedResults(len(records)), nil
			},
		}

		results, err := BulkCreateContacts(context.Background(), mock, contactRecords(maxBatchSize+30))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert contacts")
		assert.Len(t, results, maxBatchSize)
	})
}

func TestBulkUpdateContacts(t *testing.T) {
	t.Run("translates updates into collection records", func(t *testing.T) {
		var got []CollectionRecord
		mock := &mockClient{
			onUpdateCollection: func(_ context.Context, sObjectName string, records []CollectionRecord) ([]CollectionResult, error) {
				assert.Equal(t, "Contact", sObjectName)
				got = records
				return cannedResults(len(records)), nil
			},
		}

		updates := []ContactUpdate{
			{ID: "0035f000000Aaaa", Fields: map[string]any{"Title": "VP Finance"}},
			{ID: "0035f000000Bbbb", Fields: map[string]any{"Department": "it"}},
		}
		results, err := BulkUpdateContacts(context.Background(), mock, updates)
		require.NoError(t, err)
		assert.Len(t, results, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "0035f000000Aaaa", got[0].ID)
		assert.Equal(t, "VP Finance", got[0].Fields["Title"])
		assert.Equal(t, "0035f000000Bbbb", got[1].ID)
		assert.Equal(t, "it", got[1].Fields["Department"])
	})

	t.Run("no updates means no API calls", func(t *testing.T) {
		mock := &mockClient{
			onUpdateCollection: func(_ context.Context, _ string, _ []CollectionRecord) ([]CollectionResult, error) {
				t.Error("UpdateCollection called with no updates")
				return nil, nil
			},
		}

		results, err := BulkUpdateContacts(context.Background(), mock, nil)
		require.NoError(t, err)
		assert.Nil(t, results)
	})

	t.Run("keeps completed batches when a later one fails", func(t *testing.T) {
		calls := 0
		mock := &mockClient{
			onUpdateCollection: func(_ context.Context, _ string, records []CollectionRecord) ([]CollectionResult, error) {
				calls++
				if calls > 1 {
					return nil, errors.New("REQUEST_LIMIT_EXCEEDED")
				}
				return cannedResults(len(records)), nil
			},
		}

		results, err := BulkUpdateContacts(context.Background(), mock, contactUpdates(maxBatchSize+5))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "update contacts")
		assert.Len(t, results, maxBatchSize)
	})
}

func contactRecords(n int) []map[string]any {
	records := make([]map[string]any, n)
	for i := range records {
		records[i] = map[string]any{
			"AccountId": "0015f00000GLBX1",
			"LastName":  fmt.Sprintf("Member%03d", i),
		}
	}
	return records
}

func contactUpdates(n int) []ContactUpdate {
	updates := make([]ContactUpdate, n)
	for i := range updates {
		updates[i] = ContactUpdate{
			ID:     fmt.Sprintf("0035f%010d", i),
			Fields: map[string]any{"Department": "sales"},
		}
	}
	return updates
}

func cannedResults(n int) []CollectionResult {
	results := make([]CollectionResult, n)
	for i := range results {
		results[i] = CollectionResult{ID: fmt.Sprintf("0035f%010d", i), Success: true}
	}
	return results
}
