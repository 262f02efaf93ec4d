package salesforce

import (
	"context"

	"github.com/rotisserie/eris"
)

// maxBatchSize is the record ceiling per Collections API request.
const maxBatchSize = 200

// Contact is one CRM person record under an account.
type Contact struct {
	ID          string `json:"Id"`
	AccountID   string `json:"AccountId"`
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	Title       string `json:"Title"`
	Email       string `json:"Email"`
	Department  string `json:"Department"`
	Description string `json:"Description"`
}

// contactColumns is the SELECT list for contact lookups.
const contactColumns = "Id, AccountId, FirstName, LastName, Title, Email, Department, Description"

// FindContactsByAccountID returns the account's contacts ordered by last
// name, so repeated exports diff the same set the same way.
func FindContactsByAccountID(ctx context.Context, c Client, accountID string) ([]Contact, error) {
	soql := "SELECT " + contactColumns + " FROM Contact WHERE AccountId = " +
		soqlString(accountID) + " ORDER BY LastName"

	var contacts []Contact
	if err := c.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrapf(err, "sf: contacts for account %s", accountID)
	}
	return contacts, nil
}

// ContactUpdate pairs a contact ID with the field values to write.
type ContactUpdate struct {
	ID     string
	Fields map[string]any
}

// batchBounds yields [start, end) index pairs over n items in
// maxBatchSize steps.
func batchBounds(n int) [][2]int {
	var bounds [][2]int
	for start := 0; start < n; start += maxBatchSize {
		bounds = append(bounds, [2]int{start, min(start+maxBatchSize, n)})
	}
	return bounds
}

// BulkCreateContacts inserts contact records through the Collections API,
// chunked to the batch ceiling. Records must already carry AccountId.
// Per-record failures come back in the results, not the error.
func BulkCreateContacts(ctx context.Context, c Client, records []map[string]any) ([]CollectionResult, error) {
	var out []CollectionResult
	for _, b := range batchBounds(len(records)) {
		results, err := c.InsertCollection(ctx, "Contact", records[b[0]:b[1]])
		if err != nil {
			return out, eris.Wrapf(err, "sf: insert contacts %d-%d", b[0], b[1])
		}
		out = append(out, results...)
	}
	return out, nil
}

// BulkUpdateContacts writes contact updates through the Collections API,
// chunked to the batch ceiling.
func BulkUpdateContacts(ctx context.Context, c Client, updates []ContactUpdate) ([]CollectionResult, error) {
	var out []CollectionResult
	for _, b := range batchBounds(len(updates)) {
		batch := updates[b[0]:b[1]]
		records := make([]CollectionRecord, len(batch))
		for i, u := range batch {
			records[i] = CollectionRecord{ID: u.ID, Fields: u.Fields}
		}

		results, err := c.UpdateCollection(ctx, "Contact", records)
		if err != nil {
			return out, eris.Wrapf(err, "sf: update contacts %d-%d", b[0], b[1])
		}
		out = append(out, results...)
	}
	return out, nil
}
