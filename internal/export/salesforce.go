package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/resilience"
	"github.com/sells-group/buyergroup-cli/pkg/salesforce"
)

// SalesforceExporter syncs the buyer group to CRM contacts under the
// target's Account. Members are matched to existing contacts by email
// first, then by name; unmatched members become new contacts.
type SalesforceExporter struct {
	client    salesforce.Client
	accountID string
	retry     resilience.Policy
}

// SalesforceOption configures the exporter.
type SalesforceOption func(*SalesforceExporter)

// WithAccountID pins the sync to an explicit Account instead of resolving
// one by company name.
func WithAccountID(id string) SalesforceOption {
	return func(e *SalesforceExporter) {
		e.accountID = id
	}
}

// WithSalesforceRetry overrides the retry policy for reads and updates.
func WithSalesforceRetry(p resilience.Policy) SalesforceOption {
	return func(e *SalesforceExporter) {
		e.retry = p
	}
}

// NewSalesforce creates an exporter that syncs buyer groups through c.
func NewSalesforce(c salesforce.Client, opts ...SalesforceOption) *SalesforceExporter {
	e := &SalesforceExporter{
		client: c,
		retry:  retryPolicy("salesforce", "export report"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export upserts one Contact per buyer-group member. Reads and collection
// updates are retried; record creation is single-shot.
func (e *SalesforceExporter) Export(ctx context.Context, report *model.Report) error {
	members := report.BuyerGroup.Members()
	if len(members) == 0 {
		zap.L().Info("export: empty buyer group, nothing to sync",
			zap.String("run_id", report.RunID),
		)
		return nil
	}

	accountID, err := e.resolveAccount(ctx, report)
	if err != nil {
		return err
	}

	updateable := e.contactFieldFilter(ctx)

	existing, _, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) ([]salesforce.Contact, error) {
		return salesforce.FindContactsByAccountID(ctx, e.client, accountID)
	})
	if err != nil {
		return eris.Wrap(err, "export: list account contacts")
	}

	byEmail := make(map[string]string, len(existing))
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		if c.Email != "" {
			byEmail[strings.ToLower(c.Email)] = c.ID
		}
		byName[contactKey(c.FirstName, c.LastName)] = c.ID
	}

	var creates []map[string]any
	var updates []salesforce.ContactUpdate
	for _, m := range members {
		first, last := splitName(m.FullName)

		id, matched := "", false
		if m.Email != "" {
			id, matched = byEmail[strings.ToLower(m.Email)]
		}
		if !matched {
			id, matched = byName[contactKey(first, last)]
		}

		if matched {
			fields := optionalFields(m, updateable)
			if len(fields) == 0 {
				continue
			}
			updates = append(updates, salesforce.ContactUpdate{ID: id, Fields: fields})
			continue
		}

		fields := optionalFields(m, updateable)
		fields["AccountId"] = accountID
		fields["FirstName"] = first
		fields["LastName"] = last
		creates = append(creates, fields)
	}

	failed := 0
	created, err := salesforce.BulkCreateContacts(ctx, e.client, creates)
	if err != nil {
		return eris.Wrap(err, "export: create contacts")
	}
	failed += logFailures(created)

	updated, _, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) ([]salesforce.CollectionResult, error) {
		return salesforce.BulkUpdateContacts(ctx, e.client, updates)
	})
	if err != nil {
		return eris.Wrap(err, "export: update contacts")
	}
	failed += logFailures(updated)

	if failed > 0 {
		return eris.New(fmt.Sprintf("export: %d of %d contacts failed to sync",
			failed, len(creates)+len(updates)))
	}
	zap.L().Info("export: salesforce sync complete",
		zap.String("run_id", report.RunID),
		zap.String("account_id", accountID),
		zap.Int("created", len(creates)),
		zap.Int("updated", len(updates)),
	)
	return nil
}

// resolveAccount returns the Account to attach contacts to. An explicit
// account ID must exist; otherwise the exporter finds the account by
// company name, creating it when absent.
func (e *SalesforceExporter) resolveAccount(ctx context.Context, report *model.Report) (string, error) {
	if e.accountID != "" {
		acct, _, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*salesforce.Account, error) {
			return salesforce.FindAccountByID(ctx, e.client, e.accountID)
		})
		if err != nil {
			return "", eris.Wrap(err, "export: find account")
		}
		if acct == nil {
			return "", eris.New(fmt.Sprintf("export: salesforce account %s not found", e.accountID))
		}
		return acct.ID, nil
	}

	name := report.Target.CompanyName
	acct, _, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*salesforce.Account, error) {
		return salesforce.FindAccountByName(ctx, e.client, name)
	})
	if err != nil {
		return "", eris.Wrap(err, "export: find account")
	}
	if acct != nil {
		return acct.ID, nil
	}

	id, err := salesforce.CreateAccount(ctx, e.client, map[string]any{
		"Name": name,
		"Type": "Prospect",
	})
	if err != nil {
		return "", eris.Wrap(err, "export: create account")
	}
	zap.L().Info("export: salesforce account created",
		zap.String("account_id", id),
		zap.String("company", name),
	)
	return id, nil
}

// contactFieldFilter returns the set of updateable Contact fields, or nil
// when the describe call fails. A nil filter syncs every field; orgs with
// restricted field security lose the describe guard, not the export.
func (e *SalesforceExporter) contactFieldFilter(ctx context.Context) map[string]bool {
	desc, _, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*salesforce.SObjectDescription, error) {
		return e.client.DescribeSObject(ctx, "Contact")
	})
	if err != nil {
		zap.L().Warn("export: describe contact failed, syncing all fields", zap.Error(err))
		return nil
	}
	updateable := make(map[string]bool, len(desc.Fields))
	for _, f := range desc.Fields {
		if f.Updateable {
			updateable[f.Name] = true
		}
	}
	return updateable
}

// optionalFields maps a member onto Contact fields, skipping empty values
// and fields the org does not allow writes to.
func optionalFields(m model.RoleAssignment, updateable map[string]bool) map[string]any {
	fields := make(map[string]any)
	for name, value := range map[string]string{
		"Title":       m.Title,
		"Email":       m.Email,
		"Department":  m.Department,
		"Description": memberDescription(m),
	} {
		if value == "" {
			continue
		}
		if updateable != nil && !updateable[name] {
			continue
		}
		fields[name] = value
	}
	return fields
}

func memberDescription(m model.RoleAssignment) string {
	lines := []string{
		fmt.Sprintf("Buyer group role: %s", m.Role),
		fmt.Sprintf("Score %.2f, confidence %.2f, influence %.1f, decision power %.2f",
			m.Score, m.Confidence, m.InfluenceScore, m.DecisionPower),
	}
	if len(m.Rationale) > 0 {
		lines = append(lines, "Rationale: "+strings.Join(m.Rationale, "; "))
	}
	if m.LinkedInURL != "" {
		lines = append(lines, m.LinkedInURL)
	}
	return strings.Join(lines, "\n")
}

// splitName splits a full name into Salesforce FirstName/LastName.
// Salesforce requires LastName, so a single token becomes the last name
// and an empty name falls back to Unknown.
func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", "Unknown"
	case 1:
		return "", parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
	}
}

func contactKey(first, last string) string {
	return strings.ToLower(strings.TrimSpace(first + " " + last))
}

func logFailures(results []salesforce.CollectionResult) int {
	failed := 0
	for _, r := range results {
		if r.Success {
			continue
		}
		failed++
		zap.L().Warn("export: contact sync failed",
			zap.String("contact_id", r.ID),
			zap.Strings("errors", r.Errors),
		)
	}
	return failed
}
