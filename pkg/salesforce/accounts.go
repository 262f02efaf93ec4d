package salesforce

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
)

// Account is the CRM account a buyer group attaches to.
type Account struct {
	ID                string `json:"Id"`
	Name              string `json:"Name"`
	Website           string `json:"Website"`
	Industry          string `json:"Industry"`
	Description       string `json:"Description"`
	NumberOfEmployees int    `json:"NumberOfEmployees"`
	Type              string `json:"Type"`
}

// accountColumns is the SELECT list for account lookups.
const accountColumns = "Id, Name, Website, Industry, Description, NumberOfEmployees, Type"

// soqlString quotes a value for use inside a SOQL literal, escaping
// embedded quotes so company names cannot break out of the query.
func soqlString(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
}

// findAccount runs a single-row account lookup with the given WHERE clause.
// A miss is nil, nil rather than an error so callers can fall through to
// account creation.
func findAccount(ctx context.Context, c Client, what, where string) (*Account, error) {
	soql := "SELECT " + accountColumns + " FROM Account WHERE " + where + " LIMIT 1"

	var accounts []Account
	if err := c.Query(ctx, soql, &accounts); err != nil {
		return nil, eris.Wrapf(err, "sf: find account by %s", what)
	}
	if len(accounts) == 0 {
		return nil, nil
	}
	return &accounts[0], nil
}

// FindAccountByName looks up the account whose Name matches exactly.
func FindAccountByName(ctx context.Context, c Client, name string) (*Account, error) {
	return findAccount(ctx, c, "name", "Name = "+soqlString(name))
}

// FindAccountByID looks up one account by its Salesforce ID.
func FindAccountByID(ctx context.Context, c Client, id string) (*Account, error) {
	return findAccount(ctx, c, "id", "Id = "+soqlString(id))
}

// CreateAccount inserts a new account and returns its Salesforce ID. Name
// is the one field the API will not default for us.
func CreateAccount(ctx context.Context, c Client, fields map[string]any) (string, error) {
	if name, _ := fields["Name"].(string); strings.TrimSpace(name) == "" {
		return "", eris.New("sf: account Name is required")
	}
	id, err := c.InsertOne(ctx, "Account", fields)
	if err != nil {
		return "", eris.Wrap(err, "sf: create account")
	}
	return id, nil
}
