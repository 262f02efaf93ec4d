package brightdata

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// filterNode is one node of the dataset filter tree. Leaf nodes carry
// Name/Operator/Value; composite nodes carry Operator ("and"/"or") and
// Filters.
type filterNode struct {
	Name     string       `json:"name,omitempty"`
	Operator string       `json:"operator"`
	Value    string       `json:"value,omitempty"`
	Filters  []filterNode `json:"filters,omitempty"`
}

func leaf(name, operator, value string) filterNode {
	return filterNode{Name: name, Operator: operator, Value: value}
}

func anyOf(nodes ...filterNode) filterNode {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return filterNode{Operator: "or", Filters: nodes}
}

func allOf(nodes ...filterNode) filterNode {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return filterNode{Operator: "and", Filters: nodes}
}

// buildSearchFilter translates a SearchFilter into the dataset filter tree.
// The company is matched on the exact current-company name plus a lowercase
// experience-text fallback, so employees listed under a slightly different
// spelling still surface. Title keywords, when present, narrow the result
// with an OR over position text.
func buildSearchFilter(f SearchFilter) filterNode {
	company := anyOf(
		leaf("current_company_name", "=", f.CompanyName),
		leaf("experience", "includes", strings.ToLower(f.CompanyName)),
	)

	if len(f.TitleKeywords) == 0 {
		return company
	}

	titles := make([]filterNode, 0, len(f.TitleKeywords))
	for _, kw := range f.TitleKeywords {
		titles = append(titles, leaf("position", "includes", kw))
	}
	return allOf(company, anyOf(titles...))
}

// collectFilter selects a single record by its dataset identifier.
func collectFilter(id string) filterNode {
	return leaf("id", "=", id)
}

// QueryHash returns the cache key for a search: a hex digest over the
// dataset, the filter tree, and the record limit. Identical searches hash
// identically across runs.
func QueryHash(datasetID string, f SearchFilter) string {
	node := buildSearchFilter(f)
	raw, _ := json.Marshal(node)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", datasetID, raw, f.Limit)))
	return hex.EncodeToString(sum[:])
}
