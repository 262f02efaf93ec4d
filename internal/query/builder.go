// Package query plans the ordered set of provider searches for one run.
// Plans are deterministic: the same target and profile always produce the
// same queries in the same order, so estimates and live runs agree.
package query

import (
	"strings"

	"github.com/sells-group/buyergroup-cli/internal/company"
	"github.com/sells-group/buyergroup-cli/internal/cost"
	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/pkg/brightdata"
)

// Query is one planned provider search with its flat credit cost.
type Query struct {
	Filter  brightdata.SearchFilter `json:"filter"`
	Label   string                  `json:"label"`
	Credits int                     `json:"credits"`
}

// Plan is the ordered query list for one run.
type Plan struct {
	Queries []Query `json:"queries"`
}

// Credits returns the total search credits the plan would consume.
func (p *Plan) Credits() int {
	total := 0
	for _, q := range p.Queries {
		total += q.Credits
	}
	return total
}

// leadershipKeywords narrow the final refinement query to senior titles.
var leadershipKeywords = []string{"chief", "vice president", "vp", "director", "head of"}

// departmentSynonyms maps a target department to the position keywords that
// surface its members. Departments without an entry search on their own name.
var departmentSynonyms = map[string][]string{
	"sales":                  {"sales", "revenue"},
	"marketing":              {"marketing", "demand"},
	"engineering":            {"engineering", "engineer"},
	"product":                {"product"},
	"information technology": {"information technology", "it"},
	"human resources":        {"human resources", "hr", "people"},
	"finance":                {"finance", "financial"},
	"legal":                  {"legal", "counsel"},
	"procurement":            {"procurement", "purchasing", "sourcing"},
	"security":               {"security"},
	"operations":             {"operations"},
}

func departmentKeywords(dept string) []string {
	key := strings.ToLower(strings.TrimSpace(dept))
	if syn, ok := departmentSynonyms[key]; ok {
		return syn
	}
	return []string{key}
}

// Builder turns a target and seller profile into a Plan.
type Builder struct {
	maxQueries  int
	searchLimit int
	rates       cost.Rates
}

// NewBuilder creates a planner capped at maxQueries searches, each limited
// to searchLimit records.
func NewBuilder(maxQueries, searchLimit int, rates cost.Rates) *Builder {
	if maxQueries < 1 {
		maxQueries = 1
	}
	if searchLimit < 1 {
		searchLimit = 25
	}
	return &Builder{maxQueries: maxQueries, searchLimit: searchLimit, rates: rates}
}

// Build plans the run's searches: one broad query per company-name variant
// first (the first is the guaranteed fallback), then the primary variant
// crossed with each target department, then a leadership refinement. The
// plan never exceeds the query cap.
func (b *Builder) Build(target model.Target, prof *model.SellerProfile) *Plan {
	if strings.TrimSpace(target.CompanyName) == "" {
		return &Plan{}
	}
	aliases := append(append([]string{}, target.Aliases...), prof.CompanyAliases...)
	variants := company.Variants(target.CompanyName, aliases)
	if len(variants) == 0 {
		return &Plan{}
	}

	var queries []Query
	add := func(label string, f brightdata.SearchFilter) bool {
		if len(queries) >= b.maxQueries {
			return false
		}
		f.Limit = b.searchLimit
		queries = append(queries, Query{Filter: f, Label: label, Credits: b.rates.PerSearch})
		return true
	}

	for _, v := range variants {
		if !add("company:"+v, brightdata.SearchFilter{CompanyName: v}) {
			return &Plan{Queries: queries}
		}
	}

	primary := variants[0]
	for _, dept := range prof.TargetDepartments {
		f := brightdata.SearchFilter{CompanyName: primary, TitleKeywords: departmentKeywords(dept)}
		if !add("dept:"+strings.ToLower(dept), f) {
			return &Plan{Queries: queries}
		}
	}

	add("leadership", brightdata.SearchFilter{CompanyName: primary, TitleKeywords: leadershipKeywords})

	return &Plan{Queries: queries}
}
