// Package analyze turns raw provider records into canonical candidate
// profiles: it resolves the current experience, derives title, department,
// company, seniority, and tenure, and applies the inclusion filters.
package analyze

import (
	"strings"
	"time"

	"github.com/sells-group/buyergroup-cli/internal/company"
	"github.com/sells-group/buyergroup-cli/internal/model"
)

// Exclusion reasons. Filtering is inclusive: only candidates the classifier
// could never use are dropped, and every drop names its reason.
const (
	ReasonMissingTitle    = "missing_title"
	ReasonInvalidRole     = "invalid_role"
	ReasonCompanyMismatch = "company_mismatch"
)

// Verdict is the inclusion decision for one candidate.
type Verdict struct {
	Keep   bool
	Reason string
}

// Analyzer resolves canonical fields for candidates of one target company.
type Analyzer struct {
	matcher *company.Matcher
	now     func() time.Time
}

// Option configures the analyzer.
type Option func(*Analyzer)

// WithClock overrides the tenure clock.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// New creates an analyzer that validates employment against the given
// company matcher.
func New(matcher *company.Matcher, opts ...Option) *Analyzer {
	a := &Analyzer{matcher: matcher, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// invalidRoleWords exclude titles that can never hold a committee seat.
// Word-boundary matched: "Internal Audit Manager" is not an intern.
var invalidRoleWords = []string{"intern", "internship", "apprentice"}

// Analyze resolves the candidate's current experience, fills the derived
// fields in place, and returns the inclusion verdict. Department is never a
// filter criterion: legal, procurement, finance, and security candidates
// always pass so blocker detection keeps its inputs.
func (a *Analyzer) Analyze(p *model.PersonProfile) Verdict {
	cur := currentExperience(p.Experience)
	if cur != nil {
		p.CurrentTitle = strings.TrimSpace(cur.Title)
		p.CurrentCompany = strings.TrimSpace(cur.Company)
	}

	if p.CurrentTitle == "" {
		return Verdict{Reason: ReasonMissingTitle}
	}
	if containsAny(pad(company.Normalize(p.CurrentTitle)), invalidRoleWords...) {
		return Verdict{Reason: ReasonInvalidRole}
	}
	if _, ok := a.matcher.Match(p.CurrentCompany); !ok {
		return Verdict{Reason: ReasonCompanyMismatch}
	}

	p.Seniority = DeriveSeniority(p.CurrentTitle)
	p.CurrentDepartment = strings.ToLower(strings.TrimSpace(cur.Department))
	if p.CurrentDepartment == "" {
		p.CurrentDepartment = DeriveDepartment(p.CurrentTitle)
	}
	if cur.StartDate != nil {
		p.TenureMonths = monthsBetween(*cur.StartDate, a.now())
	}

	return Verdict{Keep: true}
}

// currentExperience picks the entry to treat as the candidate's present
// job: explicitly current entries win, then open-ended ones, then the most
// recently ended. Ties break on the later start date; remaining ties keep
// the earlier entry, so resolution is deterministic.
func currentExperience(exps []model.Experience) *model.Experience {
	var best *model.Experience
	for i := range exps {
		e := &exps[i]
		if e.Title == "" && e.Company == "" {
			continue
		}
		if best == nil || moreCurrent(e, best) {
			best = e
		}
	}
	return best
}

func moreCurrent(a, b *model.Experience) bool {
	ra, rb := currencyRank(a), currencyRank(b)
	if ra != rb {
		return ra > rb
	}
	if ra == 0 && !timeEqual(a.EndDate, b.EndDate) {
		return timeAfter(a.EndDate, b.EndDate)
	}
	if timeEqual(a.StartDate, b.StartDate) {
		return false
	}
	return timeAfter(a.StartDate, b.StartDate)
}

func currencyRank(e *model.Experience) int {
	switch {
	case e.Current:
		return 2
	case e.EndDate == nil:
		return 1
	default:
		return 0
	}
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func timeAfter(a, b *time.Time) bool {
	if a == nil {
		return false
	}
	if b == nil {
		return true
	}
	return a.After(*b)
}

func monthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months < 0 {
		return 0
	}
	return months
}
