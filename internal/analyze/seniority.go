package analyze

import (
	"strings"

	"github.com/sells-group/buyergroup-cli/internal/company"
	"github.com/sells-group/buyergroup-cli/internal/model"
)

// pad frames normalized text with spaces so keyword checks respect word
// boundaries.
func pad(s string) string {
	return " " + s + " "
}

func containsAny(padded string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(padded, " "+kw+" ") {
			return true
		}
	}
	return false
}

// maskPhrase blanks every occurrence of the phrase so a later check cannot
// re-claim its tokens.
func maskPhrase(padded, phrase string) string {
	return strings.ReplaceAll(padded, " "+phrase+" ", " # ")
}

// DeriveSeniority ranks a title on the ordered seniority scale. Checks run
// highest to lowest and the first match wins. The C-level check masks
// "vice president" spans first so a VP title never ranks C-level, and the
// SVP family is checked before plain VP so "Senior Vice President" never
// ranks as VP. Assistant titles rank IC even when they name an executive:
// "Executive Assistant to the CEO" describes the boss, not the person.
func DeriveSeniority(title string) model.SeniorityLevel {
	t := pad(company.Normalize(title))

	switch {
	case containsAny(t, "executive assistant", "personal assistant",
		"administrative assistant") || strings.Contains(t, " assistant to "):
		return model.SeniorityIC
	case containsAny(maskPhrase(t, "vice president"),
		"chief", "ceo", "cfo", "cto", "cio", "coo", "cmo", "cro", "ciso",
		"president", "founder", "co founder", "owner", "general manager"):
		return model.SeniorityCLevel
	case containsAny(t,
		"senior vice president", "sr vice president", "senior vp", "sr vp",
		"executive vice president", "svp", "evp"):
		return model.SenioritySVP
	case containsAny(t, "vice president", "vp"):
		return model.SeniorityVP
	case containsAny(t, "senior director", "sr director"):
		return model.SenioritySeniorDirector
	case containsAny(t, "director", "head of"):
		return model.SeniorityDirector
	case containsAny(t, "manager", "lead", "principal"):
		return model.SeniorityManager
	default:
		return model.SeniorityIC
	}
}

// departmentRules map title keywords to a canonical department. Rules run
// in order and the first match wins: blocker-relevant departments come
// first so "Security Engineer" lands in security, not engineering.
var departmentRules = []struct {
	name     string
	keywords []string
}{
	{"security", []string{"security", "infosec", "ciso"}},
	{"legal", []string{"legal", "counsel", "compliance", "regulatory", "privacy"}},
	{"procurement", []string{"procurement", "purchasing", "sourcing", "vendor management"}},
	{"finance", []string{"finance", "financial", "accounting", "controller", "treasurer", "accounts payable", "fp a", "cfo"}},
	{"human resources", []string{"human resources", "hr", "people", "talent", "recruiting"}},
	{"information technology", []string{"information technology", "it", "helpdesk", "systems administrator"}},
	{"sales", []string{"sales", "revenue", "account executive", "account manager", "business development"}},
	{"marketing", []string{"marketing", "growth", "demand", "content", "brand", "communications"}},
	{"product", []string{"product", "ux", "ui", "design"}},
	{"engineering", []string{"engineering", "engineer", "developer", "software", "devops", "sre", "infrastructure"}},
	{"customer success", []string{"customer success", "support", "solutions", "implementation", "onboarding"}},
	{"operations", []string{"operations", "ops"}},
	{"executive", []string{"chief", "ceo", "cto", "coo", "cio", "president", "founder", "owner", "executive"}},
}

// DeriveDepartment infers a canonical department from title text, or
// returns empty when nothing matches.
func DeriveDepartment(title string) string {
	t := pad(company.Normalize(title))
	for _, rule := range departmentRules {
		if containsAny(t, rule.keywords...) {
			return rule.name
		}
	}
	return ""
}
