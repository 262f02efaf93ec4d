package identify

import (
	"strings"

	"github.com/sells-group/buyergroup-cli/internal/company"
	"github.com/sells-group/buyergroup-cli/internal/model"
)

// overrideRule forces a role no matter what the pattern score says. Rules
// run in order and the first hit wins.
type overrideRule struct {
	name string
	role model.Role
	test func(padded string) bool
}

// regionalScopes are the territory qualifiers that mark a VP or Director as
// a regional owner rather than a budget holder.
var regionalScopes = []string{
	"canada", "anz", "emea", "apac", "latam", "latin america",
	"asia pacific", "nordics", "benelux", "dach", "uk ireland", "japan",
}

// processScopes mark a leadership title as process or program flavored.
// Sales and revenue operations stay out of this list: those own the tooling
// budget champions control.
var processScopes = []string{
	"enablement", "program management", "business operations", "shared services",
}

// frontLineScopes mark an individual seller working a patch, not a buyer.
var frontLineScopes = []string{
	"territory", "outside sales", "field sales", "inside sales",
	"sales representative", "account representative",
}

var overrides = []overrideRule{
	{
		// Privileged calendar access, not a decision role.
		name: "executive_assistant",
		role: model.RoleIntroducer,
		test: func(t string) bool {
			return hasAny(t, "executive assistant", "personal assistant",
				"administrative assistant") || strings.Contains(t, " assistant to ")
		},
	},
	{
		name: "front_line_seller",
		role: model.RoleIntroducer,
		test: func(t string) bool {
			return hasAny(t, frontLineScopes...)
		},
	},
	{
		// Regional VPs own a territory number, not the purchase budget.
		name: "regional_scope",
		role: model.RoleStakeholder,
		test: func(t string) bool {
			return isLeadership(t) && hasAny(t, regionalScopes...)
		},
	},
	{
		name: "process_scope",
		role: model.RoleStakeholder,
		test: func(t string) bool {
			return isLeadership(t) && hasAny(t, processScopes...)
		},
	},
}

func hasAny(padded string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, pad(p)) {
			return true
		}
	}
	return false
}

// isLeadership reports a VP or Director rank title. The scope overrides
// only demote leadership titles; everyone else already sits below the
// budget line.
func isLeadership(padded string) bool {
	return hasAny(padded, "vp", "vice president", "svp", "evp", "director", "head of")
}

// overrideRole returns the forced role for a title, if any rule fires.
func overrideRole(title string) (model.Role, string, bool) {
	t := pad(company.Normalize(title))
	for _, rule := range overrides {
		if rule.test(t) {
			return rule.role, rule.name, true
		}
	}
	return "", "", false
}
