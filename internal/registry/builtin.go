package registry

import "github.com/sells-group/buyergroup-cli/internal/model"

// builtins are the profiles shipped with the binary. File profiles with the
// same name shadow these.
var builtins = map[string]model.SellerProfile{
	"enterprise-saas": {
		Name:          "enterprise-saas",
		Description:   "Enterprise SaaS deals >= $200k ACV",
		DealSizeClass: "enterprise",
		RolePatterns: map[model.Role][]string{
			model.RoleDecision: {
				"chief executive officer", "ceo",
				"chief financial officer", "cfo",
				"chief information officer", "cio",
				"chief technology officer", "cto",
				"chief revenue officer", "cro",
				"chief operating officer", "coo",
				"president", "founder", "owner",
				"executive vice president", "evp",
				"general manager",
			},
			model.RoleChampion: {
				"senior vice president sales", "svp sales",
				"vp sales", "vice president sales",
				"vp revenue operations", "vp sales operations",
				"vp product", "vp engineering", "vp information technology",
				"head of sales", "head of revenue", "head of product",
				"director of sales", "sales director",
			},
			model.RoleStakeholder: {
				"director", "senior director",
				"senior manager", "manager",
				"revenue operations", "sales operations",
				"business operations", "program manager",
				"product manager", "engineering manager",
				"it manager", "systems administrator",
			},
			model.RoleBlocker: {
				"general counsel", "legal counsel", "legal",
				"procurement", "purchasing", "sourcing",
				"compliance", "risk",
				"chief information security officer", "ciso", "security",
				"controller", "finance director", "director of finance",
				"accounts payable",
			},
			model.RoleIntroducer: {
				"executive assistant", "assistant to",
				"chief of staff",
				"account executive", "account manager",
				"sales development representative", "business development representative",
				"office manager",
			},
		},
		TargetDepartments: []string{"sales", "executive", "information technology", "finance", "operations"},
		MinRoleTargets: map[model.Role]int{
			model.RoleDecision: 1,
			model.RoleChampion: 1,
			model.RoleBlocker:  1,
		},
		RoleCaps: map[model.Role]int{
			model.RoleDecision:    2,
			model.RoleChampion:    3,
			model.RoleStakeholder: 3,
			model.RoleBlocker:     2,
			model.RoleIntroducer:  1,
		},
		MaxBuyerGroupSize: 8,
	},

	"mid-market-saas": {
		Name:          "mid-market-saas",
		Description:   "Mid-market SaaS deals $25k-$200k ACV",
		DealSizeClass: "mid_market",
		RolePatterns: map[model.Role][]string{
			model.RoleDecision: {
				"ceo", "chief executive officer",
				"cfo", "chief financial officer",
				"president", "founder", "owner",
				"vp sales", "vice president sales",
				"general manager",
			},
			model.RoleChampion: {
				"head of sales", "sales director", "director of sales",
				"head of marketing", "head of operations",
				"sales manager", "revenue operations",
			},
			model.RoleStakeholder: {
				"manager", "senior manager", "team lead",
				"operations", "product manager",
			},
			model.RoleBlocker: {
				"finance", "controller", "legal", "procurement",
				"office administrator",
			},
			model.RoleIntroducer: {
				"executive assistant", "account executive",
				"sales development representative",
			},
		},
		TargetDepartments: []string{"sales", "executive", "operations", "finance"},
		MinRoleTargets: map[model.Role]int{
			model.RoleDecision: 1,
			model.RoleChampion: 1,
		},
		RoleCaps: map[model.Role]int{
			model.RoleDecision:    2,
			model.RoleChampion:    2,
			model.RoleStakeholder: 2,
			model.RoleBlocker:     1,
			model.RoleIntroducer:  1,
		},
		MaxBuyerGroupSize: 6,
	},
}
