package model

import "time"

// SellerProfile is the immutable configuration describing one sales motion:
// which titles map to which roles, which departments matter, and how large
// the assembled group may grow. Loaded by name from the registry and never
// mutated at runtime.
type SellerProfile struct {
	Name              string            `json:"name" yaml:"name"`
	Description       string            `json:"description,omitempty" yaml:"description,omitempty"`
	DealSizeClass     string            `json:"deal_size_class" yaml:"deal_size_class"`
	RolePatterns      map[Role][]string `json:"role_patterns" yaml:"role_patterns"`
	TargetDepartments []string          `json:"target_departments" yaml:"target_departments"`
	CompanyAliases    []string          `json:"company_aliases,omitempty" yaml:"company_aliases,omitempty"`
	MinRoleTargets    map[Role]int      `json:"min_role_targets" yaml:"min_role_targets"`
	RoleCaps          map[Role]int      `json:"role_caps" yaml:"role_caps"`
	MaxBuyerGroupSize int               `json:"max_buyer_group_size" yaml:"max_buyer_group_size"`
}

// Experience is one job entry on a collected profile.
type Experience struct {
	Company    string     `json:"company"`
	Title      string     `json:"title"`
	Department string     `json:"department,omitempty"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	Current    bool       `json:"current"`
}

// PersonProfile is one person as returned by the provider, plus the
// canonical fields the analyzer derives. Owned by a single pipeline run;
// never persisted by the engine itself.
type PersonProfile struct {
	ID              string       `json:"id"`
	FullName        string       `json:"full_name"`
	LinkedInURL     string       `json:"linkedin_url,omitempty"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone,omitempty"`
	Location        string       `json:"location,omitempty"`
	Connections     int          `json:"connections,omitempty"`
	Recommendations int          `json:"recommendations,omitempty"`
	Experience      []Experience `json:"experience"`

	// Derived by the analyzer.
	CurrentTitle      string         `json:"current_title,omitempty"`
	CurrentDepartment string         `json:"current_department,omitempty"`
	CurrentCompany    string         `json:"current_company,omitempty"`
	Seniority         SeniorityLevel `json:"seniority"`
	TenureMonths      int            `json:"tenure_months,omitempty"`
}

// RoleAssignment records why one person landed in one role. Rationale is a
// human-readable audit trail: which pattern matched, which override fired,
// how the score decomposed.
type RoleAssignment struct {
	PersonID       string   `json:"person_id"`
	FullName       string   `json:"full_name"`
	Title          string   `json:"title"`
	Department     string   `json:"department,omitempty"`
	LinkedInURL    string   `json:"linkedin_url,omitempty"`
	Email          string   `json:"email,omitempty"`
	Role           Role     `json:"role"`
	Score          float64  `json:"score"`
	Confidence     float64  `json:"confidence"`
	InfluenceScore float64  `json:"influence_score"`
	DecisionPower  float64  `json:"decision_power"`
	Rationale      []string `json:"rationale"`
}
