package model

// RiskLevel grades how likely the committee is to stall a deal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// GroupPriority grades how much attention the group deserves, from total
// influence and average decision power.
type GroupPriority string

const (
	PriorityHigh   GroupPriority = "high"
	PriorityMedium GroupPriority = "medium"
	PriorityLow    GroupPriority = "low"
)

// EngagementStrategy names the recommended motion for approaching the group.
type EngagementStrategy string

const (
	StrategyExecutiveSponsor     EngagementStrategy = "executive_sponsor"
	StrategyChampionLed          EngagementStrategy = "champion_led"
	StrategyBlockerMitigation    EngagementStrategy = "blocker_mitigation"
	StrategyStakeholderConsensus EngagementStrategy = "stakeholder_consensus"
)

// GroupDynamics summarizes how hard the committee will be to navigate.
type GroupDynamics struct {
	Cohesion           float64            `json:"cohesion"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	DecisionComplexity float64            `json:"decision_complexity"`
	Departments        int                `json:"departments"`
	Strategy           EngagementStrategy `json:"strategy"`
	Priority           GroupPriority      `json:"priority"`
}

// BuyerGroup is the assembled committee. TotalMembers always equals the sum
// of the per-role slices and never exceeds the profile's max size.
type BuyerGroup struct {
	Roles             map[Role][]RoleAssignment `json:"roles"`
	TotalMembers      int                       `json:"total_members"`
	OverallConfidence float64                   `json:"overall_confidence"`
	Dynamics          GroupDynamics             `json:"dynamics"`
}

// Members flattens the group in role-priority order. Within a role the
// slice order is preserved (score descending, then person ID).
func (g *BuyerGroup) Members() []RoleAssignment {
	var out []RoleAssignment
	for _, r := range AllRoles {
		out = append(out, g.Roles[r]...)
	}
	return out
}

// Count returns the number of members holding the given role.
func (g *BuyerGroup) Count(r Role) int {
	return len(g.Roles[r])
}
