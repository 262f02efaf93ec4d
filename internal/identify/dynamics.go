package identify

import (
	"math"
	"strings"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// authorityThresholds is the minimum decision power a Decision member must
// carry to credibly approve a deal of the given size class.
var authorityThresholds = map[string]float64{
	"smb":        0.4,
	"mid_market": 0.5,
	"enterprise": 0.6,
	"strategic":  0.7,
}

const defaultAuthorityThreshold = 0.5

func authorityThreshold(dealSizeClass string) float64 {
	if t, ok := authorityThresholds[dealSizeClass]; ok {
		return t
	}
	return defaultAuthorityThreshold
}

// dynamics derives committee-level metrics from the assembled group.
// Cohesion is the share of members inside the target departments. Risk
// escalates once for a missing blocker and once for a decision bench with
// no real authority; both at once means high risk.
func (c *Classifier) dynamics(g *model.BuyerGroup) model.GroupDynamics {
	members := g.Members()

	deptSet := make(map[string]bool)
	inTarget := 0
	for _, m := range members {
		if m.Department != "" {
			deptSet[m.Department] = true
		}
		if departmentTargeted(m.Department, c.profile.TargetDepartments) {
			inTarget++
		}
	}

	d := model.GroupDynamics{Departments: len(deptSet)}
	if len(members) > 0 {
		d.Cohesion = round2(float64(inTarget) / float64(len(members)))
		d.DecisionComplexity = round2(math.Min(
			float64(len(members))*0.08+float64(len(deptSet))*0.12, 1.0))
	}

	threshold := authorityThreshold(c.profile.DealSizeClass)
	hasAuthority := false
	for _, m := range g.Roles[model.RoleDecision] {
		if m.DecisionPower >= threshold {
			hasAuthority = true
			break
		}
	}

	escalations := 0
	if g.Count(model.RoleBlocker) == 0 {
		escalations++
	}
	if !hasAuthority {
		escalations++
	}
	switch escalations {
	case 0:
		d.RiskLevel = model.RiskLow
	case 1:
		d.RiskLevel = model.RiskMedium
	default:
		d.RiskLevel = model.RiskHigh
	}

	d.Strategy = strategyFor(g, hasAuthority)
	d.Priority = groupPriority(members)
	return d
}

// strategyFor picks the engagement motion: ride the executive sponsor when
// one holds real authority, lead with champions when they outnumber
// blockers, defuse blockers when two or more hold seats, otherwise build
// consensus among stakeholders.
func strategyFor(g *model.BuyerGroup, hasAuthority bool) model.EngagementStrategy {
	switch {
	case hasAuthority && g.Count(model.RoleDecision) > 0:
		return model.StrategyExecutiveSponsor
	case g.Count(model.RoleChampion) > g.Count(model.RoleBlocker):
		return model.StrategyChampionLed
	case g.Count(model.RoleBlocker) >= 2:
		return model.StrategyBlockerMitigation
	default:
		return model.StrategyStakeholderConsensus
	}
}

func groupPriority(members []model.RoleAssignment) model.GroupPriority {
	if len(members) == 0 {
		return model.PriorityLow
	}
	var influence, power float64
	for _, m := range members {
		influence += m.InfluenceScore
		power += m.DecisionPower
	}
	avgPower := power / float64(len(members))
	switch {
	case influence >= 24 && avgPower >= 0.4:
		return model.PriorityHigh
	case influence >= 12 && avgPower >= 0.25:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

func departmentTargeted(dept string, targets []string) bool {
	if dept == "" {
		return false
	}
	for _, t := range targets {
		if strings.EqualFold(t, dept) {
			return true
		}
	}
	return false
}
