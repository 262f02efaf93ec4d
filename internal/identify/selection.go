package identify

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// SelectGroup assembles the final buyer group: candidates are bucketed by
// their best role, each bucket is filled up to its cap inside the overall
// size limit, then a single rebalancing pass pulls candidates from adjacent
// roles toward any minimum target still unmet. Roles below minimum after
// rebalancing come back as role_gap warnings, never as errors.
func (c *Classifier) SelectGroup(cands []Candidate) (model.BuyerGroup, []string) {
	buckets := make(map[model.Role][]Candidate)
	for _, cand := range cands {
		if !cand.Classifiable() {
			continue
		}
		buckets[cand.Best] = append(buckets[cand.Best], cand)
	}
	for _, role := range model.AllRoles {
		sortForRole(buckets[role], role)
	}

	maxSize := c.profile.MaxBuyerGroupSize
	selected := make(map[model.Role][]Candidate)
	picked := make(map[string]bool)
	total := 0

	for _, role := range model.AllRoles {
		limit := c.profile.RoleCaps[role]
		for _, cand := range buckets[role] {
			if maxSize > 0 && total >= maxSize {
				break
			}
			if limit > 0 && len(selected[role]) >= limit {
				break
			}
			if picked[cand.Person.ID] {
				continue
			}
			selected[role] = append(selected[role], cand)
			picked[cand.Person.ID] = true
			total++
		}
	}

	// One rebalancing pass. A person moves at most once and a donor role
	// never drops below its own minimum, so the pass cannot oscillate.
	notes := make(map[string]string)
	moved := make(map[string]bool)
	for _, role := range model.AllRoles {
		minimum := c.profile.MinRoleTargets[role]
		for len(selected[role]) < minimum {
			if limit := c.profile.RoleCaps[role]; limit > 0 && len(selected[role]) >= limit {
				break
			}
			mv, ok := c.bestMover(role, buckets, selected, picked, moved, maxSize, total)
			if !ok {
				break
			}
			if mv.selectedNow {
				selected[mv.from] = removeByID(selected[mv.from], mv.cand.Person.ID)
			} else {
				picked[mv.cand.Person.ID] = true
				total++
			}
			selected[role] = append(selected[role], mv.cand)
			moved[mv.cand.Person.ID] = true
			notes[mv.cand.Person.ID] = fmt.Sprintf("rebalanced from %s to %s to meet minimum", mv.from, role)
		}
	}

	var warnings []string
	for _, role := range model.AllRoles {
		if minimum := c.profile.MinRoleTargets[role]; minimum > 0 && len(selected[role]) < minimum {
			warnings = append(warnings, model.RoleGapWarning(role))
		}
	}

	group := model.BuyerGroup{Roles: make(map[model.Role][]model.RoleAssignment)}
	var confSum float64
	for _, role := range model.AllRoles {
		members := selected[role]
		if len(members) == 0 {
			continue
		}
		sortForRole(members, role)
		for _, cand := range members {
			asg := c.assignment(cand, role)
			if note := notes[cand.Person.ID]; note != "" {
				asg.Rationale = append(asg.Rationale, note)
			}
			group.Roles[role] = append(group.Roles[role], asg)
			confSum += asg.Confidence
		}
		group.TotalMembers += len(members)
	}

	if group.TotalMembers > 0 {
		group.OverallConfidence = round2(confSum / float64(group.TotalMembers) * c.coverageFactor(selected))
	}
	group.Dynamics = c.dynamics(&group)

	zap.L().Info("identify: buyer group assembled",
		zap.Int("candidates", len(cands)),
		zap.Int("members", group.TotalMembers),
		zap.Int("role_gaps", len(warnings)),
	)

	return group, warnings
}

// assignment freezes one candidate into a role assignment at their final
// role. The score is the composite for that role, not for the candidate's
// original best role.
func (c *Classifier) assignment(cand Candidate, role model.Role) model.RoleAssignment {
	p := cand.Person
	rs := cand.RoleScores[role]
	rationale := append([]string(nil), rs.Rationale...)
	return model.RoleAssignment{
		PersonID:       p.ID,
		FullName:       p.FullName,
		Title:          p.CurrentTitle,
		Department:     p.CurrentDepartment,
		LinkedInURL:    p.LinkedInURL,
		Email:          p.Email,
		Role:           role,
		Score:          rs.Score,
		Confidence:     confidence(p, rs.Tier),
		InfluenceScore: influenceScore(p),
		DecisionPower:  decisionPower(p),
		Rationale:      rationale,
	}
}

type mover struct {
	cand        Candidate
	from        model.Role
	selectedNow bool
}

// bestMover finds the strongest eligible candidate in a role adjacent to
// the gap role: an unselected candidate when the group has room, or a
// selected member whose current role sits above its own minimum. Eligible
// means real title evidence for the gap role, not just a high composite.
func (c *Classifier) bestMover(gap model.Role, buckets, selected map[model.Role][]Candidate, picked, moved map[string]bool, maxSize, total int) (mover, bool) {
	var movers []mover
	for _, adj := range adjacentRoles(gap) {
		if maxSize <= 0 || total < maxSize {
			for _, cand := range buckets[adj] {
				if picked[cand.Person.ID] || moved[cand.Person.ID] {
					continue
				}
				if cand.RoleScores[gap].Tier == TierNone {
					continue
				}
				movers = append(movers, mover{cand: cand, from: adj})
			}
		}
		if len(selected[adj]) > c.profile.MinRoleTargets[adj] {
			for _, cand := range selected[adj] {
				if moved[cand.Person.ID] {
					continue
				}
				if cand.RoleScores[gap].Tier == TierNone {
					continue
				}
				movers = append(movers, mover{cand: cand, from: adj, selectedNow: true})
			}
		}
	}
	if len(movers) == 0 {
		return mover{}, false
	}

	sort.Slice(movers, func(i, j int) bool {
		si := movers[i].cand.RoleScores[gap].Score
		sj := movers[j].cand.RoleScores[gap].Score
		if si != sj {
			return si > sj
		}
		return movers[i].cand.Person.ID < movers[j].cand.Person.ID
	})
	return movers[0], true
}

// adjacentRoles returns the neighbors of a role in the priority order.
func adjacentRoles(r model.Role) []model.Role {
	var out []model.Role
	for i, known := range model.AllRoles {
		if known != r {
			continue
		}
		if i > 0 {
			out = append(out, model.AllRoles[i-1])
		}
		if i+1 < len(model.AllRoles) {
			out = append(out, model.AllRoles[i+1])
		}
	}
	return out
}

// coverageFactor scales overall confidence by the share of minimum role
// targets the group satisfies.
func (c *Classifier) coverageFactor(selected map[model.Role][]Candidate) float64 {
	var want, have int
	for _, role := range model.AllRoles {
		minimum := c.profile.MinRoleTargets[role]
		if minimum <= 0 {
			continue
		}
		want++
		if len(selected[role]) >= minimum {
			have++
		}
	}
	if want == 0 {
		return 1.0
	}
	return float64(have) / float64(want)
}

// sortForRole orders candidates by their score for the given role,
// descending, then by person ID. IDs are unique, so the order is total and
// collect completion order can never leak into the result.
func sortForRole(cands []Candidate, role model.Role) {
	sort.Slice(cands, func(i, j int) bool {
		si := cands[i].RoleScores[role].Score
		sj := cands[j].RoleScores[role].Score
		if si != sj {
			return si > sj
		}
		return cands[i].Person.ID < cands[j].Person.ID
	})
}

func removeByID(cands []Candidate, id string) []Candidate {
	out := cands[:0]
	for _, cand := range cands {
		if cand.Person.ID != id {
			out = append(out, cand)
		}
	}
	return out
}
