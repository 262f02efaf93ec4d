package identify

import (
	"fmt"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// Weights are the component weights of the composite role score. They are
// strategy configuration, not constants: a caller can rebalance the mix per
// sales motion. Scores are normalized by the weight sum, so only the ratios
// matter.
type Weights struct {
	Seniority  float64 `json:"seniority"`
	Department float64 `json:"department"`
	Pattern    float64 `json:"pattern"`
	Tenure     float64 `json:"tenure"`
}

// DefaultWeights favor title evidence and seniority, with department fit
// and tenure as secondary signals.
func DefaultWeights() Weights {
	return Weights{Seniority: 0.35, Department: 0.20, Pattern: 0.35, Tenure: 0.10}
}

func (w Weights) sum() float64 {
	return w.Seniority + w.Department + w.Pattern + w.Tenure
}

// RoleScore is one candidate's fit for one role.
type RoleScore struct {
	Score     float64
	Tier      MatchTier
	Pattern   string
	Rationale []string
}

// Candidate pairs an analyzed profile with its scores for every role. Best
// is the assigned role: highest composite score among pattern-backed roles,
// ties broken by role priority, overrides applied last. Empty when no
// pattern matched and no override fired.
type Candidate struct {
	Person     *model.PersonProfile
	RoleScores map[model.Role]RoleScore
	Best       model.Role
	Override   string
}

// Classifiable reports whether the candidate carries enough title evidence
// to hold any role.
func (c Candidate) Classifiable() bool {
	return c.Best != ""
}

// Classifier scores candidates against one seller profile's role patterns
// and assembles the buyer group.
type Classifier struct {
	profile model.SellerProfile
	weights Weights
}

// Option customizes a Classifier.
type Option func(*Classifier)

// WithWeights overrides the composite score weights.
func WithWeights(w Weights) Option {
	return func(c *Classifier) {
		if w.sum() > 0 {
			c.weights = w
		}
	}
}

// NewClassifier creates a classifier for the given seller profile.
func NewClassifier(profile model.SellerProfile, opts ...Option) *Classifier {
	c := &Classifier{profile: profile, weights: DefaultWeights()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify scores one analyzed profile against every role. The candidate
// keeps its full per-role breakdown so selection can rebalance later.
func (c *Classifier) Classify(p *model.PersonProfile) Candidate {
	cand := Candidate{
		Person:     p,
		RoleScores: make(map[model.Role]RoleScore, len(model.AllRoles)),
	}

	best := model.Role("")
	bestScore := -1.0
	for _, role := range model.AllRoles {
		tier, pattern := BestMatch(p.CurrentTitle, c.profile.RolePatterns[role])
		rs := c.roleScore(p, tier, pattern)
		cand.RoleScores[role] = rs
		if tier == TierNone {
			continue
		}
		// Strictly greater: on a tie the earlier, higher-priority role keeps
		// the assignment.
		if rs.Score > bestScore {
			best, bestScore = role, rs.Score
		}
	}
	cand.Best = best

	if role, name, ok := overrideRole(p.CurrentTitle); ok {
		rs := cand.RoleScores[role]
		rs.Rationale = append(rs.Rationale, "override: "+name)
		cand.RoleScores[role] = rs
		cand.Best = role
		cand.Override = name
	}

	return cand
}

// roleScore computes the composite score for one role from seniority,
// department fit, pattern strength, and tenure, normalized by the weight
// sum. The rationale records which signal contributed what.
func (c *Classifier) roleScore(p *model.PersonProfile, tier MatchTier, pattern string) RoleScore {
	sen := scoreSeniority(p.Seniority)
	dept := scoreDepartment(p.CurrentDepartment, c.profile.TargetDepartments)
	pat := tier.Strength()
	ten := scoreTenure(p.TenureMonths)

	w := c.weights
	total := sen*w.Seniority + dept*w.Department + pat*w.Pattern + ten*w.Tenure
	if s := w.sum(); s > 0 {
		total /= s
	}

	var rationale []string
	if tier != TierNone {
		rationale = append(rationale, fmt.Sprintf("matched %q (%s)", pattern, tier))
	}
	rationale = append(rationale, fmt.Sprintf("seniority %s", p.Seniority))
	switch {
	case dept >= 1.0:
		rationale = append(rationale, fmt.Sprintf("department %s is targeted", p.CurrentDepartment))
	case dept > 0:
		rationale = append(rationale, fmt.Sprintf("department %s borders a target", p.CurrentDepartment))
	}

	return RoleScore{
		Score:     round4(total),
		Tier:      tier,
		Pattern:   pattern,
		Rationale: rationale,
	}
}

// MinTargetsMet reports whether every minimum role target is already
// satisfied by the classified candidates. Used by cost_first early stop to
// skip remaining collects. A profile without minimums never reports met, so
// early stop cannot fire on a trivially empty requirement.
func (c *Classifier) MinTargetsMet(cands []Candidate) bool {
	if len(c.profile.MinRoleTargets) == 0 {
		return false
	}
	counts := make(map[model.Role]int)
	for _, cand := range cands {
		if cand.Classifiable() {
			counts[cand.Best]++
		}
	}
	met := false
	for role, minimum := range c.profile.MinRoleTargets {
		if minimum <= 0 {
			continue
		}
		met = true
		if counts[role] < minimum {
			return false
		}
	}
	return met
}
