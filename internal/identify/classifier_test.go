package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buyergroup-cli/internal/analyze"
	"github.com/sells-group/buyergroup-cli/internal/model"
	"github.com/sells-group/buyergroup-cli/internal/registry"
)

func enterpriseProfile(t *testing.T) model.SellerProfile {
	t.Helper()
	p, err := registry.New("").Load("enterprise-saas")
	require.NoError(t, err)
	return *p
}

// analyzed builds a profile the way the analyzer would hand it over.
func analyzed(id, name, title string) *model.PersonProfile {
	return &model.PersonProfile{
		ID:                id,
		FullName:          name,
		CurrentTitle:      title,
		CurrentCompany:    "Dell Technologies",
		CurrentDepartment: analyze.DeriveDepartment(title),
		Seniority:         analyze.DeriveSeniority(title),
	}
}

func TestClassifyDecisionMaker(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))
	cand := c.Classify(analyzed("p1", "Morgan Reyes", "Chief Financial Officer"))

	require.True(t, cand.Classifiable())
	assert.Equal(t, model.RoleDecision, cand.Best)
	assert.Equal(t, TierExact, cand.RoleScores[model.RoleDecision].Tier)
	assert.GreaterOrEqual(t, cand.RoleScores[model.RoleDecision].Score, 0.85)
	assert.Contains(t, cand.RoleScores[model.RoleDecision].Rationale,
		`matched "chief financial officer" (exact)`)
}

func TestClassifyChampion(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))
	cand := c.Classify(analyzed("p2", "Ada Morgan", "VP Sales"))

	assert.Equal(t, model.RoleChampion, cand.Best)
	assert.Equal(t, TierExact, cand.RoleScores[model.RoleChampion].Tier)
	assert.Equal(t, TierNone, cand.RoleScores[model.RoleDecision].Tier,
		"a plain VP must not satisfy the bare president pattern")
}

// An SVP and a VP with otherwise identical profiles both land Champion,
// but the SVP's score is strictly higher.
func TestSVPOutscoresVP(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))
	svp := c.Classify(analyzed("a1", "", "Senior Vice President of Sales"))
	vp := c.Classify(analyzed("a2", "", "Vice President of Sales"))

	require.Equal(t, model.RoleChampion, svp.Best)
	require.Equal(t, model.RoleChampion, vp.Best)
	assert.Greater(t,
		svp.RoleScores[model.RoleChampion].Score,
		vp.RoleScores[model.RoleChampion].Score)
}

// The assistant override wins even when the title text carries C-level
// tokens with an exact Decision pattern hit.
func TestExecutiveAssistantAlwaysIntroducer(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))
	cand := c.Classify(analyzed("p3", "Lee Park", "Executive Assistant to the CEO"))

	assert.Equal(t, TierExact, cand.RoleScores[model.RoleDecision].Tier,
		"the ceo token does hit a Decision pattern")
	assert.Equal(t, model.RoleIntroducer, cand.Best)
	assert.Equal(t, "executive_assistant", cand.Override)
	assert.Contains(t, cand.RoleScores[model.RoleIntroducer].Rationale,
		"override: executive_assistant")
}

func TestRegionalVPForcedStakeholder(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))

	for _, title := range []string{"VP Sales, EMEA", "Director of Sales, ANZ", "Vice President, Canada Sales"} {
		cand := c.Classify(analyzed("p4", "", title))
		assert.Equal(t, model.RoleStakeholder, cand.Best, "title %q", title)
		assert.Equal(t, "regional_scope", cand.Override, "title %q", title)
	}
}

func TestFrontLineSellerForcedIntroducer(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))

	for _, title := range []string{"Territory Sales Manager", "Outside Sales Representative", "Field Sales Executive"} {
		cand := c.Classify(analyzed("p5", "", title))
		require.True(t, cand.Classifiable(), "title %q", title)
		assert.Equal(t, model.RoleIntroducer, cand.Best, "title %q", title)
	}
}

func TestCISOClassifiesBlocker(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))
	cand := c.Classify(analyzed("p6", "", "Chief Information Security Officer"))

	assert.Equal(t, model.RoleBlocker, cand.Best)
	assert.Equal(t, TierExact, cand.RoleScores[model.RoleBlocker].Tier)
}

// Equal composite scores fall back to role priority: Stakeholder outranks
// Blocker, so a procurement director parks as Stakeholder until selection
// rebalances.
func TestTieBreakPrefersHigherPriorityRole(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))
	cand := c.Classify(analyzed("p7", "", "Director of Procurement"))

	require.Equal(t, TierExact, cand.RoleScores[model.RoleStakeholder].Tier)
	require.Equal(t, TierExact, cand.RoleScores[model.RoleBlocker].Tier)
	assert.Equal(t,
		cand.RoleScores[model.RoleStakeholder].Score,
		cand.RoleScores[model.RoleBlocker].Score)
	assert.Equal(t, model.RoleStakeholder, cand.Best)
}

func TestUnclassifiableCandidate(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))
	cand := c.Classify(analyzed("p8", "", "Software Engineer"))

	assert.False(t, cand.Classifiable())
	assert.Empty(t, cand.Best)
}

func TestClassifyWeightsConfigurable(t *testing.T) {
	t.Parallel()

	// All weight on the pattern component: seniority stops mattering.
	c := NewClassifier(enterpriseProfile(t), WithWeights(Weights{Pattern: 1}))
	ceo := c.Classify(analyzed("w1", "", "Chief Executive Officer"))
	assert.Equal(t, model.RoleDecision, ceo.Best)
	assert.InDelta(t, 1.0, ceo.RoleScores[model.RoleDecision].Score, 0.0001)
}

func TestMinTargetsMet(t *testing.T) {
	t.Parallel()

	c := NewClassifier(enterpriseProfile(t))

	cands := []Candidate{
		c.Classify(analyzed("m1", "", "Chief Financial Officer")),
		c.Classify(analyzed("m2", "", "VP Sales")),
	}
	assert.False(t, c.MinTargetsMet(cands), "blocker minimum still open")

	cands = append(cands, c.Classify(analyzed("m3", "", "General Counsel")))
	assert.True(t, c.MinTargetsMet(cands))

	empty := NewClassifier(model.SellerProfile{})
	assert.False(t, empty.MinTargetsMet(cands), "no minimums means early stop never fires")
}
