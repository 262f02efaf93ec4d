package identify

import (
	"math"
	"strings"

	"github.com/sells-group/buyergroup-cli/internal/model"
)

// adjacentDepartments maps each canonical department to the departments it
// borders organizationally. A candidate outside the target departments still
// earns half credit when their department borders a targeted one.
var adjacentDepartments = map[string][]string{
	"sales":                  {"marketing", "customer success", "operations"},
	"marketing":              {"sales", "product"},
	"executive":              {"operations", "finance"},
	"finance":                {"operations", "legal", "procurement", "executive"},
	"operations":             {"sales", "finance", "executive"},
	"information technology": {"engineering", "security", "operations"},
	"engineering":            {"product", "information technology"},
	"product":                {"engineering", "marketing"},
	"legal":                  {"finance", "procurement"},
	"procurement":            {"finance", "legal", "operations"},
	"security":               {"information technology", "engineering"},
	"human resources":        {"operations"},
	"customer success":       {"sales"},
}

// scoreSeniority maps the ordered seniority scale onto 0..1. SVP scores
// strictly above VP, which scores strictly above Director, and the gap
// feeds straight into the composite.
func scoreSeniority(s model.SeniorityLevel) float64 {
	return float64(s) / float64(model.SeniorityCLevel)
}

// scoreDepartment returns 1.0 for a targeted department, 0.5 for a
// department adjacent to a target, and 0 otherwise.
func scoreDepartment(dept string, targets []string) float64 {
	if dept == "" || len(targets) == 0 {
		return 0
	}
	for _, t := range targets {
		if strings.EqualFold(t, dept) {
			return 1.0
		}
	}
	for _, adj := range adjacentDepartments[dept] {
		for _, t := range targets {
			if strings.EqualFold(t, adj) {
				return 0.5
			}
		}
	}
	return 0
}

// scoreTenure returns 0..1, saturating at five years in the current job.
func scoreTenure(months int) float64 {
	if months <= 0 {
		return 0
	}
	return math.Min(float64(months)/60.0, 1.0)
}

// influenceScore estimates organizational reach on a 0-10 scale from
// seniority band, network size, and peer recommendations.
func influenceScore(p *model.PersonProfile) float64 {
	var s float64
	switch p.Seniority.Band() {
	case model.BandExecutive:
		s = 5.0
	case model.BandSeniorLeadership:
		s = 3.0
	case model.BandMidLevel:
		s = 1.5
	default:
		s = 0.5
	}
	s += math.Min(float64(p.Connections)/200.0, 3.0)
	s += math.Min(float64(p.Recommendations)*0.5, 2.0)
	return round2(math.Min(s, 10.0))
}

var seniorityPower = map[model.SeniorityLevel]float64{
	model.SeniorityCLevel:         0.4,
	model.SenioritySVP:            0.35,
	model.SeniorityVP:             0.3,
	model.SenioritySeniorDirector: 0.25,
	model.SeniorityDirector:       0.2,
	model.SeniorityManager:        0.1,
}

var departmentPower = map[string]float64{
	"executive":              0.3,
	"sales":                  0.25,
	"product":                0.2,
	"finance":                0.2,
	"engineering":            0.15,
	"marketing":              0.15,
	"information technology": 0.15,
	"operations":             0.1,
	"security":               0.1,
	"human resources":        0.05,
	"legal":                  0.05,
	"procurement":            0.05,
	"customer success":       0.05,
}

// decisionPower estimates budget authority on a 0-1 scale: seniority sets
// the base and the department shifts it. A CEO lands at 0.7, a sales VP at
// 0.55, an IC near zero.
func decisionPower(p *model.PersonProfile) float64 {
	power := seniorityPower[p.Seniority] + departmentPower[p.CurrentDepartment]
	return round2(math.Min(power, 1.0))
}

// confidence grades how sure the classifier is about one assignment. Title
// evidence dominates; a known department and senior rank firm it up. Capped
// at 0.95: title text alone never proves a role.
func confidence(p *model.PersonProfile, tier MatchTier) float64 {
	conf := 0.5 + 0.3*tier.Strength()
	if p.CurrentDepartment != "" {
		conf += 0.1
	}
	if p.Seniority >= model.SeniorityVP {
		conf += 0.05
	}
	return round2(math.Min(conf, 0.95))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
