package model

// Role is a negotiation role within a buying committee. Roles are tags:
// all behavior lives in lookup tables keyed by Role.
type Role string

const (
	RoleDecision    Role = "decision"
	RoleChampion    Role = "champion"
	RoleStakeholder Role = "stakeholder"
	RoleBlocker     Role = "blocker"
	RoleIntroducer  Role = "introducer"
)

// AllRoles lists every role in priority order: when two role scores tie,
// the earlier role wins.
var AllRoles = []Role{
	RoleDecision,
	RoleChampion,
	RoleStakeholder,
	RoleBlocker,
	RoleIntroducer,
}

// Priority returns the tie-break rank of the role; lower is stronger.
// Unknown roles sort last.
func (r Role) Priority() int {
	for i, known := range AllRoles {
		if r == known {
			return i
		}
	}
	return len(AllRoles)
}

// Valid reports whether r is one of the closed role set.
func (r Role) Valid() bool {
	return r.Priority() < len(AllRoles)
}

// SeniorityLevel is an ordered rank derived from title text.
type SeniorityLevel int

const (
	SeniorityIC SeniorityLevel = iota
	SeniorityManager
	SeniorityDirector
	SenioritySeniorDirector
	SeniorityVP
	SenioritySVP
	SeniorityCLevel
)

var seniorityNames = map[SeniorityLevel]string{
	SeniorityIC:             "ic",
	SeniorityManager:        "manager",
	SeniorityDirector:       "director",
	SenioritySeniorDirector: "senior_director",
	SeniorityVP:             "vp",
	SenioritySVP:            "svp",
	SeniorityCLevel:         "c_level",
}

func (s SeniorityLevel) String() string {
	if name, ok := seniorityNames[s]; ok {
		return name
	}
	return "unknown"
}

// Band groups seniority levels into the coarse tiers used for influence
// bonuses and engagement strategy.
func (s SeniorityLevel) Band() SeniorityBand {
	switch {
	case s >= SeniorityCLevel:
		return BandExecutive
	case s >= SeniorityVP:
		return BandSeniorLeadership
	case s >= SeniorityManager:
		return BandMidLevel
	default:
		return BandIC
	}
}

// SeniorityBand is the coarse grouping of seniority levels.
type SeniorityBand string

const (
	BandExecutive        SeniorityBand = "executive"
	BandSeniorLeadership SeniorityBand = "senior_leadership"
	BandMidLevel         SeniorityBand = "mid_level"
	BandIC               SeniorityBand = "individual_contributor"
)
