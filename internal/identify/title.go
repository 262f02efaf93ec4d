// Package identify classifies analyzed profiles into negotiation roles,
// scores them, and assembles the final buyer group.
package identify

import (
	"strings"

	"github.com/sells-group/buyergroup-cli/internal/company"
)

// MatchTier ranks how a title satisfied a role pattern. Tiers are tried
// strongest first and the first hit wins.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierWordSet
	TierAbbrev
	TierNormalized
	TierExact
)

var tierNames = map[MatchTier]string{
	TierNone:       "none",
	TierWordSet:    "word_set",
	TierAbbrev:     "abbrev",
	TierNormalized: "normalized",
	TierExact:      "exact",
}

func (t MatchTier) String() string {
	if n, ok := tierNames[t]; ok {
		return n
	}
	return "none"
}

// Strength converts the tier into the pattern component of the composite
// score. Exact substring evidence is worth more than an order-independent
// word overlap.
func (t MatchTier) Strength() float64 {
	switch t {
	case TierExact:
		return 1.0
	case TierNormalized:
		return 0.85
	case TierAbbrev:
		return 0.75
	case TierWordSet:
		return 0.6
	default:
		return 0
	}
}

// abbreviations expand short tokens to their long form. Expansion runs on
// both titles and patterns, so matching works in either direction.
var abbreviations = map[string]string{
	"vp":   "vice president",
	"svp":  "senior vice president",
	"evp":  "executive vice president",
	"avp":  "assistant vice president",
	"sr":   "senior",
	"jr":   "junior",
	"ceo":  "chief executive officer",
	"cfo":  "chief financial officer",
	"cto":  "chief technology officer",
	"cio":  "chief information officer",
	"coo":  "chief operating officer",
	"cmo":  "chief marketing officer",
	"cro":  "chief revenue officer",
	"ciso": "chief information security officer",
	"gm":   "general manager",
	"it":   "information technology",
	"hr":   "human resources",
	"sdr":  "sales development representative",
	"bdr":  "business development representative",
}

// svpFamily lists the senior/executive VP phrasings, longest first so the
// long forms are masked before their tokens.
var svpFamily = []string{
	"executive vice president",
	"senior vice president",
	"sr vice president",
	"senior vp",
	"sr vp",
	"svp",
	"evp",
}

// vpFamily extends svpFamily with the plain forms; used to mask bare
// "president" patterns.
var vpFamily = append(append([]string{}, svpFamily...), "vice president", "vp")

func pad(s string) string {
	return " " + s + " "
}

// containsPhrase reports a word-boundary substring hit on normalized text.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(pad(text), pad(phrase))
}

// expandAbbreviations rewrites each known short token to its long form.
// Input must already be normalized.
func expandAbbreviations(s string) string {
	words := strings.Fields(s)
	out := make([]string, 0, len(words))
	for _, w := range words {
		if long, ok := abbreviations[w]; ok {
			out = append(out, long)
			continue
		}
		out = append(out, w)
	}
	return strings.Join(out, " ")
}

// maskSpans blanks every occurrence of the given phrases so later checks
// cannot re-claim their tokens. Spans must be ordered longest first.
func maskSpans(text string, spans []string) string {
	padded := pad(text)
	for _, span := range spans {
		padded = strings.ReplaceAll(padded, pad(span), " # ")
	}
	return strings.TrimSpace(padded)
}

// isPlainVP reports whether a normalized pattern targets the plain VP
// family. Senior/executive qualifiers take it out of the plain family.
func isPlainVP(p string) bool {
	padded := pad(p)
	if !strings.Contains(padded, " vp ") && !strings.Contains(padded, " vice president ") {
		return false
	}
	for _, q := range []string{" svp ", " evp ", " senior ", " sr ", " executive ", " assistant "} {
		if strings.Contains(padded, q) {
			return false
		}
	}
	return true
}

// isBarePresident reports whether a normalized pattern means the president
// title itself rather than a vice president.
func isBarePresident(p string) bool {
	padded := pad(p)
	return strings.Contains(padded, " president ") && !strings.Contains(padded, " vice ")
}

// MatchTitle tests a title against one role pattern and returns the
// strongest tier that hit. Four tiers run in order: exact substring on the
// lower-cased title, punctuation-normalized phrase, abbreviation-expanded
// phrase, and an order-independent word-set check on the expanded forms.
//
// Seniority spans are claimed top-down: a plain-VP pattern never matches
// text already claimed by an SVP/EVP phrase, and a bare "president"
// pattern never matches inside "vice president".
func MatchTitle(title, pattern string) MatchTier {
	lower := strings.ToLower(strings.TrimSpace(title))
	norm := company.Normalize(title)
	pLower := strings.ToLower(strings.TrimSpace(pattern))
	pNorm := company.Normalize(pattern)
	if pNorm == "" {
		return TierNone
	}

	masked := false
	switch {
	case isPlainVP(pNorm):
		lower = maskSpans(lower, svpFamily)
		norm = maskSpans(norm, svpFamily)
		masked = true
	case isBarePresident(pNorm):
		lower = maskSpans(lower, vpFamily)
		norm = maskSpans(norm, vpFamily)
		masked = true
	}

	// For masked pattern families the raw-text hit must survive in the
	// masked normalized form too, or punctuation inside the claimed span
	// ("Sr. VP Sales") would leak past the mask.
	if strings.Contains(lower, pLower) && (!masked || containsPhrase(norm, pNorm)) {
		return TierExact
	}
	if containsPhrase(norm, pNorm) {
		return TierNormalized
	}

	titleExp := expandAbbreviations(norm)
	patternExp := expandAbbreviations(pNorm)
	if containsPhrase(titleExp, patternExp) {
		return TierAbbrev
	}
	if wordSetMatch(titleExp, patternExp) {
		return TierWordSet
	}
	return TierNone
}

// wordSetMatch reports whether every significant pattern word appears in
// the title, in any order. Words of one or two letters carry no signal and
// are skipped; a pattern with no significant words never matches.
func wordSetMatch(titleExp, patternExp string) bool {
	titleWords := make(map[string]bool)
	for _, w := range strings.Fields(titleExp) {
		titleWords[w] = true
	}

	significant := 0
	for _, w := range strings.Fields(patternExp) {
		if len(w) <= 2 {
			continue
		}
		significant++
		if !titleWords[w] {
			return false
		}
	}
	return significant > 0
}

// BestMatch returns the strongest tier across a pattern list and the
// pattern that produced it. Patterns are tried in list order, so the first
// pattern at the winning tier is reported.
func BestMatch(title string, patterns []string) (MatchTier, string) {
	best := TierNone
	matched := ""
	for _, p := range patterns {
		if tier := MatchTitle(title, p); tier > best {
			best = tier
			matched = p
			if best == TierExact {
				break
			}
		}
	}
	return best, matched
}
