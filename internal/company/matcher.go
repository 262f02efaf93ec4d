package company

import "strings"

// Matcher decides whether free-text employer names refer to the target
// company. Matching is alias-aware and inclusive: any configured alias
// appearing as a normalized substring counts.
type Matcher struct {
	target  string
	aliases []string
	needles []needle
}

type needle struct {
	norm  string
	label string
}

// NewMatcher builds a matcher for the target name plus configured aliases.
// Suffix-stripped forms of the target and every alias are matched too.
func NewMatcher(target string, aliases []string) *Matcher {
	m := &Matcher{target: target, aliases: aliases}

	seen := make(map[string]bool)
	add := func(raw, label string) {
		n := Normalize(raw)
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		m.needles = append(m.needles, needle{norm: n, label: label})
	}

	add(target, target)
	add(StripLegalSuffix(target), target)
	add(StripSuffix(target), target)
	for _, a := range aliases {
		add(a, a)
		add(StripSuffix(a), a)
	}

	return m
}

// Match reports whether the employer text refers to the target company, and
// which configured name matched. Word boundaries are respected so the alias
// "Dell" does not match "Delligatti Plumbing".
func (m *Matcher) Match(companyText string) (string, bool) {
	haystack := Normalize(companyText)
	if haystack == "" {
		return "", false
	}
	padded := " " + haystack + " "
	for _, n := range m.needles {
		if strings.Contains(padded, " "+n.norm+" ") {
			return n.label, true
		}
	}
	return "", false
}

// Target returns the configured target name.
func (m *Matcher) Target() string {
	return m.target
}
