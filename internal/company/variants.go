package company

import "strings"

// Variants generates the ordered list of company-name variations for search
// queries: the raw name first, then the legal-suffix-stripped form, the
// fully stripped form, configured aliases, and finally derived short forms.
// Deterministic for identical input; duplicates are removed
// case-insensitively.
func Variants(name string, aliases []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) {
		v = strings.TrimSpace(v)
		key := Normalize(v)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, v)
	}

	add(name)
	add(StripLegalSuffix(name))
	add(StripSuffix(name))
	for _, a := range aliases {
		add(a)
		add(StripSuffix(a))
	}

	// Short forms: leading word of a multi-word name ("Dell Technologies"
	// yields "Dell"), and the ampersand/and spelling swap.
	base := StripLegalSuffix(name)
	if words := strings.Fields(base); len(words) > 1 && len(words[0]) >= 4 {
		add(words[0])
	}
	if strings.Contains(base, "&") {
		add(strings.ReplaceAll(base, "&", "and"))
	} else if strings.Contains(strings.ToLower(base), " and ") {
		lower := strings.ToLower(base)
		idx := strings.Index(lower, " and ")
		add(base[:idx] + " & " + base[idx+len(" and "):])
	}

	return out
}
