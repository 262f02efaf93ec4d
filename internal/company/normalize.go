// Package company normalizes company names and decides whether a candidate's
// employer text refers to the target company.
package company

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// entitySuffixes matches a trailing legal or descriptive suffix. The suffix
// must be its own word: "Dell Technologies Inc" loses "Inc", "COSTCO" keeps
// its trailing "CO".
var entitySuffixes = regexp.MustCompile(
	`(?i)[\s,]+(LLC|L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|` +
		`CO\.?|COMPANY|LTD\.?|LIMITED|L\.?P\.?|LLP|L\.?L\.?P\.?|` +
		`PLC|P\.?L\.?C\.?|GMBH|S\.?A\.?|A\.?G\.?|N\.?V\.?|B\.?V\.?|` +
		`HOLDINGS?|GROUP|TECHNOLOGIES|TECHNOLOGY)\s*\.?\s*$`)

// legalSuffixes matches only incorporation suffixes; descriptive tails like
// "Technologies" or "Group" are kept.
var legalSuffixes = regexp.MustCompile(
	`(?i)[\s,]+(LLC|L\.?L\.?C\.?|INC\.?|INCORPORATED|CORP\.?|CORPORATION|` +
		`CO\.?|COMPANY|LTD\.?|LIMITED|L\.?P\.?|LLP|L\.?L\.?P\.?|` +
		`PLC|P\.?L\.?C\.?|GMBH|S\.?A\.?|A\.?G\.?|N\.?V\.?|B\.?V\.?)\s*\.?\s*$`)

var (
	multiSpace = regexp.MustCompile(`\s{2,}`)
	punct      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// foldDiacritics converts accented letters to their base form, so
// "Société Générale" matches "societe generale".
func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases, folds diacritics, strips punctuation, and collapses
// whitespace. It keeps legal suffixes; see StripSuffix for the short form.
func Normalize(name string) string {
	n := foldDiacritics(strings.TrimSpace(name))
	n = strings.ToLower(n)
	n = punct.ReplaceAllString(n, " ")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// StripSuffix removes a trailing legal-entity suffix ("Inc", "LLC", "Corp",
// "Technologies", ...) from the raw name, preserving original casing.
func StripSuffix(name string) string {
	n := strings.TrimSpace(name)
	for {
		stripped := strings.TrimSpace(entitySuffixes.ReplaceAllString(n, ""))
		if stripped == n || stripped == "" {
			return n
		}
		n = stripped
	}
}

// StripLegalSuffix removes only the trailing incorporation suffix, keeping
// descriptive tails: "Dell Technologies Inc" becomes "Dell Technologies".
func StripLegalSuffix(name string) string {
	n := strings.TrimSpace(name)
	for {
		stripped := strings.TrimSpace(legalSuffixes.ReplaceAllString(n, ""))
		if stripped == n || stripped == "" {
			return n
		}
		n = stripped
	}
}
