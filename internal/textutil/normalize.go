// Package textutil repairs and normalizes text coming out of PDF extraction.
//
// Order confirmations from the supplier frequently lose spaces during
// extraction (a quantity glued to its unit, or a number glued to the first
// word of the next cell). The repairs here are applied once, right after
// extraction, so every downstream matcher sees the same text.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// UnitTokens are the quantity units seen in the supplier's documents.
var UnitTokens = []string{"PCE", "PC", "KG", "M2", "UN", "M", "L", "H"}

var (
	// Unit repair must run before the generic digit-letter repair: it keeps
	// multi-letter units ("PCE") intact instead of splitting after the first
	// letter.
	reGluedUnit  = regexp.MustCompile(`(\d)(` + strings.Join(UnitTokens, "|") + `)\b`)
	reGluedWord  = regexp.MustCompile(`(\d)([A-Za-z])`)
	reMultiSpace = regexp.MustCompile(`[ \t]+`)

	accentStripper = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// StripAccents removes diacritical marks: NFKD decomposition followed by
// dropping the combining marks.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// RepairSpacing re-inserts spaces the PDF extraction dropped between a number
// and the following token. Substitutions run in order; the unit-token rule is
// the more specific one and goes first.
func RepairSpacing(s string) string {
	s = reGluedUnit.ReplaceAllString(s, "$1 $2")
	s = reGluedWord.ReplaceAllString(s, "$1 $2")
	return s
}

// CollapseSpaces reduces runs of spaces and tabs to a single space and trims
// each line. Line breaks are preserved.
func CollapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(reMultiSpace.ReplaceAllString(lines[i], " "))
	}
	return strings.Join(lines, "\n")
}

// Fold lowercases and strips accents. All marker-phrase and label matching
// goes through this so "Délai" and "delai" compare equal.
func Fold(s string) string {
	return strings.ToLower(StripAccents(s))
}
