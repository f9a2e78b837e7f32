package fields

import (
	"regexp"
	"strings"

	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

// MaxReferenceLen caps the our-reference value.
const MaxReferenceLen = 60

const amountPattern = `([0-9][0-9'’]*(?:[.,][0-9]+)?)`

var (
	reOrderNumber = regexp.MustCompile(`(?i)commande\s+fournisseur\s+n[°ºo]\s*([A-Za-z0-9_\-]+)`)

	reTotalLongAfter   = regexp.MustCompile(`(?i)(?:montant\s+total\s+ttc\s+chf|total\s+ttc\s+chf)\s*:?\s*` + amountPattern)
	reTotalLongBefore  = regexp.MustCompile(`(?i)` + amountPattern + `\s*(?:montant\s+total\s+ttc\s+chf|total\s+ttc\s+chf)`)
	reTotalShortAfter  = regexp.MustCompile(`(?i)total\s+chf\s*:?\s*` + amountPattern)
	reTotalShortBefore = regexp.MustCompile(`(?i)` + amountPattern + `\s*total\s+chf`)

	reOurReferenceLine = regexp.MustCompile(`^notre\s+reference\s*:`)

	rePaymentCondition = regexp.MustCompile(`(?i)cond(?:itions?|\.)?\s+de\s+paiements?\s*:?\s*(.+)`)

	// Tokens that cut the our-reference remainder; everything from the first
	// occurrence on is VAT boilerplate, not part of the reference.
	referenceCutTokens = []string{"no tva", "n° tva", "no. tva", "numero tva", "tva"}

	referenceTrimSet = " \t-–—:;,."
)

// Parse runs the pattern battery over the normalized full text. Every
// extraction is best-effort and independent: a pattern that does not match
// leaves its key absent.
func Parse(text string) Map {
	m := Map{}

	if v, ok := parseOrderNumber(text); ok {
		m[KindOrderNumber] = v
		m[KindOrderAlias] = v
	}
	if v, ok := parseOurReference(text); ok {
		m[KindOurReference] = v
	}
	if v, ok := firstMatch(text, reTotalShortAfter, reTotalShortBefore); ok {
		m[KindTotalDisplay] = v
	}
	if v, ok := firstMatch(text, reTotalLongAfter, reTotalLongBefore); ok {
		m[KindTotalReference] = v
	}
	if v, ok := parsePaymentCondition(text); ok {
		m[KindPaymentCondition] = v
	}

	return m
}

// parsePaymentCondition captures the remainder of the payment-condition line,
// e.g. "Condition de paiement 30 jours net".
func parsePaymentCondition(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		matches := rePaymentCondition.FindStringSubmatch(line)
		if matches == nil {
			continue
		}
		if v := strings.TrimSpace(matches[1]); v != "" {
			return v, true
		}
	}
	return "", false
}

func parseOrderNumber(text string) (string, bool) {
	matches := reOrderNumber.FindStringSubmatch(text)
	if matches == nil {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(matches[1])), true
}

// parseOurReference captures the remainder of the "Notre référence :" line,
// cut at the first VAT token, trimmed of surrounding punctuation and capped
// at MaxReferenceLen characters.
func parseOurReference(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		folded := textutil.Fold(line)
		if !reOurReferenceLine.MatchString(folded) {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(line[idx+1:])
		if rest == "" {
			continue
		}
		return truncateReference(rest), true
	}
	return "", false
}

func truncateReference(rest string) string {
	runes := []rune(rest)

	// Fold rune by rune and remember which literal rune produced each folded
	// byte. Folding can expand a rune (the ﬁ ligature becomes fi), so an
	// index found in the folded text is not usable on the literal text
	// directly.
	var folded strings.Builder
	owner := make([]int, 0, len(rest))
	for i, r := range runes {
		f := textutil.Fold(string(r))
		folded.WriteString(f)
		for j := 0; j < len(f); j++ {
			owner = append(owner, i)
		}
	}
	foldedText := folded.String()

	cut := len(runes)
	for _, token := range referenceCutTokens {
		if i := strings.Index(foldedText, token); i >= 0 && owner[i] < cut {
			cut = owner[i]
		}
	}

	if cut < len(runes) {
		runes = runes[:cut]
	}
	out := strings.Trim(string(runes), referenceTrimSet)
	if outRunes := []rune(out); len(outRunes) > MaxReferenceLen {
		out = strings.TrimSpace(string(outRunes[:MaxReferenceLen]))
	}
	return out
}

func firstMatch(text string, patterns ...*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if matches := re.FindStringSubmatch(text); matches != nil {
			return strings.TrimSpace(matches[1]), true
		}
	}
	return "", false
}
