package items

import (
	"regexp"
	"strings"

	"github.com/atelierfact/pdf-invoice-filler/internal/extract"
	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

// reShortDigits matches the short digit pattern used to sniff a position
// column out of an unlabeled first column.
var reShortDigits = regexp.MustCompile(`^\d{1,4}$`)

// FromTables is the table-based recovery strategy: union the genuine item
// rows of every cleaned candidate table, coerced to the canonical column set.
// Returns an empty slice when no candidate yields an item, in which case the
// caller falls back to FromText.
func FromTables(tables []extract.CandidateTable) []LineItem {
	var out []LineItem
	for _, t := range tables {
		out = append(out, fromTable(t)...)
	}
	return out
}

func fromTable(t extract.CandidateTable) []LineItem {
	posIdx := positionColumn(t)
	if posIdx < 0 {
		return nil
	}

	mapping := mapColumns(t.Columns)

	var out []LineItem
	for _, row := range t.Rows {
		if posIdx >= len(row) || !validPosition(strings.TrimSpace(row[posIdx])) {
			// Continuation or noise rows that grid extraction embeds
			// between genuine items.
			continue
		}
		it := LineItem{Position: strings.TrimSpace(row[posIdx])}
		for col, field := range mapping {
			if col == posIdx || col >= len(row) {
				continue
			}
			field.set(&it, strings.TrimSpace(row[col]))
		}
		out = append(out, it)
	}
	return out
}

// positionColumn returns the index of the position column: a declared one by
// header label, else the first column when its values largely match a short
// digit pattern. -1 when the table has no usable position column.
func positionColumn(t extract.CandidateTable) int {
	for i, label := range t.Columns {
		if strings.HasPrefix(textutil.Fold(label), "pos") {
			return i
		}
	}

	vals := t.Column(0)
	nonBlank, matching := 0, 0
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		nonBlank++
		if reShortDigits.MatchString(v) {
			matching++
		}
	}
	if nonBlank > 0 && matching*2 >= nonBlank {
		return 0
	}
	return -1
}

// fieldSetter binds a canonical field to its LineItem slot.
type fieldSetter struct {
	set func(*LineItem, string)
}

// columnKeywords maps folded header-label keywords to canonical fields. Order
// matters: the more specific labels come first ("prix unit. net" must not be
// claimed by the plain unit-price rule).
var columnKeywords = []struct {
	keywords []string
	setter   fieldSetter
}{
	{[]string{"net"}, fieldSetter{func(it *LineItem, v string) { it.NetUnitPrice = v }}},
	{[]string{"prix"}, fieldSetter{func(it *LineItem, v string) { it.UnitPrice = v }}},
	{[]string{"montant", "total"}, fieldSetter{func(it *LineItem, v string) { it.LineTotal = v }}},
	{[]string{"tva", "taux"}, fieldSetter{func(it *LineItem, v string) { it.TaxCode = v }}},
	{[]string{"ref", "article", "no art"}, fieldSetter{func(it *LineItem, v string) { it.Reference = v }}},
	{[]string{"desig", "libelle", "description"}, fieldSetter{func(it *LineItem, v string) { it.Designation = v }}},
	{[]string{"unite", "un."}, fieldSetter{func(it *LineItem, v string) { it.Unit = v }}},
	{[]string{"quant", "qte", "qu."}, fieldSetter{func(it *LineItem, v string) { it.Quantity = v }}},
}

// mapColumns resolves each header label to a canonical field. Unrecognized
// columns are dropped; missing canonical columns stay blank on the item.
func mapColumns(labels []string) map[int]fieldSetter {
	out := make(map[int]fieldSetter)
	for i, label := range labels {
		folded := textutil.Fold(label)
		for _, ck := range columnKeywords {
			matched := false
			for _, kw := range ck.keywords {
				if strings.Contains(folded, kw) {
					matched = true
					break
				}
			}
			if matched {
				out[i] = ck.setter
				break
			}
		}
	}
	return out
}
