// Package items reconstructs the order's line-items table.
//
// Two independent strategies exist: FromTables works off the extracted grid
// candidates, FromText rebuilds rows from raw page text. The consolidation
// layer prefers the first non-empty result.
//
// The document family numbers genuine line items in steps of ten (10, 20,
// 30, ...). Any position-like number that is not a multiple of ten belongs to
// continuation text or noise and never starts an item.
package items

import (
	"strconv"
	"strings"

	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

// Canonical column labels, in output order.
const (
	ColPosition     = "Position"
	ColReference    = "Référence"
	ColDesignation  = "Désignation"
	ColUnit         = "Unité"
	ColQuantity     = "Quantité"
	ColUnitPrice    = "Prix unitaire"
	ColNetUnitPrice = "Prix unit. net"
	ColLineTotal    = "Montant"
	ColTaxCode      = "Code TVA"
)

// Columns is the canonical column order including the tax column.
var Columns = []string{
	ColPosition, ColReference, ColDesignation, ColUnit, ColQuantity,
	ColUnitPrice, ColNetUnitPrice, ColLineTotal, ColTaxCode,
}

// LineItem is one reconstructed row of the items table.
type LineItem struct {
	Position     string
	Reference    string
	Designation  string
	Unit         string
	Quantity     string
	UnitPrice    string
	NetUnitPrice string
	LineTotal    string
	TaxCode      string
}

// Cells returns the item's values in canonical column order.
func (it LineItem) Cells() []string {
	return []string{
		it.Position, it.Reference, it.Designation, it.Unit, it.Quantity,
		it.UnitPrice, it.NetUnitPrice, it.LineTotal, it.TaxCode,
	}
}

// Table is an ordered items table with its column labels.
type Table struct {
	Columns []string
	Items   []LineItem
}

// NewTable builds a table over the canonical columns.
func NewTable(items []LineItem) Table {
	return Table{Columns: append([]string(nil), Columns...), Items: items}
}

// Empty reports whether the table has no items.
func (t Table) Empty() bool { return len(t.Items) == 0 }

// WithoutNoise drops rows whose first non-blank cell is a known meta-line
// marker (customs tariff, country of origin, index annotations) that grid
// extraction sometimes embeds as rows.
func (t Table) WithoutNoise() Table {
	kept := make([]LineItem, 0, len(t.Items))
	for _, it := range t.Items {
		if isNoiseRow(it) {
			continue
		}
		kept = append(kept, it)
	}
	t.Items = kept
	return t
}

// Rows renders the data rows. The tax column is shown only in the summary
// line, never per item, so it is dropped here along with its label.
func (t Table) Rows() (columns []string, rows [][]string) {
	columns = make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c == ColTaxCode {
			continue
		}
		columns = append(columns, c)
	}
	rows = make([][]string, 0, len(t.Items))
	for _, it := range t.Items {
		cells := it.Cells()
		rows = append(rows, cells[:len(cells)-1])
	}
	return columns, rows
}

func isNoiseRow(it LineItem) bool {
	for _, cell := range it.Cells() {
		if strings.TrimSpace(cell) == "" {
			continue
		}
		return isMetaLine(cell)
	}
	return false
}

// metaLinePrefixes, matched against folded text, mark annotation lines that
// never contribute to an item.
var metaLinePrefixes = []string{
	"tarif douanier",
	"pays d'origine",
	"pays d’origine",
	"index:",
	"index :",
	"delai de reception",
}

func isMetaLine(line string) bool {
	folded := strings.TrimSpace(textutil.Fold(line))
	for _, prefix := range metaLinePrefixes {
		if strings.HasPrefix(folded, prefix) {
			return true
		}
	}
	return false
}

// endMarkerPrefixes terminate the text scan: the recapitulation block after
// the last item.
var endMarkerPrefixes = []string{
	"recapitulation",
	"montant total",
	"total ttc",
	"code tva",
	"taux",
}

func isEndMarker(line string) bool {
	folded := strings.TrimSpace(textutil.Fold(line))
	for _, prefix := range endMarkerPrefixes {
		if strings.HasPrefix(folded, prefix) {
			return true
		}
	}
	return false
}

// validPosition reports whether s is a genuine item position: numeric and a
// multiple of ten. Zero is a legal position.
func validPosition(s string) bool {
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n >= 0 && n%10 == 0
}
