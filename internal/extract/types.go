package extract

import (
	"fmt"
	"strings"
)

// PageText holds the normalized text of one PDF page.
type PageText struct {
	Number int
	Text   string
}

// Lines returns the page text split into lines.
func (p PageText) Lines() []string {
	return strings.Split(p.Text, "\n")
}

// CandidateTable is a raw table grid pulled from one page region: a header of
// column labels plus data rows. Labels are not necessarily unique; columns are
// tracked by position.
type CandidateTable struct {
	Columns []string
	Rows    [][]string
}

// Shape returns (rows, cols).
func (t CandidateTable) Shape() (int, int) {
	return len(t.Rows), len(t.Columns)
}

// Signature identifies a candidate for deduplication: the column-label tuple
// plus the table shape. Two extraction strategies running over the same page
// region produce the same signature.
func (t CandidateTable) Signature() string {
	rows, cols := t.Shape()
	return fmt.Sprintf("%s|%dx%d", strings.Join(t.Columns, "\x1f"), rows, cols)
}

// Column returns the values of the column at index i, or nil when out of range.
func (t CandidateTable) Column(i int) []string {
	if i < 0 || i >= len(t.Columns) {
		return nil
	}
	vals := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if i < len(row) {
			vals = append(vals, row[i])
		} else {
			vals = append(vals, "")
		}
	}
	return vals
}

// Extraction is the Raw Extractor output for one document.
type Extraction struct {
	Pages    []PageText
	FullText string
	Tables   []CandidateTable
}
