package extract

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frag(s string, x, w, fontSize float64) pdf.Text {
	return pdf.Text{S: s, X: x, Y: 700, W: w, FontSize: fontSize}
}

func TestMergeWords(t *testing.T) {
	// Font size 12 gives a 2pt character gap: fragments within it join,
	// anything further apart starts a new word.
	line := []pdf.Text{
		frag("Wid", 10, 18, 12),
		frag("get", 29, 18, 12),
		frag("A", 120, 6, 12),
	}

	words := mergeWords(line)
	require.Len(t, words, 2)
	assert.Equal(t, "Widget", words[0].s)
	assert.Equal(t, 10.0, words[0].x)
	assert.Equal(t, 47.0, words[0].end)
	assert.Equal(t, "A", words[1].s)
}

func TestMergeWords_ZeroFontSize(t *testing.T) {
	// Without a font size the gap defaults to one point.
	line := []pdf.Text{
		frag("a", 10, 5, 0),
		frag("b", 15.5, 5, 0),
		frag("c", 30, 5, 0),
	}

	words := mergeWords(line)
	require.Len(t, words, 2)
	assert.Equal(t, "ab", words[0].s)
	assert.Equal(t, "c", words[1].s)
}

func TestSplitCells(t *testing.T) {
	// Words separated by less than a word gap (16pt at size 12) share a
	// cell; a wider gap starts the next cell.
	row := []word{
		{s: "10", x: 10, end: 22, fontSize: 12},
		{s: "Vis", x: 80, end: 98, fontSize: 12},
		{s: "M4", x: 104, end: 118, fontSize: 12},
		{s: "50.00", x: 400, end: 430, fontSize: 12},
	}

	assert.Equal(t, []string{"10", "Vis M4", "50.00"}, splitCells(row))
}

func TestSplitCells_Empty(t *testing.T) {
	assert.Nil(t, splitCells(nil))
}

func TestModalWidth(t *testing.T) {
	cells := [][]string{
		{"a"},
		{"a", "b"},
		{"a", "b", "c"},
		{"a", "b", "c"},
		{"a", "b", "c", "d"},
	}

	// Rows narrower than a plausible table are ignored entirely.
	assert.Equal(t, 3, modalWidth(cells))
}

func TestModalWidth_TiePrefersWider(t *testing.T) {
	cells := [][]string{
		{"a", "b", "c"},
		{"a", "b", "c"},
		{"a", "b", "c", "d"},
		{"a", "b", "c", "d"},
	}

	assert.Equal(t, 4, modalWidth(cells))
}

func TestTableFromCells(t *testing.T) {
	cells := [][]string{
		{"Commande fournisseur"},
		{"Position", "Désignation", "Montant"},
		{"10", "Widget A", "50.00"},
		{"20", "Widget B", "25.00"},
		{"Total CHF", "75.00"},
	}

	ct, ok := tableFromCells(cells)
	require.True(t, ok)
	assert.Equal(t, []string{"Position", "Désignation", "Montant"}, ct.Columns)
	assert.Equal(t, [][]string{
		{"10", "Widget A", "50.00"},
		{"20", "Widget B", "25.00"},
	}, ct.Rows)
}

func TestTableFromCells_PicksLongestBand(t *testing.T) {
	cells := [][]string{
		{"h1", "h2", "h3"},
		{"1", "2", "3"},
		{"interruption"},
		{"Position", "Désignation", "Montant"},
		{"10", "Widget A", "50.00"},
		{"20", "Widget B", "25.00"},
	}

	ct, ok := tableFromCells(cells)
	require.True(t, ok)
	assert.Equal(t, []string{"Position", "Désignation", "Montant"}, ct.Columns)
	assert.Len(t, ct.Rows, 2)
}

func TestTableFromCells_HeaderAlone(t *testing.T) {
	cells := [][]string{
		{"Position", "Désignation", "Montant"},
		{"some", "text"},
	}

	_, ok := tableFromCells(cells)
	assert.False(t, ok)
}

func TestTableFromCells_TooNarrow(t *testing.T) {
	cells := [][]string{
		{"a", "b"},
		{"c", "d"},
	}

	_, ok := tableFromCells(cells)
	assert.False(t, ok)
}
