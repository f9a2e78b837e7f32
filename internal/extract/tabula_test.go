package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/tabula/model"
)

func TestTableFromGrid(t *testing.T) {
	grid := [][]string{
		{"Position", "Désignation", "Montant"},
		{"10", "Widget A", "50.00"},
		{"20", "Widget B", "25.00"},
	}

	ct, ok := tableFromGrid(grid)
	require.True(t, ok)
	assert.Equal(t, []string{"Position", "Désignation", "Montant"}, ct.Columns)
	assert.Equal(t, [][]string{
		{"10", "Widget A", "50.00"},
		{"20", "Widget B", "25.00"},
	}, ct.Rows)
}

func TestTableFromGrid_HeaderOnly(t *testing.T) {
	_, ok := tableFromGrid([][]string{{"Position", "Montant"}})
	assert.False(t, ok)

	_, ok = tableFromGrid(nil)
	assert.False(t, ok)
}

func TestTableFromGrid_FromDetectedTable(t *testing.T) {
	table := model.NewTable(3, 3)
	cells := [][]string{
		{"Position", "Désignation", "Montant"},
		{"10", "Vis M4, inox", "12.50"},
		{"20", "Écrou M4", "3.80"},
	}
	for i, row := range cells {
		for j, text := range row {
			require.NoError(t, table.SetCell(i, j, model.Cell{Text: text}))
		}
	}

	grid, err := gridFromCSV(table.ToCSV())
	require.NoError(t, err)

	ct, ok := tableFromGrid(grid)
	require.True(t, ok)
	assert.Equal(t, []string{"Position", "Désignation", "Montant"}, ct.Columns)
	// The comma inside the designation survives CSV quoting.
	assert.Equal(t, [][]string{
		{"10", "Vis M4, inox", "12.50"},
		{"20", "Écrou M4", "3.80"},
	}, ct.Rows)
}

func TestGridFromCSV_RaggedRows(t *testing.T) {
	grid, err := gridFromCSV("a,b,c\n1,2\n3,4,5,6\n")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"a", "b", "c"},
		{"1", "2"},
		{"3", "4", "5", "6"},
	}, grid)
}
