package extract

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/tables"
)

// tabulaStrategy is the "multi-table" mode: geometric table detection over
// every page of the document via tabula.
type tabulaStrategy struct{}

func (s *tabulaStrategy) Name() string { return "tabula" }

func (s *tabulaStrategy) Tables(pdfBytes []byte) ([]CandidateTable, error) {
	// tabula opens documents by path, so spill the bytes to a scratch file.
	tmp, err := os.CreateTemp("", "order-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdfBytes); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	doc, err := tabula.AnalyzeDocument(tmp.Name())
	if err != nil {
		return nil, err
	}

	detector := tables.NewGeometricDetector()

	var out []CandidateTable
	for _, page := range doc.Pages {
		detected, err := detector.Detect(page)
		if err != nil {
			continue
		}
		for _, table := range detected {
			if table.RowCount() < 2 {
				continue
			}
			grid, err := gridFromCSV(table.ToCSV())
			if err != nil {
				continue
			}
			if ct, ok := tableFromGrid(grid); ok {
				out = append(out, ct)
			}
		}
	}
	return out, nil
}

// tableFromGrid maps a raw grid to a CandidateTable: first row is the column
// header, the rest are data rows. A grid without at least one data row is not
// a table.
func tableFromGrid(grid [][]string) (CandidateTable, bool) {
	if len(grid) < 2 {
		return CandidateTable{}, false
	}
	return CandidateTable{Columns: grid[0], Rows: grid[1:]}, true
}

func gridFromCSV(data string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}
