package extract

import "strings"

// CleanTable normalizes a candidate grid: trims every header label and cell,
// drops columns whose trimmed label is empty, drops rows where every cell is
// blank. Cleaning an already-clean table is a no-op.
func CleanTable(t CandidateTable) CandidateTable {
	keep := make([]int, 0, len(t.Columns))
	columns := make([]string, 0, len(t.Columns))
	for i, label := range t.Columns {
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		keep = append(keep, i)
		columns = append(columns, label)
	}

	rows := make([][]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		cells := make([]string, len(keep))
		blank := true
		for j, idx := range keep {
			var v string
			if idx < len(row) {
				v = strings.TrimSpace(row[idx])
			}
			cells[j] = v
			if v != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		rows = append(rows, cells)
	}

	return CandidateTable{Columns: columns, Rows: rows}
}

// dedupeTables keeps the first occurrence of each (columns, shape) signature.
func dedupeTables(tables []CandidateTable) []CandidateTable {
	seen := make(map[string]bool, len(tables))
	out := make([]CandidateTable, 0, len(tables))
	for _, t := range tables {
		sig := t.Signature()
		if seen[sig] {
			continue
		}
		seen[sig] = true
		out = append(out, t)
	}
	return out
}
