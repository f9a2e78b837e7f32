package extract

import (
	"bytes"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// yNudge is the vertical tolerance when deciding two fragments sit on the
// same line.
const yNudge = 2.0

// word is a run of text fragments merged along the X axis.
type word struct {
	s        string
	x, y     float64
	end      float64
	fontSize float64
}

// extractPageTexts reads per-page text. Lines are reassembled from positioned
// fragments so the downstream line-based heuristics see real document lines;
// when positioning is unavailable the page falls back to plain text
// extraction. A page that fails entirely yields an empty page, never an
// error.
func (e *Extractor) extractPageTexts(pdfBytes []byte) []PageText {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil
	}

	pages := make([]PageText, 0, reader.NumPage())
	for num := 1; num <= reader.NumPage(); num++ {
		raw := readPage(reader, num)
		pages = append(pages, PageText{Number: num, Text: normalizePageText(raw)})
	}
	return pages
}

func readPage(reader *pdf.Reader, num int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return ""
	}

	if lines := pageLines(page); len(lines) > 0 {
		return strings.Join(lines, "\n")
	}

	plain, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return plain
}

// pageLines rebuilds visual lines from positioned text fragments: cluster by
// Y, order by X, merge adjacent fragments into words.
func pageLines(page pdf.Page) []string {
	rows := pageRows(page)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, w := range row {
			parts[i] = w.s
		}
		line := strings.TrimSpace(strings.Join(parts, " "))
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// pageRows clusters a page's fragments into top-to-bottom rows of words.
func pageRows(page pdf.Page) [][]word {
	content := page.Content()
	frags := make([]pdf.Text, len(content.Text))
	copy(frags, content.Text)
	if len(frags) == 0 {
		return nil
	}

	// Snap nearby Y coordinates together, then sort top-to-bottom,
	// left-to-right. PDF Y grows upward.
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})
	prev := math.Inf(-1)
	for i := range frags {
		if frags[i].Y != prev && math.Abs(frags[i].Y-prev) < yNudge {
			frags[i].Y = prev
		} else {
			prev = frags[i].Y
		}
	}
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].Y != frags[j].Y {
			return frags[i].Y > frags[j].Y
		}
		return frags[i].X < frags[j].X
	})

	var rows [][]word
	for i := 0; i < len(frags); {
		j := i + 1
		for j < len(frags) && frags[j].Y == frags[i].Y {
			j++
		}
		rows = append(rows, mergeWords(frags[i:j]))
		i = j
	}
	return rows
}

// mergeWords joins fragments on one line into words. Fragments closer than a
// character-width gap belong to the same word; anything further apart starts
// a new one. Thresholds derive from the font size, the same scheme the
// positioned-text CSV extractors use.
func mergeWords(line []pdf.Text) []word {
	var words []word
	for k := 0; k < len(line); {
		ck := line[k]
		w := word{s: ck.S, x: ck.X, y: ck.Y, end: ck.X + ck.W, fontSize: ck.FontSize}
		charSpace := ck.FontSize / 6
		if charSpace <= 0 {
			charSpace = 1
		}
		l := k + 1
		for l < len(line) {
			cl := line[l]
			if cl.X > w.end+charSpace {
				break
			}
			w.s += cl.S
			w.end = cl.X + cl.W
			l++
		}
		words = append(words, w)
		k = l
	}
	return words
}

// positionedTextStrategy is the "best single table" mode: per page, find the
// widest consistent band of rows and treat it as one table, header first.
type positionedTextStrategy struct{}

func (s *positionedTextStrategy) Name() string { return "positioned-text" }

func (s *positionedTextStrategy) Tables(pdfBytes []byte) ([]CandidateTable, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, err
	}

	var tables []CandidateTable
	for num := 1; num <= reader.NumPage(); num++ {
		if t, ok := bestSingleTable(reader, num); ok {
			tables = append(tables, t)
		}
	}
	return tables, nil
}

func bestSingleTable(reader *pdf.Reader, num int) (t CandidateTable, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return CandidateTable{}, false
	}

	rows := pageRows(page)
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = splitCells(row)
	}
	return tableFromCells(cells)
}

// tableFromCells picks the longest contiguous band of rows at the page's
// modal width and reads it as one table, header first.
func tableFromCells(cells [][]string) (CandidateTable, bool) {
	width := modalWidth(cells)
	if width < minTableColumns {
		return CandidateTable{}, false
	}

	bestStart, bestLen := -1, 0
	for i := 0; i < len(cells); {
		if len(cells[i]) != width {
			i++
			continue
		}
		j := i
		for j < len(cells) && len(cells[j]) == width {
			j++
		}
		if j-i > bestLen {
			bestStart, bestLen = i, j-i
		}
		i = j
	}
	if bestLen < minTableRows+1 { // header plus at least one data row
		return CandidateTable{}, false
	}

	band := cells[bestStart : bestStart+bestLen]
	return CandidateTable{Columns: band[0], Rows: band[1:]}, true
}

// splitCells groups a line's words into cells wherever the horizontal gap is
// wider than a word gap at that font size.
func splitCells(row []word) []string {
	var (
		cells []string
		cur   strings.Builder
		end   float64
	)
	flush := func() {
		if cur.Len() > 0 {
			cells = append(cells, cur.String())
			cur.Reset()
		}
	}
	for i, w := range row {
		gap := w.fontSize * 4 / 3
		if gap <= 0 {
			gap = 8
		}
		if i > 0 && w.x > end+gap {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(w.s)
		end = w.end
	}
	flush()
	return cells
}

func modalWidth(cells [][]string) int {
	counts := make(map[int]int)
	for _, row := range cells {
		if len(row) >= minTableColumns {
			counts[len(row)]++
		}
	}
	best, bestCount := 0, 0
	for w, c := range counts {
		if c > bestCount || (c == bestCount && w > best) {
			best, bestCount = w, c
		}
	}
	return best
}
