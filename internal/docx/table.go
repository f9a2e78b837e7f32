package docx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

// reAnchor locates the anchor paragraph, accent- and plural-insensitive:
// "Cond. de paiement", "Conditions de paiement", ...
var reAnchor = regexp.MustCompile(`cond(?:itions?|\.)?\s+de\s+paiements?`)

const (
	headerShadeFill = "D9D9D9"
	cellHalfPoints  = "20" // 10pt
	totalHalfPoints = "22" // 11pt

	defaultColWidth = 1100 // dxa
)

// fixedColWidths pins the columns whose width must not float with content.
var fixedColWidths = map[string]int{
	"Position":    700,
	"Désignation": 3400,
	"Quantité":    900,
}

// InsertItemsTable builds the items table and places it two blank paragraphs
// below the anchor paragraph, followed by a bold right-aligned total line and
// exactly two blank paragraphs. Returns an error when the template has no
// anchor paragraph.
func (d *Document) InsertItemsTable(columns []string, rows [][]string, total string) error {
	anchor := d.findAnchor()
	if anchor == nil {
		return fmt.Errorf("template has no payment-condition anchor paragraph")
	}

	parent := anchor.Parent()
	idx := anchor.Index()

	inserted := []*etree.Element{
		newEmptyParagraph(),
		newEmptyParagraph(),
		buildTable(columns, rows),
	}
	if total != "" {
		inserted = append(inserted, buildTotalParagraph(total))
	}
	inserted = append(inserted, newEmptyParagraph(), newEmptyParagraph())

	for i, el := range inserted {
		parent.InsertChildAt(idx+1+i, el)
	}

	d.pruneBlanksAfter(parent, inserted[len(inserted)-1])
	return nil
}

// findAnchor scans the body paragraphs for the payment-condition marker.
func (d *Document) findAnchor() *etree.Element {
	body := d.body()
	if body == nil {
		return nil
	}
	for _, p := range body.FindElements(".//w:p") {
		if reAnchor.MatchString(textutil.Fold(paragraphText(p))) {
			return p
		}
	}
	return nil
}

// pruneBlanksAfter removes pre-existing blank paragraphs that directly follow
// the inserted block, so exactly two blanks separate it from what comes next.
func (d *Document) pruneBlanksAfter(parent, last *etree.Element) {
	for {
		idx := last.Index()
		children := parent.ChildElements()
		next := nextElementAt(children, idx)
		if next == nil || next.FullTag() != "w:p" || !emptyParagraph(next) {
			return
		}
		parent.RemoveChild(next)
	}
}

func nextElementAt(children []*etree.Element, tokenIndex int) *etree.Element {
	for _, el := range children {
		if el.Index() > tokenIndex {
			return el
		}
	}
	return nil
}

// buildTable constructs the w:tbl element: shaded header, horizontal-only
// internal rules inside a solid outer frame, fixed widths for the pinned
// columns, numeric cells right-aligned.
func buildTable(columns []string, rows [][]string) *etree.Element {
	tbl := etree.NewElement("w:tbl")

	tblPr := tbl.CreateElement("w:tblPr")
	tblW := tblPr.CreateElement("w:tblW")
	tblW.CreateAttr("w:w", "0")
	tblW.CreateAttr("w:type", "auto")
	borders := tblPr.CreateElement("w:tblBorders")
	for _, edge := range []string{"top", "left", "bottom", "right", "insideH"} {
		b := borders.CreateElement("w:" + edge)
		b.CreateAttr("w:val", "single")
		b.CreateAttr("w:sz", "4")
		b.CreateAttr("w:color", "auto")
	}
	insideV := borders.CreateElement("w:insideV")
	insideV.CreateAttr("w:val", "none")

	grid := tbl.CreateElement("w:tblGrid")
	for _, col := range columns {
		gc := grid.CreateElement("w:gridCol")
		gc.CreateAttr("w:w", strconv.Itoa(columnWidth(col)))
	}

	header := tbl.CreateElement("w:tr")
	for i, col := range columns {
		header.AddChild(buildCell(col, columns[i], true))
	}
	for _, row := range rows {
		tr := tbl.CreateElement("w:tr")
		for i, col := range columns {
			var v string
			if i < len(row) {
				v = row[i]
			}
			tr.AddChild(buildCell(col, v, false))
		}
	}
	return tbl
}

func columnWidth(label string) int {
	if w, ok := fixedColWidths[label]; ok {
		return w
	}
	return defaultColWidth
}

func buildCell(column, text string, header bool) *etree.Element {
	tc := etree.NewElement("w:tc")

	tcPr := tc.CreateElement("w:tcPr")
	tcW := tcPr.CreateElement("w:tcW")
	tcW.CreateAttr("w:w", strconv.Itoa(columnWidth(column)))
	tcW.CreateAttr("w:type", "dxa")
	if header {
		shd := tcPr.CreateElement("w:shd")
		shd.CreateAttr("w:val", "clear")
		shd.CreateAttr("w:fill", headerShadeFill)
	}

	p := tc.CreateElement("w:p")
	pPr := p.CreateElement("w:pPr")
	jc := pPr.CreateElement("w:jc")
	jc.CreateAttr("w:val", cellAlignment(text, header))

	r := p.CreateElement("w:r")
	rPr := r.CreateElement("w:rPr")
	if header {
		rPr.CreateElement("w:b")
	}
	setHalfPointSize(rPr, cellHalfPoints)
	t := r.CreateElement("w:t")
	t.CreateAttr("xml:space", "preserve")
	t.SetText(text)

	return tc
}

// cellAlignment right-aligns anything that parses as a decimal once the
// Swiss separators are normalized; headers center, everything else stays
// left.
func cellAlignment(text string, header bool) string {
	if header {
		return "center"
	}
	if isNumeric(text) {
		return "right"
	}
	return "left"
}

func isNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	s = strings.NewReplacer("'", "", "’", "", " ", "", ",", ".").Replace(s)
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func buildTotalParagraph(total string) *etree.Element {
	p := etree.NewElement("w:p")
	pPr := p.CreateElement("w:pPr")
	jc := pPr.CreateElement("w:jc")
	jc.CreateAttr("w:val", "right")

	r := p.CreateElement("w:r")
	rPr := r.CreateElement("w:rPr")
	rPr.CreateElement("w:b")
	setHalfPointSize(rPr, totalHalfPoints)
	t := r.CreateElement("w:t")
	t.CreateAttr("xml:space", "preserve")
	t.SetText("Total TTC CHF " + total)

	return p
}
