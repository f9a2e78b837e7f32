package docx

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

// placeholderTargets builds the guillemet variants a template may use for a
// key: plain, space-padded, and non-breaking-space-padded.
func placeholderTargets(key string) []string {
	return []string{
		"«" + key + "»",
		"« " + key + " »",
		"« " + key + " »",
	}
}

// ReplacePlaceholders substitutes «key» tokens in every paragraph of the
// body, headers and footers. Keys absent from mapping stay visibly
// unresolved in the output; that is deliberate, a silently blanked
// placeholder is harder to notice than a leftover token.
func (d *Document) ReplacePlaceholders(mapping map[string]string) {
	for _, p := range d.paragraphs() {
		full := paragraphText(p)
		if !strings.Contains(full, "«") {
			continue
		}
		replaced := full
		for key, val := range mapping {
			for _, target := range placeholderTargets(key) {
				replaced = strings.ReplaceAll(replaced, target, val)
			}
		}
		if replaced != full {
			setParagraphText(p, replaced)
		}
	}
}

var reOrderSuffix = regexp.MustCompile(`(?i)^CF-\d{2}-(\d+)$`)

// OrderSuffix extracts the trailing digits of a supplier order number of the
// form CF-NN-<digits>. Returns false when the number has another shape.
func OrderSuffix(orderNumber string) (string, bool) {
	m := reOrderSuffix.FindStringSubmatch(strings.TrimSpace(orderNumber))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// SetTitle finds the "Facture" title paragraph and restyles it as
// "Facture <suffix>", bold at a fixed size. No-op when the template has no
// such paragraph or the order number has no recognizable suffix.
func (d *Document) SetTitle(orderNumber string) {
	suffix, ok := OrderSuffix(orderNumber)
	if !ok {
		return
	}
	for _, p := range d.paragraphs() {
		if textutil.Fold(strings.TrimSpace(paragraphText(p))) != "facture" {
			continue
		}
		setParagraphText(p, "Facture "+suffix)
		run := p.SelectElement("w:r")
		if run == nil {
			continue
		}
		pr := runProps(run)
		if pr.SelectElement("w:b") == nil {
			pr.CreateElement("w:b")
		}
		setHalfPointSize(pr, titleHalfPoints)
		return
	}
}

// titleHalfPoints is the fixed title size (OOXML sizes are half-points).
const titleHalfPoints = "32"

// setHalfPointSize sets w:sz and w:szCs on a run-properties element.
func setHalfPointSize(rPr *etree.Element, halfPoints string) {
	for _, tag := range []string{"w:sz", "w:szCs"} {
		el := rPr.SelectElement(tag)
		if el == nil {
			el = rPr.CreateElement(tag)
		}
		el.CreateAttr("w:val", halfPoints)
	}
}
