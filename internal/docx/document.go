// Package docx fills a Word template: placeholder substitution, items-table
// insertion at the anchor paragraph, and title styling.
//
// A .docx file is a zip of OOXML parts. The package rewrites only the
// WordprocessingML parts it touches (document body, headers, footers) and
// copies everything else through byte for byte.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

const mainPart = "word/document.xml"

// Document is an in-memory template being filled. It is a value that every
// operation mutates explicitly and Bytes serializes; nothing is shared
// between documents.
type Document struct {
	order    []string
	parts    map[string][]byte
	xmlParts map[string]*etree.Document
}

// Parse opens a template. A template that is not a zip, lacks the main
// document part, or contains no paragraphs at all is a fatal error: no
// document can be produced from it.
func Parse(templateBytes []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(templateBytes), int64(len(templateBytes)))
	if err != nil {
		return nil, fmt.Errorf("cannot open template: %w", err)
	}

	d := &Document{
		parts:    make(map[string][]byte),
		xmlParts: make(map[string]*etree.Document),
	}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot read template part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read template part %s: %w", f.Name, err)
		}
		d.order = append(d.order, f.Name)
		d.parts[f.Name] = data
	}

	if _, ok := d.parts[mainPart]; !ok {
		return nil, fmt.Errorf("template has no %s part", mainPart)
	}

	for name, data := range d.parts {
		if !isWordMLPart(name) {
			continue
		}
		xd := etree.NewDocument()
		if err := xd.ReadFromBytes(data); err != nil {
			if name == mainPart {
				return nil, fmt.Errorf("cannot parse %s: %w", name, err)
			}
			continue // a broken header/footer part is copied through untouched
		}
		d.xmlParts[name] = xd
	}

	if len(d.paragraphs()) == 0 {
		return nil, fmt.Errorf("template has no paragraphs")
	}

	return d, nil
}

func isWordMLPart(name string) bool {
	if name == mainPart {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

// Bytes serializes the filled document back into a .docx zip, preserving the
// original part order.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range d.order {
		data := d.parts[name]
		if xd, ok := d.xmlParts[name]; ok {
			serialized, err := xd.WriteToBytes()
			if err != nil {
				return nil, fmt.Errorf("cannot serialize %s: %w", name, err)
			}
			data = serialized
		}
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("cannot write %s: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("cannot write %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// body returns the w:body element of the main part.
func (d *Document) body() *etree.Element {
	return d.xmlParts[mainPart].FindElement("//w:body")
}

// paragraphs lists every w:p across body, headers and footers, including
// paragraphs nested in table cells.
func (d *Document) paragraphs() []*etree.Element {
	var out []*etree.Element
	for _, xd := range d.xmlParts {
		out = append(out, xd.FindElements("//w:p")...)
	}
	return out
}

// paragraphText concatenates the text of all runs in a paragraph.
func paragraphText(p *etree.Element) string {
	var b strings.Builder
	for _, t := range p.FindElements(".//w:t") {
		b.WriteString(t.Text())
	}
	return b.String()
}

// setParagraphText collapses the paragraph to a single run holding text. The
// first run's formatting survives; later runs' formatting is discarded. This
// is lossy for templates that style part of a placeholder-bearing paragraph
// differently.
func setParagraphText(p *etree.Element, text string) {
	runs := p.SelectElements("w:r")

	var first *etree.Element
	if len(runs) > 0 {
		first = runs[0]
		for _, r := range runs[1:] {
			p.RemoveChild(r)
		}
	} else {
		first = p.CreateElement("w:r")
	}

	for _, t := range first.SelectElements("w:t") {
		first.RemoveChild(t)
	}
	t := first.CreateElement("w:t")
	t.CreateAttr("xml:space", "preserve")
	t.SetText(text)
}

// runProps returns the w:rPr of a run, creating one in first position when
// absent.
func runProps(r *etree.Element) *etree.Element {
	if pr := r.SelectElement("w:rPr"); pr != nil {
		return pr
	}
	pr := etree.NewElement("w:rPr")
	r.InsertChildAt(0, pr)
	return pr
}

// emptyParagraph reports whether a paragraph renders no text.
func emptyParagraph(p *etree.Element) bool {
	return strings.TrimSpace(paragraphText(p)) == ""
}

func newEmptyParagraph() *etree.Element {
	return etree.NewElement("w:p")
}
