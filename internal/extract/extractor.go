// Package extract pulls raw text and candidate table grids out of a purchase
// order PDF.
//
// Table detection in these documents is unreliable: depending on how the
// supplier's system rendered the page, either a grid-based detector or a
// positioned-text detector finds the items table, and neither alone works on
// every document. The extractor therefore runs both strategies over every
// page and deduplicates the results; downstream reconstruction picks what it
// can use.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

const (
	// Minimum accepted candidate shape. Anything narrower is a layout
	// artifact, not an items table.
	minTableColumns = 3
	minTableRows    = 1
)

// Strategy produces zero or more raw table grids for a document. A strategy
// failing (error or panic) never aborts the document; its candidates are
// simply skipped.
type Strategy interface {
	Name() string
	Tables(pdfBytes []byte) ([]CandidateTable, error)
}

// Extractor turns PDF bytes into normalized page texts and cleaned,
// deduplicated candidate tables.
type Extractor struct {
	maxFileSize int64
	strategies  []Strategy
}

// NewExtractor creates an extractor with the default strategy set: grid-based
// multi-table detection first, positioned-text single-table detection second.
func NewExtractor(maxFileSize int64) *Extractor {
	return &Extractor{
		maxFileSize: maxFileSize,
		strategies: []Strategy{
			&tabulaStrategy{},
			&positionedTextStrategy{},
		},
	}
}

// Extract validates the PDF container, then collects per-page text and table
// candidates. A PDF that cannot be opened at all is a fatal error; a page or
// strategy that fails is skipped.
func (e *Extractor) Extract(pdfBytes []byte) (*Extraction, error) {
	if int64(len(pdfBytes)) > e.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", len(pdfBytes), e.maxFileSize)
	}

	if err := e.validateContainer(pdfBytes); err != nil {
		return nil, err
	}

	pages := e.extractPageTexts(pdfBytes)

	var tables []CandidateTable
	for _, s := range e.strategies {
		for _, t := range e.runStrategy(s, pdfBytes) {
			if accepted, ok := acceptTable(t); ok {
				tables = append(tables, accepted)
			}
		}
	}
	tables = dedupeTables(tables)

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}

	return &Extraction{
		Pages:    pages,
		FullText: strings.Join(texts, "\n"),
		Tables:   tables,
	}, nil
}

// validateContainer draws the fatal-vs-recoverable line: a container pdfcpu
// cannot parse means no document can be produced.
func (e *Extractor) validateContainer(pdfBytes []byte) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if _, err := api.ReadContext(bytes.NewReader(pdfBytes), conf); err != nil {
		return fmt.Errorf("cannot parse PDF container: %w", err)
	}
	return nil
}

// runStrategy shields the pipeline from a misbehaving strategy.
func (e *Extractor) runStrategy(s Strategy, pdfBytes []byte) (tables []CandidateTable) {
	defer func() {
		if recover() != nil {
			tables = nil
		}
	}()

	tables, err := s.Tables(pdfBytes)
	if err != nil {
		return nil
	}
	return tables
}

// acceptTable cleans a raw candidate and applies the shape threshold. A header
// with no non-blank cell is replaced with generic Col1..ColN placeholders
// before cleaning, so a headerless grid is not silently dropped.
func acceptTable(t CandidateTable) (CandidateTable, bool) {
	hasHeader := false
	for _, label := range t.Columns {
		if strings.TrimSpace(label) != "" {
			hasHeader = true
			break
		}
	}
	if !hasHeader {
		cols := make([]string, len(t.Columns))
		for i := range cols {
			cols[i] = fmt.Sprintf("Col%d", i+1)
		}
		t.Columns = cols
	}

	cleaned := CleanTable(t)
	rows, cols := cleaned.Shape()
	if cols < minTableColumns || rows < minTableRows {
		return CandidateTable{}, false
	}
	return cleaned, true
}

// normalizePageText applies the extraction-artifact repairs to one page.
func normalizePageText(raw string) string {
	return textutil.CollapseSpaces(textutil.RepairSpacing(raw))
}
