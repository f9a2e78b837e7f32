// Package invoice orchestrates the pipeline from supplier order PDF to
// filled invoice document: extraction, field parsing, item reconstruction,
// consolidation and template filling.
package invoice

import (
	"fmt"
	"time"

	"github.com/atelierfact/pdf-invoice-filler/internal/docx"
	"github.com/atelierfact/pdf-invoice-filler/internal/extract"
	"github.com/atelierfact/pdf-invoice-filler/internal/fields"
	"github.com/atelierfact/pdf-invoice-filler/internal/items"
)

// Item sources reported in analysis results.
const (
	SourceTables = "tables"
	SourceText   = "text"
	SourceNone   = "none"
)

// Service runs the pipeline by orchestrating the extraction and filling
// components.
type Service struct {
	extractor *extract.Extractor
	now       func() time.Time
}

// NewService creates an invoice service. maxFileSize bounds the accepted
// PDF size in bytes.
func NewService(maxFileSize int64) *Service {
	return &Service{
		extractor: extract.NewExtractor(maxFileSize),
		now:       time.Now,
	}
}

// AnalyzeRequest asks for the fields and items recovered from an order PDF.
type AnalyzeRequest struct {
	PDF []byte
}

// AnalyzeResult reports what the pipeline recovered, without touching any
// template.
type AnalyzeResult struct {
	Fields     fields.Map
	Items      items.Table
	Pages      int
	TableCount int
	ItemSource string
}

// GenerateRequest asks for a filled invoice document.
type GenerateRequest struct {
	PDF      []byte
	Template []byte
	// Overrides are caller-supplied field values. They win over every
	// detected value, including the system date.
	Overrides map[fields.Kind]string
}

// GenerateResult carries the filled document and what went into it.
type GenerateResult struct {
	Document []byte
	Filename string
	Fields   fields.Map
	Items    items.Table
}

// Analyze extracts an order PDF and reports the consolidated fields and the
// reconstructed item table. Overrides and the system date are not applied;
// the result reflects the document alone.
func (s *Service) Analyze(req AnalyzeRequest) (*AnalyzeResult, error) {
	ext, err := s.extractor.Extract(req.PDF)
	if err != nil {
		return nil, err
	}

	table, source := reconstructItems(ext)
	return &AnalyzeResult{
		Fields:     parseFields(ext.FullText),
		Items:      table,
		Pages:      len(ext.Pages),
		TableCount: len(ext.Tables),
		ItemSource: source,
	}, nil
}

// Generate runs the full pipeline and fills the template. A PDF the
// extractor rejects or a template the filler cannot open is fatal; a
// document with no recoverable items still produces output, just without an
// items table.
func (s *Service) Generate(req GenerateRequest) (*GenerateResult, error) {
	ext, err := s.extractor.Extract(req.PDF)
	if err != nil {
		return nil, err
	}

	fm := parseFields(ext.FullText)
	s.consolidate(fm, req.Overrides)
	table, _ := reconstructItems(ext)

	doc, err := docx.Parse(req.Template)
	if err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}

	doc.ReplacePlaceholders(fm.Strings())
	doc.SetTitle(fm[fields.KindOrderNumber])
	if !table.Empty() {
		columns, rows := table.Rows()
		if err := doc.InsertItemsTable(columns, rows, fm[fields.KindTotalDisplay]); err != nil {
			return nil, err
		}
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, err
	}

	return &GenerateResult{
		Document: out,
		Filename: OutputFilename(fm[fields.KindOrderNumber]),
		Fields:   fm,
		Items:    table,
	}, nil
}

// parseFields reads the header fields and resolves the deadline aliases from
// the normalized full text.
func parseFields(text string) fields.Map {
	fm := fields.Parse(text)
	if deadline, ok := fields.ResolveDeadline(text); ok {
		fm[fields.KindReceiptDeadline] = deadline
		fm[fields.KindDeliveryDeadline] = deadline
	}
	return fm
}

// consolidate layers the remaining value sources onto the parsed fields.
// Later sources win: system date, then caller overrides.
func (s *Service) consolidate(fm fields.Map, overrides map[fields.Kind]string) {
	fm[fields.KindToday] = fields.FormatDate(s.now())
	fm.Merge(overrides)
}

// reconstructItems prefers table-based reconstruction and falls back to the
// text scan when no table yields items. Noise rows are dropped either way.
func reconstructItems(ext *extract.Extraction) (items.Table, string) {
	if its := items.FromTables(ext.Tables); len(its) > 0 {
		return items.NewTable(its).WithoutNoise(), SourceTables
	}
	if its := items.FromText(ext.FullText); len(its) > 0 {
		return items.NewTable(its).WithoutNoise(), SourceText
	}
	return items.NewTable(nil), SourceNone
}

// OutputFilename names the generated document after the order number suffix,
// "Facture 8871.docx" for order CF-24-8871. Orders with another shape fall
// back to a fixed name.
func OutputFilename(orderNumber string) string {
	if suffix, ok := docx.OrderSuffix(orderNumber); ok {
		return "Facture " + suffix + ".docx"
	}
	return "Facture.docx"
}
