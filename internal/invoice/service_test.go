package invoice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierfact/pdf-invoice-filler/internal/extract"
	"github.com/atelierfact/pdf-invoice-filler/internal/fields"
)

const orderText = `Commande fournisseur N° CF-24-8871
Notre référence : Chantier Les Vergers
Délai de réception : 15.01.2025 date
Total CHF 1'080.00
10 123456 Vis à bois 4x40 PCE 100 0.50 0.45 45.00 7.7
Récapitulation
`

func fixedClock(t *testing.T) func() time.Time {
	t.Helper()
	ts, err := time.Parse("02.01.2006", "31.08.2026")
	require.NoError(t, err)
	return func() time.Time { return ts }
}

func TestParseFields_DeadlineAliased(t *testing.T) {
	fm := parseFields(orderText)

	assert.Equal(t, "CF-24-8871", fm[fields.KindOrderNumber])
	assert.Equal(t, "CF-24-8871", fm[fields.KindOrderAlias])
	assert.Equal(t, "Chantier Les Vergers", fm[fields.KindOurReference])
	assert.Equal(t, "15.01.2025", fm[fields.KindReceiptDeadline])
	assert.Equal(t, "15.01.2025", fm[fields.KindDeliveryDeadline])

	_, ok := fm[fields.KindToday]
	assert.False(t, ok, "analysis must not inject the system date")
}

func TestConsolidate_LayerOrder(t *testing.T) {
	s := NewService(1 << 20)
	s.now = fixedClock(t)

	fm := parseFields(orderText)
	s.consolidate(fm, map[fields.Kind]string{
		fields.KindOurReference: "Référence corrigée",
		fields.KindToday:        "01.09.2026",
	})

	// Parsed value survives when not overridden.
	assert.Equal(t, "CF-24-8871", fm[fields.KindOrderNumber])
	// Override wins over the parsed value.
	assert.Equal(t, "Référence corrigée", fm[fields.KindOurReference])
	// Override wins even over the system date.
	assert.Equal(t, "01.09.2026", fm[fields.KindToday])
}

func TestConsolidate_SystemDate(t *testing.T) {
	s := NewService(1 << 20)
	s.now = fixedClock(t)

	fm := fields.Map{}
	s.consolidate(fm, nil)

	assert.Equal(t, "31.08.2026", fm[fields.KindToday])
}

func TestReconstructItems_PrefersTables(t *testing.T) {
	ext := &extract.Extraction{
		FullText: orderText,
		Tables: []extract.CandidateTable{{
			Columns: []string{"Pos", "Référence", "Désignation", "Quantité", "Montant"},
			Rows: [][]string{
				{"10", "123456", "Vis à bois", "100", "45.00"},
				{"20", "654321", "Chevilles", "50", "12.50"},
			},
		}},
	}

	table, source := reconstructItems(ext)
	assert.Equal(t, SourceTables, source)
	require.Len(t, table.Items, 2)
	assert.Equal(t, "123456", table.Items[0].Reference)
}

func TestReconstructItems_FallsBackToText(t *testing.T) {
	ext := &extract.Extraction{FullText: orderText}

	table, source := reconstructItems(ext)
	assert.Equal(t, SourceText, source)
	require.Len(t, table.Items, 1)
	assert.Equal(t, "Vis à bois 4x40", table.Items[0].Designation)
}

func TestReconstructItems_None(t *testing.T) {
	table, source := reconstructItems(&extract.Extraction{FullText: "Bordereau vide"})
	assert.Equal(t, SourceNone, source)
	assert.True(t, table.Empty())
}

func TestOutputFilename(t *testing.T) {
	tests := []struct {
		order    string
		expected string
	}{
		{"CF-24-8871", "Facture 8871.docx"},
		{"cf-25-42", "Facture 42.docx"},
		{"ORDER-99", "Facture.docx"},
		{"", "Facture.docx"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, OutputFilename(tt.order), "order: %q", tt.order)
	}
}
