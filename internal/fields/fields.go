// Package fields recovers the invoice header fields from the normalized text
// of a supplier order confirmation.
package fields

// Kind names a header field. The string value doubles as the template
// placeholder name, so the set is closed for everything the pipeline reasons
// about while the document filler still accepts arbitrary extra keys through
// a plain string map.
type Kind string

const (
	// KindOrderNumber is the supplier order number, upper-cased.
	KindOrderNumber Kind = "N°commande fournisseur"
	// KindOrderAlias carries the same value as KindOrderNumber; older
	// template generations use this placeholder name.
	KindOrderAlias Kind = "Commande fournisseur"
	// KindOurReference is our own reference line, capped at 60 characters.
	KindOurReference Kind = "Notre référence"
	// KindTotalDisplay is the displayed total, taken from the short
	// "Total CHF" label.
	KindTotalDisplay Kind = "Total TTC CHF"
	// KindTotalReference is the long-label total, kept for reference only.
	KindTotalReference Kind = "Montant Total TTC CHF"
	// KindReceiptDeadline is the latest receipt deadline found in the text.
	KindReceiptDeadline Kind = "date Délai de réception"
	// KindDeliveryDeadline is an alias of KindReceiptDeadline for templates
	// that label the same date as a delivery deadline.
	KindDeliveryDeadline Kind = "date Délai de livraison"
	// KindPaymentCondition is the payment condition line, kept verbatim.
	KindPaymentCondition Kind = "Cond. de paiement"
	// KindToday is always system-generated, never parsed from the document.
	KindToday Kind = "date du jour"
)

// Map holds detected field values. A missing key means "unknown"; callers
// must not conflate that with an empty string.
type Map map[Kind]string

// Strings converts the map to plain string keys for the document filler.
func (m Map) Strings() map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

// Merge copies every entry of other into m, overwriting on conflict.
func (m Map) Merge(other map[Kind]string) {
	for k, v := range other {
		m[k] = v
	}
}
