package items

import (
	"regexp"
	"strings"

	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

const (
	numberPattern = `[0-9][0-9'’]*(?:[.,][0-9]+)?`
	moneyPattern  = `[0-9][0-9'’]*[.,][0-9]{2}`
)

var (
	unitAlternation = strings.Join(textutil.UnitTokens, "|")

	// The complete line-item grammar. It anchors on the trailing money
	// fields, so a designation that happens to contain digits does not
	// satisfy it prematurely.
	reCompleteItem = regexp.MustCompile(
		`^(\d+)\s+(\S+)\s+(.+?)\s+(` + unitAlternation + `)\s+` +
			`(` + numberPattern + `)\s+` +
			`(` + moneyPattern + `)\s+` +
			`(` + moneyPattern + `)\s+` +
			`(` + moneyPattern + `)` +
			`(?:\s+(\d+(?:[.,]\d+)?))?\s*$`)

	// Just the front of an item: position and reference.
	reItemStart = regexp.MustCompile(`^(\d+)\s+\S+`)
)

// FromText is the text-based recovery strategy: a single-pass scan over page
// lines with one open buffer for the item currently being assembled. An item
// flushes only once its trailing money fields are present; an incomplete
// buffer is never emitted.
func FromText(text string) []LineItem {
	var (
		out    []LineItem
		buffer string
		open   bool
	)

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		// Past the last item. A still-open buffer is incomplete by
		// definition and is discarded, not flushed.
		if isEndMarker(line) {
			break
		}

		if isMetaLine(line) {
			continue
		}

		if it, ok := matchComplete(line); ok {
			out = append(out, it)
			buffer = ""
			open = false
			continue
		}

		if m := reItemStart.FindStringSubmatch(line); m != nil {
			if validPosition(m[1]) {
				// A new valid start supersedes any unfinished buffer:
				// the previous item can never complete once a new one
				// begins.
				buffer = line
				open = true
			}
			// A position-like number that is not a multiple of ten is
			// never an item start; skip the line and keep buffering.
			continue
		}

		if open {
			buffer += " " + line
			if it, ok := matchComplete(buffer); ok {
				out = append(out, it)
				buffer = ""
				open = false
			}
		}
	}

	return out
}

func matchComplete(line string) (LineItem, bool) {
	m := reCompleteItem.FindStringSubmatch(line)
	if m == nil || !validPosition(m[1]) {
		return LineItem{}, false
	}
	return LineItem{
		Position:     m[1],
		Reference:    m[2],
		Designation:  strings.TrimSpace(m[3]),
		Unit:         m[4],
		Quantity:     m[5],
		UnitPrice:    m[6],
		NetUnitPrice: m[7],
		LineTotal:    m[8],
		TaxCode:      m[9],
	}, true
}
