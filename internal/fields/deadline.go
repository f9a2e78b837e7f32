package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/atelierfact/pdf-invoice-filler/internal/textutil"
)

// deadlineMarker is matched against folded text, so any accent or case
// variant of "Délai de réception" hits it.
const deadlineMarker = "delai de reception"

var (
	reDate = regexp.MustCompile(`([0-3]?\d)[./-]([01]?\d)[./-]([12]\d{3})`)

	// Fallback for when normalization moved the date off the marker's line:
	// allow a short window between marker and date.
	reDeadlineWindow = regexp.MustCompile(`(?s)` + deadlineMarker + `.{0,30}?([0-3]?\d)[./-]([01]?\d)[./-]([12]\d{3})`)
)

// ResolveDeadline finds receipt-deadline dates in the normalized text and
// returns the chronologically latest one as dd.mm.yyyy. The deadline can be
// repeated per line item or in header and footer; the latest mention is the
// binding one. Returns false when no valid date is recovered.
func ResolveDeadline(text string) (string, bool) {
	var dates []time.Time

	for _, line := range strings.Split(text, "\n") {
		folded := textutil.Fold(line)
		if !strings.Contains(folded, deadlineMarker) {
			continue
		}
		for _, m := range reDate.FindAllStringSubmatch(folded, -1) {
			if d, ok := parseDate(m); ok {
				dates = append(dates, d)
			}
		}
	}

	if len(dates) == 0 {
		folded := textutil.Fold(text)
		for _, m := range reDeadlineWindow.FindAllStringSubmatch(folded, -1) {
			if d, ok := parseDate(m); ok {
				dates = append(dates, d)
			}
		}
	}

	if len(dates) == 0 {
		return "", false
	}

	latest := dates[0]
	for _, d := range dates[1:] {
		if d.After(latest) {
			latest = d
		}
	}
	return FormatDate(latest), true
}

// parseDate validates a day/month/year triple against the calendar. An
// impossible date (31.04., 30.02., ...) is discarded, never an error.
func parseDate(m []string) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}

// FormatDate renders a date the way the supplier's documents do: two-digit
// day and month, four-digit year, dot separators.
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%02d.%02d.%04d", t.Day(), int(t.Month()), t.Year())
}
