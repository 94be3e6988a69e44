package student

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical textual date form used across the portal,
// the input sheets, and the reports.
const DateLayout = "02/01/2006"

// TimestampLayout matches the audit column format of the exported reports.
const TimestampLayout = "02-01-2006 - 03:04:05 PM"

var (
	numericDateRe = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	isoDateRe     = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	ordinalRe     = regexp.MustCompile(`(\d+)(st|nd|rd|th)`)
)

// placeholderTokens are the literal "not available" spellings that appear in
// hand-maintained input sheets. Comparison is case-insensitive.
var placeholderTokens = map[string]struct{}{
	"":              {},
	"na":            {},
	"ns":            {},
	"n/a":           {},
	"null":          {},
	"none":          {},
	"not available": {},
}

// IsPlaceholder reports whether the value is blank or one of the literal
// "not available" spellings.
func IsPlaceholder(value string) bool {
	_, ok := placeholderTokens[strings.ToLower(strings.TrimSpace(value))]
	return ok
}

// NormalizeDate converts a raw date string into DD/MM/YYYY form. The input
// may be numeric with / or - separators (day-first assumed, but swapped when
// only one ordering is a valid calendar date), ISO YYYY-MM-DD, or carry an
// ordinal suffix ("3rd/01/2015"). Returns "" for placeholders and an error
// for anything unparseable.
func NormalizeDate(raw string) (string, error) {
	if IsPlaceholder(raw) {
		return "", nil
	}
	s := strings.ToLower(strings.TrimSpace(raw))
	s = ordinalRe.ReplaceAllString(s, "$1")

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return formatValidated(day, month, year, raw)
	}

	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		first, _ := strconv.Atoi(m[1])
		second, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])

		day, month := first, second
		if first <= 12 && second > 12 {
			day, month = second, first
		}
		return formatValidated(day, month, year, raw)
	}

	// Last resort: let time.Parse try a few spelled-out layouts.
	spelled := ordinalRe.ReplaceAllString(strings.TrimSpace(raw), "$1")
	for _, layout := range []string{"2 January 2006", "January 2, 2006", "2 Jan 2006"} {
		if t, err := time.Parse(layout, spelled); err == nil {
			return t.Format(DateLayout), nil
		}
	}
	return "", fmt.Errorf("invalid date format: %q", raw)
}

func formatValidated(day, month, year int, raw string) (string, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return "", fmt.Errorf("invalid calendar date: %q", raw)
	}
	return t.Format(DateLayout), nil
}

// YearFromDate extracts the year from a DD/MM/YYYY string. Returns 0 when
// the value is absent or malformed.
func YearFromDate(date string) int {
	parts := strings.Split(strings.TrimSpace(date), "/")
	if len(parts) != 3 {
		return 0
	}
	year, err := strconv.Atoi(strings.Fields(parts[2])[0])
	if err != nil {
		return 0
	}
	return year
}

// Timestamp returns the current time in the report audit format.
func Timestamp() string {
	return time.Now().Format(TimestampLayout)
}

// ValidAdmissionDate reports whether the admission date falls inside the
// academic intake window (1 April through 30 September of its own year).
// The portal enforces this; we only warn on load.
func ValidAdmissionDate(date string) bool {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	start := time.Date(t.Year(), time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(t.Year(), time.September, 30, 0, 0, 0, 0, time.UTC)
	return !t.Before(start) && !t.After(end)
}
