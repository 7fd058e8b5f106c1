package normalize

// convert.go turns raw scraped cells into typed values.
//
// Every parser returns nil (or false) for empty and malformed input, so a bad cell
// degrades to a null field instead of failing the record.

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// replacementChar is what the scraper left behind for broken diacritics.
const replacementChar = "\uFFFD"

// TwoDigitYearPivot defines how 2-digit years are interpreted: dates more than this
// many years in the future are moved to the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format. Slash, dash and dot layouts are day-first
// because the source listings are Belgian.
var (
	fourDigitYearLayouts = []string{
		"2006-01-02T15:04:05.000-0700",
		"2006-01-02T15:04:05-0700",
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		"2006-01-02",
		"2006/01/02",
		"02/01/2006", "2/1/2006",
		"02-01-2006", "2-1-2006",
		"02.01.2006", "2.1.2006",
		"2 Jan 2006", "Jan 2, 2006",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"02/01/06", "2/1/06", "02-01-06", "02.01.06",
	}
)

var nullTokens = map[string]struct{}{
	"":     {},
	"nan":  {},
	"none": {},
	"null": {},
	"n/a":  {},
	"na":   {},
	"<na>": {},
	"nat":  {},
}

func isNull(s string) bool {
	_, ok := nullTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// cleanText trims the cell and repairs mis-encoded diacritics.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, replacementChar, "e")
	s = strings.TrimSpace(s)
	if isNull(s) {
		return ""
	}
	return s
}

// parseFloat accepts numbers with an optional euro sign, spaces and thousands separators.
func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return nil
	}
	s = strings.ReplaceAll(s, "\u20ac", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s, ok := normalizeSeparators(s)
	if !ok {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// normalizeSeparators rewrites thousands and decimal separators so ParseFloat can read
// the number. A comma is a decimal comma only when 1 or 2 digits follow it; otherwise
// commas (or dots, when a comma marks the decimals) must separate groups of 3 digits.
func normalizeSeparators(s string) (string, bool) {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma < 0:
		// "1.250.000" uses dots as thousands separators
		if strings.Count(s, ".") > 1 {
			return stripGroups(s, ".")
		}
		return s, true
	case lastDot > lastComma:
		// "1,250,000.50"
		intPart, ok := stripGroups(s[:lastDot], ",")
		return intPart + s[lastDot:], ok
	case isDecimalTail(s[lastComma+1:]):
		// "1.250,5" or "12,75"
		intPart := s[:lastComma]
		if strings.Contains(intPart, ",") {
			return "", false
		}
		if lastDot >= 0 {
			var ok bool
			if intPart, ok = stripGroups(intPart, "."); !ok {
				return "", false
			}
		}
		return intPart + "." + s[lastComma+1:], true
	case lastDot >= 0:
		// a dot before a thousands comma, as in "1.250,000"
		return "", false
	default:
		// "250,000" and "1,250,000"
		return stripGroups(s, ",")
	}
}

// stripGroups removes sep from s when every group after the first has exactly 3 digits.
func stripGroups(s, sep string) (string, bool) {
	groups := strings.Split(s, sep)
	first := strings.TrimLeft(groups[0], "+-")
	if first == "" || len(first) > 3 || !allDigits(first) {
		return "", false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 || !allDigits(g) {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

func isDecimalTail(s string) bool {
	return (len(s) == 1 || len(s) == 2) && allDigits(s)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseInt accepts integral values, including float renderings such as "3.0".
func parseInt(s string) *int64 {
	f := parseFloat(s)
	if f == nil {
		return nil
	}
	if *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt64/2 {
		return nil
	}
	v := int64(*f)
	return &v
}

func parseSmallInt(s string) *int {
	v := parseInt(s)
	if v == nil {
		return nil
	}
	i := int(*v)
	return &i
}

// parseFlag maps boolean-ish cells to 0/1. Anything unrecognised counts as absent (0).
func parseFlag(s string) int {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes", "y":
		return 1
	default:
		if f := parseFloat(s); f != nil && *f > 0 {
			return 1
		}
		return 0
	}
}

// parseCount parses engagement counters, defaulting to 0.
func parseCount(s string) int {
	v := parseInt(s)
	if v == nil || *v < 0 {
		return 0
	}
	return int(*v)
}

// parseDate tries unambiguous 4-digit layouts first, then 2-digit years with the pivot.
// The result is truncated to the calendar date in UTC.
func parseDate(s string, now time.Time) *time.Time {
	s = strings.TrimSpace(s)
	if isNull(s) {
		return nil
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := calendarDate(t)
			return &d
		}
	}

	pivotYear := now.Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			d := calendarDate(t)
			return &d
		}
	}

	return nil
}

func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// truncateEPC collapses sub-variant codes such as "A_B" to their leading class.
func truncateEPC(s string) string {
	if i := strings.Index(s, "_"); i >= 0 {
		s = s[:i]
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// roundHalfEven rounds the way pandas does.
func roundHalfEven(v float64) float64 {
	return math.RoundToEven(v)
}
