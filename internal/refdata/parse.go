package refdata

import (
	"math"
	"strconv"
	"strings"
)

var dollarSanitizer = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseDollar parses "$1,234.56"-style values. Missing or unparsable input is 0.
func ParseDollar(s string) float64 {
	v, ok := ParseFloat(s)
	if !ok {
		return 0
	}
	return v
}

// ParseFloat parses a numeric cell, tolerating currency symbols and thousands
// separators. ok is false for blanks, NaN, infinities and garbage.
func ParseFloat(s string) (float64, bool) {
	s = dollarSanitizer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseInt parses an integer cell; values like "2.0" are accepted.
func ParseInt(s string) (int, bool) {
	v, ok := ParseFloat(s)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

// CanonicalKey renders numeric cells in a stable form so "1001", "1001.0" and
// " 1001 " join to the same key. Non-numeric cells are returned trimmed.
func CanonicalKey(s string) string {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return s
}
