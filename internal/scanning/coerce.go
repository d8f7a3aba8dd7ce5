package scanning

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Amount coerces a decoded JSON value to a money amount. Numbers pass through;
// strings may carry currency symbols, spaces, thousands separators and a
// decimal comma ("$3.50", "₹ 120", "3,50", "1.234,50"). ok is false for anything that is not a finite number.
func Amount(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return parseAmount(t)
	}
	return 0, false
}

func parseAmount(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)

	// The last separator is the decimal mark: "1,234.50" and "1.234,50"
	// are both 1234.5, and a lone comma is decimal ("3,50")
	if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Quantity coerces a decoded JSON value to a positive item count. Missing,
// non-numeric and non-positive values count as 1. Strings are read up to
// the first non-digit, so "2x" and "3 pcs" work.
func Quantity(v any) int {
	var n int
	switch t := v.(type) {
	case float64:
		if !math.IsNaN(t) && !math.IsInf(t, 0) && t < math.MaxInt32 {
			n = int(t)
		}
	case int:
		n = t
	case json.Number:
		if i, err := t.Int64(); err == nil && i < math.MaxInt32 {
			n = int(i)
		} else if f, err := t.Float64(); err == nil && f < math.MaxInt32 {
			n = int(f)
		}
	case string:
		s := strings.TrimSpace(t)
		end := 0
		for end < len(s) && s[end] >= '0' && s[end] <= '9' {
			end++
		}
		if i, err := strconv.Atoi(s[:end]); err == nil {
			n = i
		}
	}
	if n < 1 {
		return 1
	}
	return n
}
