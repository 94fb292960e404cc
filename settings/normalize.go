package settings

import (
	"strconv"
	"strings"

	"github.com/zero-day-ai/plugkit/bag"
)

// Normalize converts string values in b, recursively (lists included) and in
// place:
// "true" and "false" become booleans and numeric strings become float64.
// Other values are left alone. It returns b.
func Normalize(b *bag.Bag) *bag.Bag {
	if b == nil {
		return nil
	}
	for _, key := range b.Keys() {
		b.Set(key, NormalizeValue(b.Value(key)))
	}
	return b
}

// NormalizeValue is Normalize for a single value.
func NormalizeValue(v any) any {
	switch t := v.(type) {
	case *bag.Bag:
		return Normalize(t)
	case []any:
		for i, e := range t {
			t[i] = NormalizeValue(e)
		}
		return t
	case string:
		switch t {
		case "true":
			return true
		case "false":
			return false
		}
		if f, ok := parseNumber(t); ok {
			return f
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	default:
		return v
	}
}

// parseNumber accepts plain decimals only: an optional minus sign, an
// integer part without leading zeros and an optional fraction. Values such
// as "Inf", "0x10", "1e5", " 1" or a zero-padded "007" stay strings.
func parseNumber(s string) (float64, bool) {
	i := 0
	if strings.HasPrefix(s, "-") {
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == start || (s[start] == '0' && i-start > 1) {
		return 0, false
	}
	if i < len(s) && s[i] == '.' {
		i++
		frac := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == frac {
			return 0, false
		}
	}
	if i != len(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
