// Package settings holds the host configuration handed to every plugin
// extension callback.
//
// Settings are read-only once built. Every constructor normalizes its input
// (see Normalize), so a value that arrived as the string "true" from a form,
// a redis hash or an etcd key reads the same as a YAML boolean.
package settings

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zero-day-ai/plugkit/bag"
)

// DevKey is the settings key that turns on development diagnostics.
const DevKey = "dev"

// Settings is an immutable, normalized settings tree.
type Settings struct {
	values *bag.Bag
}

// Empty returns settings with no values.
func Empty() *Settings {
	return &Settings{values: bag.New()}
}

// New builds settings from alternating key/value arguments, like bag.Of.
func New(kv ...any) *Settings {
	return FromBag(bag.Of(kv...))
}

// FromMap builds settings from a plain map. Keys are ordered as by bag.FromMap.
func FromMap(m map[string]any) *Settings {
	return FromBag(bag.FromMap(m))
}

// FromBag builds settings from a copy of b.
func FromBag(b *bag.Bag) *Settings {
	if b == nil {
		return Empty()
	}
	return &Settings{values: Normalize(b.Clone())}
}

// Get resolves a dotted path. Bag results are copies.
func (s *Settings) Get(path string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values.Lookup(path)
	if b, isBag := v.(*bag.Bag); isBag {
		return b.Clone(), ok
	}
	return v, ok
}

// Value is Get without the presence flag.
func (s *Settings) Value(path string) any {
	v, _ := s.Get(path)
	return v
}

// Has reports whether path resolves to a value.
func (s *Settings) Has(path string) bool {
	_, ok := s.Get(path)
	return ok
}

// String returns the value at path rendered as a string, or "" when absent.
func (s *Settings) String(path string) string {
	v, ok := s.Get(path)
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// Bool returns the truthiness of the value at path. Absent values, nil,
// false, zero, NaN and "" are false; everything else is true.
func (s *Settings) Bool(path string) bool {
	v, ok := s.Get(path)
	if !ok {
		return false
	}
	return Truthy(v)
}

// Int parses the value at path the way form inputs are read: numbers are
// truncated, strings contribute their leading integer ("250ms" is 250). The
// flag is false when no integer can be read.
func (s *Settings) Int(path string) (int, bool) {
	v, ok := s.Get(path)
	if !ok {
		return 0, false
	}
	return ParseInt(v)
}

// Dev reports whether development diagnostics are enabled.
func (s *Settings) Dev() bool {
	return s.Bool(DevKey)
}

// Keys returns the top-level keys in order.
func (s *Settings) Keys() []string {
	if s == nil {
		return nil
	}
	return s.values.Keys()
}

// Bag returns a deep copy of the settings tree.
func (s *Settings) Bag() *bag.Bag {
	if s == nil {
		return bag.New()
	}
	return s.values.Clone()
}

// Map returns the settings as plain nested maps.
func (s *Settings) Map() map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s.values.Map()
}

// With returns new settings with b deep-merged over s.
func (s *Settings) With(b *bag.Bag) *Settings {
	merged := bag.Merge(s.Bag(), b)
	return &Settings{values: Normalize(merged)}
}

// Truthy reports whether v counts as true in a boolean context.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0 && !math.IsNaN(t)
	case float32:
		return t != 0 && !math.IsNaN(float64(t))
	case int:
		return t != 0
	case int64:
		return t != 0
	case int32:
		return t != 0
	case uint64:
		return t != 0
	default:
		return true
	}
}

// ParseInt reads an integer from v. Strings yield their leading integer after
// optional whitespace and sign.
func ParseInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		if t > math.MaxInt || t < math.MinInt {
			return 0, false
		}
		return int(t), true
	case int32:
		return int(t), true
	case uint64:
		if t > math.MaxInt {
			return 0, false
		}
		return int(t), true
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		// float64(math.MaxInt) rounds up to a power of two, one past the
		// largest int, so the upper bound is exclusive.
		t = math.Trunc(t)
		if t >= float64(math.MaxInt) || t < float64(math.MinInt) {
			return 0, false
		}
		return int(t), true
	case float32:
		return ParseInt(float64(t))
	case bool:
		return 0, false
	case string:
		return parseLeadingInt(t)
	default:
		return 0, false
	}
}

func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
