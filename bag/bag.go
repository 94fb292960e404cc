// Package bag provides an insertion-ordered member bag used for plugin
// surfaces, extension payloads, options and settings.
//
// A Bag maps string keys to values and enumerates them in the order they were
// first set. Values are treated in three classes by the merge helpers: nested
// bags (plain data bags, merged recursively), callables (left to the caller),
// and everything else (scalars and slices, replaced outright).
package bag

import (
	"fmt"
	"sort"
)

// Bag is an insertion-ordered string-keyed collection.
// The zero value is not usable; create bags with New, Of or FromMap.
type Bag struct {
	keys []string
	vals map[string]any
}

// New creates an empty bag.
func New() *Bag {
	return &Bag{vals: make(map[string]any)}
}

// Of builds a bag from alternating key/value arguments.
// Nested map[string]any values are converted to bags. It panics on an odd
// number of arguments or a non-string key, which is always a programming error.
//
// Example:
//
//	defaults := bag.Of("enabled", false, "placement", "right")
func Of(kv ...any) *Bag {
	if len(kv)%2 != 0 {
		panic("bag: Of requires an even number of arguments")
	}
	b := New()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("bag: key at position %d is %T, not string", i, kv[i]))
		}
		b.Set(key, Convert(kv[i+1]))
	}
	return b
}

// FromMap converts a plain map into a bag. Go maps carry no order, so keys
// are inserted in sorted order to keep enumeration deterministic.
func FromMap(m map[string]any) *Bag {
	b := New()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(k, Convert(m[k]))
	}
	return b
}

// Convert turns map[string]any values (at any depth, including inside
// slices) into bags and returns every other value unchanged.
func Convert(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return FromMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Convert(e)
		}
		return out
	default:
		return v
	}
}

// Len returns the number of members.
func (b *Bag) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Keys returns the member names in enumeration order.
func (b *Bag) Keys() []string {
	if b == nil {
		return nil
	}
	out := make([]string, len(b.keys))
	copy(out, b.keys)
	return out
}

// Has reports whether key is a member.
func (b *Bag) Has(key string) bool {
	if b == nil {
		return false
	}
	_, ok := b.vals[key]
	return ok
}

// Get returns the member value and whether it exists.
func (b *Bag) Get(key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.vals[key]
	return v, ok
}

// Value returns the member value or nil.
func (b *Bag) Value(key string) any {
	v, _ := b.Get(key)
	return v
}

// Bag returns the member as a nested bag, or nil if it is absent or not a bag.
func (b *Bag) Bag(key string) *Bag {
	nested, _ := b.Value(key).(*Bag)
	return nested
}

// Set stores a value. A new key is appended to the enumeration order; an
// existing key keeps its position.
func (b *Bag) Set(key string, v any) *Bag {
	if _, ok := b.vals[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.vals[key] = v
	return b
}

// Delete removes a member and reports whether it existed.
func (b *Bag) Delete(key string) bool {
	if _, ok := b.vals[key]; !ok {
		return false
	}
	delete(b.vals, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
	return true
}

// Each calls fn for every member in enumeration order until fn returns false.
// It iterates over a snapshot of the keys, so fn may modify the bag.
func (b *Bag) Each(fn func(key string, v any) bool) {
	for _, k := range b.Keys() {
		v, ok := b.vals[k]
		if !ok {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

// Clone returns a deep copy. Nested bags are cloned; slices are copied one
// level deep; all other values are shared.
func (b *Bag) Clone() *Bag {
	if b == nil {
		return nil
	}
	out := &Bag{
		keys: make([]string, len(b.keys)),
		vals: make(map[string]any, len(b.vals)),
	}
	copy(out.keys, b.keys)
	for k, v := range b.vals {
		out.vals[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Bag:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Map converts the bag into plain maps, recursively.
func (b *Bag) Map() map[string]any {
	if b == nil {
		return nil
	}
	out := make(map[string]any, len(b.keys))
	for _, k := range b.keys {
		out[k] = plainValue(b.vals[k])
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case *Bag:
		return t.Map()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	default:
		return v
	}
}

// String renders the bag as ordered JSON, for logs and diagnostics.
func (b *Bag) String() string {
	data, err := b.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("bag(%d members)", b.Len())
	}
	return string(data)
}
