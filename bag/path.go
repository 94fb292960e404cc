package bag

import "strings"

// Lookup resolves a dotted path such as "DEFAULTS.delay.show" through nested
// bags. It reports false when any segment is missing or not a bag.
func (b *Bag) Lookup(path string) (any, bool) {
	if b == nil || path == "" {
		return nil, false
	}
	parts := strings.Split(path, ".")
	cur := b
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur.Value(p).(*Bag)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur.Get(parts[len(parts)-1])
}

// SetPath stores v at a dotted path, creating intermediate bags. A non-bag
// value sitting on an intermediate segment is replaced by a new bag.
func (b *Bag) SetPath(path string, v any) *Bag {
	parts := strings.Split(path, ".")
	cur := b
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur.Value(p).(*Bag)
		if !ok {
			next = New()
			cur.Set(p, next)
		}
		cur = next
	}
	cur.Set(parts[len(parts)-1], v)
	return b
}
