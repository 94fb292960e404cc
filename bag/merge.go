package bag

import (
	"fmt"

	"github.com/zero-day-ai/plugkit/diag"
)

// Merge deep-merges src into dst in place and returns dst.
//
// For every member of src, in src's order: a nested bag is merged into a
// fresh copy of dst's bag of the same name (or into an empty bag when dst has
// none); any other value replaces dst's member outright. Members of dst that
// src does not name are kept. src is never modified and no bag from src is
// shared with dst afterwards.
func Merge(dst, src *Bag) *Bag {
	src.Each(func(key string, v any) bool {
		dst.Set(key, MergeValue(dst.Value(key), v))
		return true
	})
	return dst
}

// MergeValue returns the value that results from layering next over prev:
// a deep merge when next is a bag, next itself otherwise.
func MergeValue(prev, next any) any {
	nb, ok := next.(*Bag)
	if !ok {
		return cloneValue(next)
	}
	var base *Bag
	if pb, ok := prev.(*Bag); ok {
		base = pb.Clone()
	} else {
		base = New()
	}
	return Merge(base, nb)
}

// Extend deep-merges src into dst and returns dst. src may be a *Bag or a
// map[string]any. Any other input is a programming error in the caller: it
// is reported on the deferred diagnostics path and dst is returned unchanged.
func Extend(dst *Bag, src any) *Bag {
	switch t := src.(type) {
	case nil:
		return dst
	case *Bag:
		return Merge(dst, t)
	case map[string]any:
		return Merge(dst, FromMap(t))
	default:
		diag.Default().Defer(diag.New("", "extend", diag.CodeInvalidMergeInput,
			fmt.Sprintf("passed object is not supported: %v", src)).
			WithDetails(map[string]any{"type": fmt.Sprintf("%T", src)}))
		return dst
	}
}

// Diff returns a bag holding the members of first whose keys appear in none
// of the others, in first's order.
func Diff(first *Bag, others ...*Bag) *Bag {
	out := New()
	first.Each(func(key string, v any) bool {
		for _, o := range others {
			if o.Has(key) {
				return true
			}
		}
		out.Set(key, cloneValue(v))
		return true
	})
	return out
}

// Intersect returns a bag holding the members of first whose keys appear in
// every one of the others, in first's order.
func Intersect(first *Bag, others ...*Bag) *Bag {
	out := New()
	first.Each(func(key string, v any) bool {
		for _, o := range others {
			if !o.Has(key) {
				return true
			}
		}
		out.Set(key, cloneValue(v))
		return true
	})
	return out
}
