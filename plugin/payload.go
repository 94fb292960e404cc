package plugin

import (
	"github.com/zero-day-ai/plugkit/bag"
	"github.com/zero-day-ai/plugkit/settings"
)

// ExtendFunc computes an extension. It receives the implementation currently
// registered under the identifier and the host settings, and returns an
// Augmentation (for Extend) or a Replacement (for Replace).
type ExtendFunc func(current *Implementation, s *settings.Settings) Payload

// Payload is the result of an ExtendFunc: either an Augmentation or a
// Replacement.
type Payload interface {
	payload()
}

// Augmentation holds members to merge into an existing implementation.
// Either bag may be nil.
type Augmentation struct {
	Proto  *bag.Bag
	Static *bag.Bag
}

func (Augmentation) payload() {}

// Replacement holds an implementation that takes over an identifier.
type Replacement struct {
	Impl *Implementation
}

func (Replacement) payload() {}

// prototypeKey names the member of a raw bag that holds prototype members.
const prototypeKey = "prototype"

// AugmentationFromBag splits a raw extension bag: the member named
// "prototype", when it is a bag, becomes the prototype sub-bag and every
// other member is static. A "prototype" member that is not a bag is dropped.
// b is not modified.
func AugmentationFromBag(b *bag.Bag) Augmentation {
	static := b.Clone()
	if static == nil {
		return Augmentation{}
	}
	proto := static.Bag(prototypeKey)
	static.Delete(prototypeKey)
	return Augmentation{Proto: proto, Static: static}
}

// Extension is a convenience for ExtendFuncs that only depend on settings
// and return a raw bag.
//
// Example:
//
//	reg.Extend(ctx, "tooltip", plugin.Extension(func(s *settings.Settings) *bag.Bag {
//	    return bag.Of("DEFAULTS", bag.Of("enabled", s.Bool("tooltip_enabled")))
//	}))
func Extension(fn func(s *settings.Settings) *bag.Bag) ExtendFunc {
	return func(_ *Implementation, s *settings.Settings) Payload {
		b := fn(s)
		if b == nil {
			return nil
		}
		return AugmentationFromBag(b)
	}
}

// Replace is a convenience for ExtendFuncs that return a prebuilt implementation.
func Replace(impl *Implementation) ExtendFunc {
	return func(*Implementation, *settings.Settings) Payload {
		return Replacement{Impl: impl}
	}
}

// augmentation extracts an Augmentation from a payload.
func augmentation(p Payload) (Augmentation, bool) {
	switch t := p.(type) {
	case Augmentation:
		return t, true
	case *Augmentation:
		if t != nil {
			return *t, true
		}
	}
	return Augmentation{}, false
}

// replacement extracts a usable replacement implementation from a payload.
func replacement(p Payload) (*Implementation, bool) {
	var impl *Implementation
	switch t := p.(type) {
	case Replacement:
		impl = t.Impl
	case *Replacement:
		if t != nil {
			impl = t.Impl
		}
	}
	if impl == nil || impl.Constructor() == nil {
		return nil, false
	}
	return impl, true
}

// describePayload renders a payload for diagnostics.
func describePayload(p Payload) any {
	switch t := p.(type) {
	case nil:
		return nil
	case Augmentation:
		return t.Static
	case *Augmentation:
		if t != nil {
			return t.Static
		}
	case Replacement:
		return "replacement"
	case *Replacement:
		return "replacement"
	}
	return "unknown payload"
}
