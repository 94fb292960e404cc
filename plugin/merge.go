package plugin

import "github.com/zero-day-ai/plugkit/bag"

// mergeSurface layers every member of src over surface, in src's order.
// Callables are chained over the member they shadow; bags are deep-merged
// into a copy of the existing value; anything else replaces it. It returns
// the names merged.
func mergeSurface(surface, src *bag.Bag) []string {
	var names []string
	src.Each(func(name string, v any) bool {
		names = append(names, name)
		if isCallable(v) {
			prev, _ := surface.Value(name).(*Method)
			// Chain cannot fail on a callable.
			m, _ := Chain(prev, v)
			surface.Set(name, m)
			return true
		}
		surface.Set(name, bag.MergeValue(surface.Value(name), bag.Convert(v)))
		return true
	})
	return names
}

// merge applies an augmentation in place: prototype members first, then
// static members. The caller holds no lock on impl.
func (impl *Implementation) merge(aug Augmentation) (proto, static []string) {
	impl.mu.Lock()
	defer impl.mu.Unlock()

	proto = mergeSurface(impl.proto, aug.Proto)
	static = mergeSurface(impl.static, aug.Static)
	impl.installOptionLocked()
	return proto, static
}

// carryForward seeds impl's static surface with the static members of prev,
// then layers impl's own static members over them. Excluded names are not
// carried.
func (impl *Implementation) carryForward(prev *Implementation, exclude ...string) []string {
	carried := prev.Static()
	for _, name := range exclude {
		carried.Delete(name)
	}

	impl.mu.Lock()
	defer impl.mu.Unlock()

	own := impl.static
	impl.static = carried
	mergeSurface(impl.static, own)
	impl.installOptionLocked()
	return carried.Keys()
}
