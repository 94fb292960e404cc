package plugin

import (
	"sync"

	"github.com/zero-day-ai/plugkit/bag"
)

// Instance is an object built by Implementation.New. It owns an options bag
// and a state bag; its methods are resolved through the implementation's
// prototype at call time, so extensions applied after construction are
// visible to existing instances.
type Instance struct {
	impl *Implementation

	mu      sync.RWMutex
	options *bag.Bag
	state   *bag.Bag
}

// Implementation returns the implementation the instance was built from.
func (i *Instance) Implementation() *Implementation {
	return i.impl
}

// Call invokes a prototype method with the instance as receiver.
func (i *Instance) Call(name string, args ...any) (any, error) {
	m, err := i.impl.member(false, name)
	if err != nil {
		return nil, err
	}
	return m.Invoke(i, args...)
}

// Option invokes the "option" accessor. See the accessor for the argument forms.
func (i *Instance) Option(args ...any) (any, error) {
	return i.Call(optionMember, args...)
}

// Options returns a deep copy of the instance options.
func (i *Instance) Options() *bag.Bag {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.options.Clone()
}

// SetOptions replaces the instance options with a copy of b.
func (i *Instance) SetOptions(b *bag.Bag) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if b == nil {
		i.options = bag.New()
		return
	}
	i.options = b.Clone()
}

// MergeOptions deep-merges b into the instance options.
func (i *Instance) MergeOptions(b *bag.Bag) {
	i.mu.Lock()
	defer i.mu.Unlock()
	bag.Merge(i.options, b)
}

// Get returns a state value, for use by methods that keep per-instance state.
func (i *Instance) Get(key string) any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state.Value(key)
}

// Set stores a state value.
func (i *Instance) Set(key string, v any) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state.Set(key, v)
}
