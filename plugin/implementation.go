package plugin

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zero-day-ai/plugkit/bag"
)

// Sentinel errors for invoking members. These are runtime errors of the
// widget code, not framework diagnostics.
var (
	// ErrMethodNotFound indicates the named member does not exist.
	ErrMethodNotFound = errors.New("method not found")

	// ErrNotCallable indicates the named member exists but holds data.
	ErrNotCallable = errors.New("member is not callable")
)

// Implementation is a pluggable unit: a constructor plus a static surface
// (type-level members such as DEFAULTS) and a prototype surface
// (instance-level members). Both surfaces are guarded by the
// implementation's own lock; members are snapshotted before being invoked,
// so methods may freely call back into the implementation or the registry.
type Implementation struct {
	mu     sync.RWMutex
	id     string
	ctor   *Method
	static *bag.Bag
	proto  *bag.Bag
}

// NewImplementation creates an implementation around a constructor.
// The constructor runs with the new *Instance as receiver.
func NewImplementation(ctor Func) *Implementation {
	impl := &Implementation{
		static: bag.New(),
		proto:  bag.New(),
	}
	if ctor != nil {
		impl.ctor = Fn(ctor)
	}
	return impl
}

// WithStatic sets a static member and returns the implementation.
// Func values are stored as chain nodes; map values are converted to bags.
func (impl *Implementation) WithStatic(name string, v any) *Implementation {
	impl.mu.Lock()
	defer impl.mu.Unlock()
	impl.static.Set(name, normalizeMember(v))
	return impl
}

// WithProto sets a prototype member and returns the implementation.
func (impl *Implementation) WithProto(name string, v any) *Implementation {
	impl.mu.Lock()
	defer impl.mu.Unlock()
	impl.proto.Set(name, normalizeMember(v))
	return impl
}

// WithMethod is WithProto for a Func.
func (impl *Implementation) WithMethod(name string, fn Func) *Implementation {
	return impl.WithProto(name, fn)
}

func normalizeMember(v any) any {
	switch t := v.(type) {
	case Func:
		return Fn(t)
	case func(*Call) (any, error):
		return Fn(t)
	default:
		return bag.Convert(v)
	}
}

// ID returns the identifier the implementation is registered under, or "".
func (impl *Implementation) ID() string {
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	return impl.id
}

// Constructor returns the constructor chain.
func (impl *Implementation) Constructor() *Method {
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	return impl.ctor
}

// Static returns a deep copy of the static surface.
func (impl *Implementation) Static() *bag.Bag {
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	return impl.static.Clone()
}

// Proto returns a deep copy of the prototype surface.
func (impl *Implementation) Proto() *bag.Bag {
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	return impl.proto.Clone()
}

// StaticValue resolves a dotted path on the static surface, e.g.
// "DEFAULTS.enabled". Bag results are copies.
func (impl *Implementation) StaticValue(path string) (any, bool) {
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	v, ok := impl.static.Lookup(path)
	return copyValue(v), ok
}

// ProtoValue resolves a dotted path on the prototype surface.
func (impl *Implementation) ProtoValue(path string) (any, bool) {
	impl.mu.RLock()
	defer impl.mu.RUnlock()
	v, ok := impl.proto.Lookup(path)
	return copyValue(v), ok
}

func copyValue(v any) any {
	if b, ok := v.(*bag.Bag); ok {
		return b.Clone()
	}
	return v
}

// Defaults returns a copy of the DEFAULTS static member, or an empty bag.
func (impl *Implementation) Defaults() *bag.Bag {
	if d, ok := impl.StaticValue("DEFAULTS"); ok {
		if b, ok := d.(*bag.Bag); ok {
			return b
		}
	}
	return bag.New()
}

// Call invokes a static method with the implementation as receiver.
func (impl *Implementation) Call(name string, args ...any) (any, error) {
	m, err := impl.member(true, name)
	if err != nil {
		return nil, err
	}
	return m.Invoke(impl, args...)
}

// New constructs an instance: it gets an empty options bag and the
// constructor chain runs with the instance as receiver.
func (impl *Implementation) New(args ...any) (*Instance, error) {
	inst := &Instance{
		impl:    impl,
		options: bag.New(),
		state:   bag.New(),
	}
	ctor := impl.Constructor()
	if ctor == nil {
		return nil, fmt.Errorf("plugin %q: %w", impl.ID(), ErrNotCallable)
	}
	if _, err := ctor.Invoke(inst, args...); err != nil {
		return nil, err
	}
	return inst, nil
}

// member snapshots a callable member of one surface under the read lock.
func (impl *Implementation) member(static bool, name string) (*Method, error) {
	impl.mu.RLock()
	surface := impl.proto
	if static {
		surface = impl.static
	}
	v, ok := surface.Get(name)
	id := impl.id
	impl.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("plugin %q: %s: %w", id, name, ErrMethodNotFound)
	}
	m, ok := v.(*Method)
	if !ok {
		return nil, fmt.Errorf("plugin %q: %s: %w", id, name, ErrNotCallable)
	}
	return m, nil
}

// Member returns the prototype member stored under name as a chain node.
// It returns nil when the member is absent or holds data.
func (impl *Implementation) Member(name string) *Method {
	m, _ := impl.member(false, name)
	return m
}

// StaticMember returns the static member stored under name as a chain node.
func (impl *Implementation) StaticMember(name string) *Method {
	m, _ := impl.member(true, name)
	return m
}
