package plugin

import (
	"fmt"

	"github.com/zero-day-ai/plugkit/diag"
)

// Func is the callable form shared by constructors, prototype methods and
// static methods. The Call carries the receiver, the arguments, and the
// implementation being shadowed.
type Func func(call *Call) (any, error)

// Method is one node of a call chain: the logic of one layer plus a link to
// the method it shadows. Methods are immutable once built, so a chain can be
// invoked concurrently and re-entrantly.
type Method struct {
	fn   Func
	prev *Method
}

// Fn wraps a Func as a chain node with no predecessor.
func Fn(fn Func) *Method {
	return &Method{fn: fn}
}

// Chain layers next over prev. Inside next, Call.Super invokes prev with the
// same receiver; a nil prev behaves as a no-op returning (nil, nil).
//
// next may be a Func, a func(*Call) (any, error), or a *Method. A *Method
// that already shadows something keeps its own chain and is invoked as a
// whole. Any other value is rejected with diag.CodeInvalidReceiver.
func Chain(prev *Method, next any) (*Method, error) {
	switch t := next.(type) {
	case *Method:
		if t == nil || t.fn == nil {
			break
		}
		if t.prev == nil {
			return &Method{fn: t.fn, prev: prev}, nil
		}
		return &Method{prev: prev, fn: func(c *Call) (any, error) {
			return t.Invoke(c.Receiver, c.Args...)
		}}, nil
	case Func:
		if t != nil {
			return &Method{fn: t, prev: prev}, nil
		}
	case func(*Call) (any, error):
		if t != nil {
			return &Method{fn: t, prev: prev}, nil
		}
	}
	return nil, diag.Newf("", "chain", diag.CodeInvalidReceiver, map[string]any{
		"@member": "",
		"@value":  fmt.Sprintf("%T", next),
	})
}

// Invoke runs the method with the given receiver and arguments.
func (m *Method) Invoke(receiver any, args ...any) (any, error) {
	if m == nil || m.fn == nil {
		return nil, nil
	}
	return m.fn(&Call{Receiver: receiver, Args: args, prev: m.prev})
}

// Prev returns the method this one shadows, or nil.
func (m *Method) Prev() *Method {
	if m == nil {
		return nil
	}
	return m.prev
}

// Depth returns the number of layers in the chain ending at m.
func (m *Method) Depth() int {
	n := 0
	for cur := m; cur != nil; cur = cur.prev {
		n++
	}
	return n
}

// Call is the per-invocation context handed to a Func. It lives only for
// the duration of one invocation; nothing is stored on the receiver.
type Call struct {
	// Receiver is the *Instance for prototype methods and constructors, and
	// the *Implementation for static methods.
	Receiver any

	// Args are the invocation arguments.
	Args []any

	prev *Method
}

// Super invokes the shadowed method with the same receiver and arguments.
func (c *Call) Super() (any, error) {
	return c.prev.Invoke(c.Receiver, c.Args...)
}

// SuperWith invokes the shadowed method with the same receiver and new
// arguments.
func (c *Call) SuperWith(args ...any) (any, error) {
	return c.prev.Invoke(c.Receiver, args...)
}

// HasSuper reports whether a shadowed method exists.
func (c *Call) HasSuper() bool {
	return c.prev != nil
}

// Arg returns the i-th argument, or nil when there are fewer arguments.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// Instance returns the receiver as an *Instance, or nil.
func (c *Call) Instance() *Instance {
	inst, _ := c.Receiver.(*Instance)
	return inst
}

// Implementation returns the implementation the receiver belongs to: the
// receiver itself for static calls, the instance's implementation otherwise.
func (c *Call) Implementation() *Implementation {
	switch r := c.Receiver.(type) {
	case *Implementation:
		return r
	case *Instance:
		return r.Implementation()
	}
	return nil
}

// isCallable reports whether v can be layered with Chain.
func isCallable(v any) bool {
	switch t := v.(type) {
	case *Method:
		return t != nil && t.fn != nil
	case Func:
		return t != nil
	case func(*Call) (any, error):
		return t != nil
	}
	return false
}
