package plugin

import (
	"fmt"

	"github.com/zero-day-ai/plugkit/bag"
)

// optionMember is the prototype member name of the option accessor.
const optionMember = "option"

// installOptionLocked gives the prototype an option accessor unless it
// already has a member of that name. The caller holds impl.mu.
func (impl *Implementation) installOptionLocked() {
	if impl.proto.Has(optionMember) {
		return
	}
	impl.proto.Set(optionMember, Fn(optionAccessor))
}

// optionAccessor reads and writes instance options by dotted path:
//
//	option()            -> copy of all options
//	option("a.b")       -> value at a.b, or nil
//	option("a.b", v)    -> set a.b to v
//	option(bag)         -> deep-merge bag into the options
func optionAccessor(c *Call) (any, error) {
	inst := c.Instance()
	if inst == nil {
		return nil, fmt.Errorf("option: receiver is %T, not an instance", c.Receiver)
	}

	if len(c.Args) == 0 {
		return inst.Options(), nil
	}

	switch key := c.Args[0].(type) {
	case string:
		if len(c.Args) == 1 {
			inst.mu.RLock()
			v, ok := inst.options.Lookup(key)
			inst.mu.RUnlock()
			if !ok {
				return nil, nil
			}
			return copyValue(v), nil
		}
		inst.mu.Lock()
		inst.options.SetPath(key, bag.Convert(c.Args[1]))
		inst.mu.Unlock()
		return nil, nil
	case *bag.Bag:
		inst.MergeOptions(key)
		return nil, nil
	case map[string]any:
		inst.MergeOptions(bag.FromMap(key))
		return nil, nil
	default:
		return nil, fmt.Errorf("option: unsupported key type %T", c.Args[0])
	}
}
