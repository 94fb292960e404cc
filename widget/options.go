package widget

import (
	"context"
	"fmt"

	"github.com/zero-day-ai/plugkit/bag"
	"github.com/zero-day-ai/plugkit/plugin"
)

const (
	optOriginalTrigger = "originalTrigger"
	optTrigger         = "trigger"
	triggerClick       = "click"
	triggerManual      = "manual"
)

// Options computes the options for one element: the implementation's
// DEFAULTS overlaid member by member with the element's data attributes.
// For popovers the configured trigger is kept as originalTrigger, and a
// click trigger becomes manual so the site can toggle it itself.
func Options(impl *plugin.Implementation, data *bag.Bag) *bag.Bag {
	opts := impl.Defaults()
	data.Each(func(k string, v any) bool {
		opts.Set(k, v)
		return true
	})

	if impl.ID() == PopoverID {
		trigger := opts.Value(optTrigger)
		opts.Set(optOriginalTrigger, trigger)
		if trigger == triggerClick {
			opts.Set(optTrigger, triggerManual)
		}
	}
	return opts
}

// Option resolves one option for an instance: DEFAULTS deep-merged with the
// instance options. When name is absent (or inst is nil) it returns
// fallback.
func Option(impl *plugin.Implementation, inst *plugin.Instance, name string, fallback any) any {
	opts := impl.Defaults()
	if inst != nil {
		bag.Merge(opts, inst.Options())
	}
	if v, ok := opts.Lookup(name); ok {
		return v
	}
	return fallback
}

// Attach builds one instance per element of the widget registered under id,
// using Options for each element's data. It returns nothing when the widget
// is not enabled.
func Attach(ctx context.Context, reg Getter, id string, elements []*bag.Bag) ([]*plugin.Instance, error) {
	if !Enabled(reg, id) {
		return nil, nil
	}
	impl := reg.Get(id)

	out := make([]*plugin.Instance, 0, len(elements))
	for i, data := range elements {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		inst, err := impl.New(Options(impl, data))
		if err != nil {
			return out, fmt.Errorf("%s element %d: %w", id, i, err)
		}
		out = append(out, inst)
	}
	return out, nil
}

// Detach destroys the given instances.
func Detach(instances []*plugin.Instance) error {
	for _, inst := range instances {
		if _, err := inst.Call("destroy"); err != nil {
			return err
		}
	}
	return nil
}
