// Package widget provides the popover and tooltip plugins a site extends
// with its configured defaults, plus the helpers that compute per-element
// options from those defaults.
package widget

import (
	"context"
	"errors"
	"fmt"

	"github.com/zero-day-ai/plugkit/bag"
	"github.com/zero-day-ai/plugkit/plugin"
)

// Plugin identifiers.
const (
	PopoverID = "popover"
	TooltipID = "tooltip"
)

// DefaultsKey is the static member holding a widget's default options.
const DefaultsKey = "DEFAULTS"

// Instance state keys.
const (
	stateVisible   = "visible"
	stateDestroyed = "destroyed"
)

// ErrDestroyed is returned by the visibility methods of a destroyed instance.
var ErrDestroyed = errors.New("widget destroyed")

// Getter is the read side of a plugin.Store.
type Getter interface {
	Get(id string) *plugin.Implementation
}

// NewBase builds a widget implementation. Its constructor sets the instance
// options to defaults overlaid with the optional options bag passed to New.
// The prototype tracks visibility:
//
//	show, hide, toggle  change the "visible" state and return the instance
//	destroy             hides the instance and refuses further changes
//
// toggle dispatches through show and hide, so extensions of those apply.
func NewBase(name string, defaults *bag.Bag) *plugin.Implementation {
	if defaults == nil {
		defaults = bag.New()
	}
	return plugin.NewImplementation(construct).
		WithStatic("NAME", name).
		WithStatic(DefaultsKey, defaults.Clone()).
		WithMethod("show", setVisible(true)).
		WithMethod("hide", setVisible(false)).
		WithMethod("toggle", toggle).
		WithMethod("destroy", destroy)
}

func construct(c *plugin.Call) (any, error) {
	inst := c.Instance()
	if inst == nil {
		return nil, fmt.Errorf("widget: constructor receiver is %T", c.Receiver)
	}
	opts := c.Implementation().Defaults()
	switch t := c.Arg(0).(type) {
	case nil:
	case *bag.Bag:
		bag.Merge(opts, t)
	case map[string]any:
		bag.Merge(opts, bag.FromMap(t))
	default:
		return nil, fmt.Errorf("widget: options must be a bag, got %T", t)
	}
	inst.SetOptions(opts)
	inst.Set(stateVisible, false)
	return nil, nil
}

func setVisible(visible bool) plugin.Func {
	return func(c *plugin.Call) (any, error) {
		inst := c.Instance()
		if inst == nil {
			return nil, fmt.Errorf("widget: receiver is %T", c.Receiver)
		}
		if destroyed, _ := inst.Get(stateDestroyed).(bool); destroyed {
			return nil, ErrDestroyed
		}
		inst.Set(stateVisible, visible)
		return inst, nil
	}
}

func toggle(c *plugin.Call) (any, error) {
	inst := c.Instance()
	if inst == nil {
		return nil, fmt.Errorf("widget: receiver is %T", c.Receiver)
	}
	if Visible(inst) {
		return inst.Call("hide")
	}
	return inst.Call("show")
}

func destroy(c *plugin.Call) (any, error) {
	inst := c.Instance()
	if inst == nil {
		return nil, fmt.Errorf("widget: receiver is %T", c.Receiver)
	}
	inst.Set(stateVisible, false)
	inst.Set(stateDestroyed, true)
	return nil, nil
}

// Visible reports whether the instance is shown.
func Visible(inst *plugin.Instance) bool {
	v, _ := inst.Get(stateVisible).(bool)
	return v
}

// Enabled reports whether the widget registered under id has truthy
// DEFAULTS.enabled. Unknown identifiers are disabled.
func Enabled(reg Getter, id string) bool {
	impl := reg.Get(id)
	if impl == nil {
		return false
	}
	v, _ := impl.StaticValue(DefaultsKey + ".enabled")
	return truthy(v)
}

// Register creates the base popover and tooltip plugins.
func Register(ctx context.Context, store plugin.Store) error {
	if _, err := store.Create(ctx, PopoverID, NewBase(PopoverID, PopoverDefaults())); err != nil {
		return err
	}
	if _, err := store.Create(ctx, TooltipID, NewBase(TooltipID, TooltipDefaults())); err != nil {
		return err
	}
	return nil
}

// PopoverDefaults are the framework defaults before site settings apply.
func PopoverDefaults() *bag.Bag {
	return bag.Of(
		"animation", true,
		"placement", "right",
		"selector", false,
		"trigger", "click",
		"title", "",
		"content", "",
		"delay", 0,
		"html", false,
		"container", false,
	)
}

// TooltipDefaults are the framework defaults before site settings apply.
func TooltipDefaults() *bag.Bag {
	return bag.Of(
		"animation", true,
		"placement", "top",
		"selector", false,
		"trigger", "hover focus",
		"title", "",
		"delay", 0,
		"html", false,
		"container", false,
	)
}
