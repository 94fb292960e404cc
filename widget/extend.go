package widget

import (
	"context"

	"github.com/zero-day-ai/plugkit/bag"
	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
)

// ExtendPopover merges the site's popover_* settings into the popover
// DEFAULTS.
func ExtendPopover(ctx context.Context, store plugin.Store) (*plugin.Implementation, error) {
	return store.Extend(ctx, PopoverID, plugin.Extension(PopoverSiteDefaults), plugin.WithSource("widget.popover"))
}

// ExtendTooltip merges the site's tooltip_* settings into the tooltip
// DEFAULTS.
func ExtendTooltip(ctx context.Context, store plugin.Store) (*plugin.Implementation, error) {
	return store.Extend(ctx, TooltipID, plugin.Extension(TooltipSiteDefaults), plugin.WithSource("widget.tooltip"))
}

// PopoverSiteDefaults builds the popover extension from settings. Flags are
// coerced to booleans and delay is read as an integer (nil when unreadable).
// The other values pass through as given; absent settings leave the
// corresponding default alone.
func PopoverSiteDefaults(s *settings.Settings) *bag.Bag {
	d := bag.Of(
		"animation", s.Bool("popover_animation"),
		"autoClose", s.Bool("popover_auto_close"),
	)
	passThrough(d, s, "enabled", "popover_enabled")
	d.Set("html", s.Bool("popover_html"))
	passThrough(d, s, "placement", "popover_placement")
	passThrough(d, s, "selector", "popover_selector")
	passThrough(d, s, "trigger", "popover_trigger")
	passThrough(d, s, "title", "popover_title")
	passThrough(d, s, "content", "popover_content")
	d.Set("delay", intOrNil(s, "popover_delay"))
	passThrough(d, s, "container", "popover_container")
	return bag.Of(DefaultsKey, d)
}

// TooltipSiteDefaults builds the tooltip extension from settings.
func TooltipSiteDefaults(s *settings.Settings) *bag.Bag {
	d := bag.Of("animation", s.Bool("tooltip_animation"))
	passThrough(d, s, "enabled", "tooltip_enabled")
	d.Set("html", s.Bool("tooltip_html"))
	passThrough(d, s, "placement", "tooltip_placement")
	passThrough(d, s, "selector", "tooltip_selector")
	passThrough(d, s, "trigger", "tooltip_trigger")
	d.Set("delay", intOrNil(s, "tooltip_delay"))
	passThrough(d, s, "container", "tooltip_container")
	return bag.Of(DefaultsKey, d)
}

func passThrough(d *bag.Bag, s *settings.Settings, key, path string) {
	if v, ok := s.Get(path); ok {
		d.Set(key, v)
	}
}

func intOrNil(s *settings.Settings, path string) any {
	n, ok := s.Int(path)
	if !ok {
		return nil
	}
	return n
}

func truthy(v any) bool {
	return settings.Truthy(v)
}
