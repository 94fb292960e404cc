// Package plugkit lets a site override the behavior and defaults of widget
// plugins it does not own, without editing their source.
//
// # Core Concepts
//
// The package is organized around a registry of named plugins:
//
//   - Plugins: a constructor plus static members (such as DEFAULTS) and
//     prototype members shared by every instance, see package plugin
//   - Extensions: callbacks that receive the current plugin and the site
//     settings, and return members to merge in or a whole replacement
//   - Settings: the read-only site configuration, see package settings
//   - Diagnostics: the non-throwing channel registration failures are
//     reported on, see package diag
//
// # Getting Started
//
// Create a framework with the site settings, then create, extend or replace
// plugins by identifier:
//
//	fw, err := plugkit.New(plugkit.WithSettings(settings.New("popover_enabled", true)))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := fw.CreatePlugin(ctx, "popover", widget.NewBase("popover", widget.PopoverDefaults())); err != nil {
//	    log.Fatal(err)
//	}
//
//	_, err = fw.ExtendPlugin(ctx, "popover", plugin.Extension(func(s *settings.Settings) *bag.Bag {
//	    return bag.Of("DEFAULTS", bag.Of("enabled", s.Bool("popover_enabled")))
//	}))
//
// The package-level CreatePlugin, ExtendPlugin, ReplacePlugin and Once act on
// a process-wide framework returned by Default.
//
// # Errors
//
// Registration never panics. A failed call returns a nil implementation and
// a *diag.Error matching one of the sentinel errors in this package:
//
//	if errors.Is(err, plugkit.ErrUnknownIdentifier) {
//	    // nothing to extend
//	}
//
// In dev mode (the "dev" setting) failures are also logged.
//
// # Declarative extensions
//
// Extensions that only set data can be listed in a YAML manifest, see
// package manifest and WithManifest.
//
// # Observability
//
// WithTracer and WithMeter record a span and a counter per registry
// operation, and a counter per diagnostic report. Without them all
// instruments are noops.
package plugkit
