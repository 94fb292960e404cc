// Package plugin provides the registry that lets site code create, extend
// and replace named widget plugins without editing their source.
//
// # Core Concepts
//
// An Implementation is a constructor plus two member surfaces:
//   - the static surface holds type-level members such as DEFAULTS
//   - the prototype surface holds the methods every instance resolves
//
// Instances look members up at call time, so an extension applied after an
// instance was built is visible to it.
//
// # Registering
//
// A Registry holds at most one implementation per identifier:
//
//	reg := plugin.NewRegistry(plugin.WithSettings(s))
//
//	base := plugin.NewImplementation(func(c *plugin.Call) (any, error) {
//	    c.Instance().SetOptions(bag.Of("placement", "right"))
//	    return nil, nil
//	}).WithStatic("DEFAULTS", bag.Of("enabled", false))
//
//	if _, err := reg.Create(ctx, "popover", base); err != nil {
//	    return err
//	}
//
// Create fails when the identifier is taken; Extend and Replace fail when
// it is not. Every failure is a *diag.Error, also reported on the
// registry's diagnostics channel, and the returned implementation is nil.
//
// # Extending
//
// Extend merges members into the existing implementation. Callables are
// layered over the member they shadow and may reach it through Call.Super;
// data bags are deep-merged; everything else is replaced:
//
//	reg.Extend(ctx, "popover", plugin.Extension(func(s *settings.Settings) *bag.Bag {
//	    return bag.Of(
//	        "DEFAULTS", bag.Of("enabled", s.Bool("popover_enabled")),
//	        "prototype", bag.Of("show", plugin.Func(func(c *plugin.Call) (any, error) {
//	            // site behavior, then the original show
//	            return c.Super()
//	        })),
//	    )
//	}))
//
// # Replacing
//
// Replace swaps in a new implementation. Static members accumulated on the
// old implementation carry over unless the replacement defines them, and the
// new constructor can reach the old one through Call.Super.
//
// # Escape hatch
//
// Unless disabled with WithNoConflict(false), Create and Replace give the
// implementation a static noConflict member that puts the previous
// occupant of the identifier back.
package plugin
