// Package manifest loads declarative plugin extensions from YAML.
//
// A manifest lists extensions to apply through a plugin.Store, in document
// order. Each one may be guarded by a CEL condition over the site settings,
// and any string value starting with "=" is a CEL expression whose result
// replaces it when the manifest is applied:
//
//	extensions:
//	  - plugin: popover
//	    when: settings.popover_enabled == true
//	    static:
//	      DEFAULTS:
//	        enabled: true
//	        animation: "=settings.popover_animation"
//	        delay: "=int(settings.popover_delay)"
//
// A value that must start with a literal "=" is written with two, e.g.
// "==cheap" yields "=cheap".
package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/zero-day-ai/plugkit/bag"
	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
)

// ErrInvalidManifest indicates a manifest that cannot be compiled.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest is a compiled list of extensions.
type Manifest struct {
	// Extensions are applied in order.
	Extensions []*Extension `yaml:"extensions"`
}

// Extension is one declarative call to Store.Extend.
type Extension struct {
	// Plugin is the identifier to extend.
	Plugin string `yaml:"plugin"`

	// When is an optional CEL condition; the extension is skipped unless it
	// evaluates to true.
	When string `yaml:"when,omitempty"`

	// Source names the extension in the plugin's layer history. Defaults to
	// the manifest path, or "manifest".
	Source string `yaml:"source,omitempty"`

	// Static members to merge.
	Static *bag.Bag `yaml:"static,omitempty"`

	// Prototype members to merge. Only data members can be declared.
	Prototype *bag.Bag `yaml:"prototype,omitempty"`

	cond     cel.Program
	computed []computedValue
}

// computedValue is a CEL expression found at a path of one surface.
type computedValue struct {
	proto bool
	path  string
	prg   cel.Program
}

// Parse decodes and compiles a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.compile(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads and compiles a manifest file. Extensions without a source
// are attributed to the file.
func Load(path string) (*Manifest, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest file not found: %s", absPath)
		}
		return nil, fmt.Errorf("failed to read manifest file %s: %w", absPath, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", absPath, err)
	}
	for _, ext := range m.Extensions {
		if ext.Source == "" {
			ext.Source = filepath.Base(absPath)
		}
	}
	return m, nil
}

// Apply extends every extension's plugin whose condition holds, and returns
// the number applied. A failing extension does not stop the others; all
// failures are returned joined.
func (m *Manifest) Apply(ctx context.Context, store plugin.Store, s *settings.Settings) (int, error) {
	if s == nil {
		s = settings.Empty()
	}
	vars := map[string]any{"settings": s.Map()}

	applied := 0
	var errs []error
	for i, ext := range m.Extensions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		ok, err := ext.enabled(vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("extensions[%d] (%s): %w", i, ext.Plugin, err))
			continue
		}
		if !ok {
			continue
		}

		aug, err := ext.augmentation(vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("extensions[%d] (%s): %w", i, ext.Plugin, err))
			continue
		}

		source := ext.Source
		if source == "" {
			source = "manifest"
		}
		_, err = store.Extend(ctx, ext.Plugin, func(*plugin.Implementation, *settings.Settings) plugin.Payload {
			return aug
		}, plugin.WithSource(source))
		if err != nil {
			errs = append(errs, fmt.Errorf("extensions[%d] (%s): %w", i, ext.Plugin, err))
			continue
		}
		applied++
	}
	return applied, errors.Join(errs...)
}

// Plugins returns the identifiers the manifest extends, in order, without
// duplicates.
func (m *Manifest) Plugins() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ext := range m.Extensions {
		if !seen[ext.Plugin] {
			seen[ext.Plugin] = true
			out = append(out, ext.Plugin)
		}
	}
	return out
}

func (e *Extension) enabled(vars map[string]any) (bool, error) {
	if e.cond == nil {
		return true, nil
	}
	out, _, err := e.cond.Eval(vars)
	if err != nil {
		return false, fmt.Errorf("when: %w", err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("when: condition returned %T, not bool", out.Value())
	}
	return b, nil
}

// augmentation resolves computed values into copies of the declared bags.
func (e *Extension) augmentation(vars map[string]any) (plugin.Augmentation, error) {
	static := e.Static.Clone()
	if static == nil {
		static = bag.New()
	}
	proto := e.Prototype.Clone()
	if proto == nil {
		proto = bag.New()
	}

	for _, cv := range e.computed {
		v, err := evaluate(cv.prg, vars)
		if err != nil {
			return plugin.Augmentation{}, fmt.Errorf("%s: %w", cv.label(), err)
		}
		if cv.proto {
			proto.SetPath(cv.path, v)
		} else {
			static.SetPath(cv.path, v)
		}
	}
	return plugin.Augmentation{Proto: proto, Static: static}, nil
}

func (cv computedValue) label() string {
	if cv.proto {
		return "prototype." + cv.path
	}
	return "static." + cv.path
}
