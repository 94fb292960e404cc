package plugkit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/zero-day-ai/plugkit/diag"
	"github.com/zero-day-ai/plugkit/manifest"
	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
)

// Framework is the registration surface site code talks to. It wraps a
// plugin registry together with the settings its extensions read and the
// diagnostics channel failures are reported on.
//
// Framework is safe for concurrent use.
type Framework struct {
	logger   *slog.Logger
	registry *plugin.Registry
	settings *settings.Settings
	diag     *diag.Channel

	onceMu sync.Mutex
	once   map[string]bool
}

// New creates a framework.
//
// Example:
//
//	fw, err := plugkit.New(
//	    plugkit.WithSettingsFile("settings.yaml"),
//	    plugkit.WithLogger(logger),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
func New(opts ...Option) (*Framework, error) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	s, err := resolveSettings(cfg)
	if err != nil {
		return nil, err
	}

	reg := cfg.registry
	if reg != nil {
		s = reg.Settings()
	} else {
		ch := cfg.diagnostics
		if ch == nil {
			dopts := []diag.Option{diag.WithLogger(cfg.logger), diag.WithDev(s.Dev())}
			if cfg.meter != nil {
				dopts = append(dopts, diag.WithMeter(cfg.meter))
			}
			ch = diag.NewChannel(dopts...)
		}
		reg = plugin.NewRegistry(
			plugin.WithSettings(s),
			plugin.WithDiagnostics(ch),
			plugin.WithLogger(cfg.logger),
			plugin.WithTracer(cfg.tracer),
			plugin.WithMeter(cfg.meter),
		)
	}

	f := &Framework{
		logger:   cfg.logger,
		registry: reg,
		settings: s,
		diag:     reg.Diagnostics(),
		once:     make(map[string]bool),
	}

	for _, path := range cfg.manifests {
		if _, err := f.ApplyManifestFile(context.Background(), path); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func resolveSettings(cfg *config) (*settings.Settings, error) {
	s := cfg.settings
	if cfg.settingsPath != "" {
		loaded, err := settings.LoadFile(cfg.settingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		if s != nil {
			loaded = loaded.With(s.Bag())
		}
		s = loaded
	}
	if s == nil {
		s = settings.Empty()
	}
	return s, nil
}

// Registry returns the underlying plugin registry.
func (f *Framework) Registry() *plugin.Registry {
	return f.registry
}

// Settings returns the settings handed to extension callbacks.
func (f *Framework) Settings() *settings.Settings {
	return f.settings
}

// Diagnostics returns the channel failures are reported on.
func (f *Framework) Diagnostics() *diag.Channel {
	return f.diag
}

// Plugin returns the active implementation of id, or nil.
func (f *Framework) Plugin(id string) *plugin.Implementation {
	return f.registry.Get(id)
}

// CreatePlugin registers a new plugin. allowNoConflict defaults to true;
// passing false skips the noConflict escape hatch.
func (f *Framework) CreatePlugin(ctx context.Context, id string, impl *plugin.Implementation, allowNoConflict ...bool) (*plugin.Implementation, error) {
	return f.registry.Create(ctx, id, impl, registerOptions(allowNoConflict)...)
}

// ExtendPlugin merges the augmentation returned by cb into the plugin
// registered under id.
func (f *Framework) ExtendPlugin(ctx context.Context, id string, cb plugin.ExtendFunc) (*plugin.Implementation, error) {
	return f.registry.Extend(ctx, id, cb)
}

// ReplacePlugin swaps the plugin registered under id for the implementation
// returned by cb. allowNoConflict behaves as for CreatePlugin.
func (f *Framework) ReplacePlugin(ctx context.Context, id string, cb plugin.ExtendFunc, allowNoConflict ...bool) (*plugin.Implementation, error) {
	return f.registry.Replace(ctx, id, cb, registerOptions(allowNoConflict)...)
}

// Once runs fn with the framework settings the first time it is called for
// id, and does nothing on later calls. It reports whether fn ran.
func (f *Framework) Once(id string, fn func(s *settings.Settings)) bool {
	f.onceMu.Lock()
	if f.once[id] {
		f.onceMu.Unlock()
		return false
	}
	f.once[id] = true
	f.onceMu.Unlock()

	fn(f.settings)
	return true
}

// ApplyManifest applies a compiled manifest with the framework settings.
func (f *Framework) ApplyManifest(ctx context.Context, m *manifest.Manifest) (int, error) {
	n, err := m.Apply(ctx, f.registry, f.settings)
	if err != nil {
		return n, err
	}
	f.logger.DebugContext(ctx, "manifest applied", "extensions", n)
	return n, nil
}

// ApplyManifestFile loads and applies a manifest file.
func (f *Framework) ApplyManifestFile(ctx context.Context, path string) (int, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return 0, fmt.Errorf("failed to load manifest: %w", err)
	}
	return f.ApplyManifest(ctx, m)
}

func registerOptions(allowNoConflict []bool) []plugin.RegisterOption {
	if len(allowNoConflict) == 0 {
		return nil
	}
	return []plugin.RegisterOption{plugin.WithNoConflict(allowNoConflict[0])}
}
