package plugkit

import (
	"context"
	"sync"

	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
)

var (
	defaultMu sync.RWMutex
	defaultFw *Framework
)

// Default returns the process-wide framework, creating it with default
// options on first use.
func Default() *Framework {
	defaultMu.RLock()
	f := defaultFw
	defaultMu.RUnlock()
	if f != nil {
		return f
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultFw == nil {
		// New cannot fail without a settings file or manifests.
		defaultFw, _ = New()
	}
	return defaultFw
}

// SetDefault replaces the process-wide framework and returns the previous
// one. Passing nil resets it, so the next Default call creates a fresh
// framework. Tests use this to isolate registrations:
//
//	prev := plugkit.SetDefault(nil)
//	defer plugkit.SetDefault(prev)
func SetDefault(f *Framework) *Framework {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultFw
	defaultFw = f
	return prev
}

// CreatePlugin registers a plugin with the default framework.
func CreatePlugin(ctx context.Context, id string, impl *plugin.Implementation, allowNoConflict ...bool) (*plugin.Implementation, error) {
	return Default().CreatePlugin(ctx, id, impl, allowNoConflict...)
}

// ExtendPlugin extends a plugin of the default framework.
func ExtendPlugin(ctx context.Context, id string, cb plugin.ExtendFunc) (*plugin.Implementation, error) {
	return Default().ExtendPlugin(ctx, id, cb)
}

// ReplacePlugin replaces a plugin of the default framework.
func ReplacePlugin(ctx context.Context, id string, cb plugin.ExtendFunc, allowNoConflict ...bool) (*plugin.Implementation, error) {
	return Default().ReplacePlugin(ctx, id, cb, allowNoConflict...)
}

// Once runs fn at most once per id against the default framework.
func Once(id string, fn func(s *settings.Settings)) bool {
	return Default().Once(id, fn)
}
