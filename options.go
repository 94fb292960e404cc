package plugkit

import (
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/zero-day-ai/plugkit/diag"
	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
)

// Option configures the Framework.
type Option func(*config)

// config holds configuration for a Framework instance.
type config struct {
	settings     *settings.Settings
	settingsPath string
	logger       *slog.Logger
	tracer       trace.Tracer
	meter        metric.Meter
	registry     *plugin.Registry
	diagnostics  *diag.Channel
	manifests    []string
}

// WithSettings sets the settings handed to every extension callback.
func WithSettings(s *settings.Settings) Option {
	return func(c *config) {
		c.settings = s
	}
}

// WithSettingsFile loads settings from a YAML or JSON file when the
// framework is created. Settings given with WithSettings are merged over
// the file's.
func WithSettingsFile(path string) Option {
	return func(c *config) {
		c.settingsPath = path
	}
}

// WithLogger sets a custom logger for the framework.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithTracer sets an OpenTelemetry tracer for registry operations.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *config) {
		c.tracer = tracer
	}
}

// WithMeter sets an OpenTelemetry meter for registry and diagnostics counters.
func WithMeter(meter metric.Meter) Option {
	return func(c *config) {
		c.meter = meter
	}
}

// WithRegistry uses an existing registry instead of creating one. The
// registry keeps its own settings, diagnostics and telemetry.
func WithRegistry(reg *plugin.Registry) Option {
	return func(c *config) {
		c.registry = reg
	}
}

// WithDiagnostics sets the diagnostics channel. If not provided, a channel
// is created whose dev mode follows the "dev" setting.
func WithDiagnostics(ch *diag.Channel) Option {
	return func(c *config) {
		c.diagnostics = ch
	}
}

// WithManifest applies a manifest file once the framework is created.
// May be given more than once; manifests apply in order.
func WithManifest(path string) Option {
	return func(c *config) {
		c.manifests = append(c.manifests, path)
	}
}
