package plugkit

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/plugkit/diag"
	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
)

func TestOptions(t *testing.T) {
	t.Run("WithSettings", func(t *testing.T) {
		s := settings.New("dev", true)
		cfg := &config{}
		WithSettings(s)(cfg)
		assert.Same(t, s, cfg.settings)
	})

	t.Run("WithSettingsFile", func(t *testing.T) {
		cfg := &config{}
		WithSettingsFile("/etc/site/settings.yaml")(cfg)
		assert.Equal(t, "/etc/site/settings.yaml", cfg.settingsPath)
	})

	t.Run("WithLogger", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		cfg := &config{}
		WithLogger(logger)(cfg)
		assert.Same(t, logger, cfg.logger)
	})

	t.Run("WithTracer and WithMeter", func(t *testing.T) {
		tracer := tracenoop.NewTracerProvider().Tracer("test")
		meter := noop.NewMeterProvider().Meter("test")
		cfg := &config{}
		WithTracer(tracer)(cfg)
		WithMeter(meter)(cfg)
		assert.Equal(t, tracer, cfg.tracer)
		assert.Equal(t, meter, cfg.meter)
	})

	t.Run("WithRegistry and WithDiagnostics", func(t *testing.T) {
		reg := plugin.NewRegistry()
		ch := diag.NewChannel()
		cfg := &config{}
		WithRegistry(reg)(cfg)
		WithDiagnostics(ch)(cfg)
		assert.Same(t, reg, cfg.registry)
		assert.Same(t, ch, cfg.diagnostics)
	})

	t.Run("WithManifest accumulates", func(t *testing.T) {
		cfg := &config{}
		WithManifest("a.yaml")(cfg)
		WithManifest("b.yaml")(cfg)
		assert.Equal(t, []string{"a.yaml", "b.yaml"}, cfg.manifests)
	})
}

func TestNewUsesGivenDiagnostics(t *testing.T) {
	ch := diag.NewChannel(diag.WithDev(true))
	fw, err := New(WithDiagnostics(ch))
	assert.NoError(t, err)
	assert.Same(t, ch, fw.Diagnostics())
	assert.Same(t, ch, fw.Registry().Diagnostics())
}
