package plugkit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/plugkit/bag"
	"github.com/zero-day-ai/plugkit/diag"
	"github.com/zero-day-ai/plugkit/plugin"
	"github.com/zero-day-ai/plugkit/settings"
	"github.com/zero-day-ai/plugkit/widget"
)

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newFramework(t *testing.T, opts ...Option) (*Framework, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	fw, err := New(append([]Option{WithLogger(quietLogger(&buf))}, opts...)...)
	require.NoError(t, err)
	return fw, &buf
}

func TestRegistrationSurface(t *testing.T) {
	ctx := context.Background()
	fw, _ := newFramework(t, WithSettings(settings.New("popover_enabled", "true")))

	base := widget.NewBase(widget.PopoverID, widget.PopoverDefaults())
	got, err := fw.CreatePlugin(ctx, widget.PopoverID, base)
	require.NoError(t, err)
	assert.Same(t, base, got)

	_, err = fw.CreatePlugin(ctx, widget.PopoverID, widget.NewBase(widget.PopoverID, nil))
	assert.ErrorIs(t, err, ErrDuplicateIdentifier)

	got, err = fw.ExtendPlugin(ctx, widget.PopoverID, plugin.Extension(widget.PopoverSiteDefaults))
	require.NoError(t, err)
	assert.Same(t, base, got)
	assert.True(t, widget.Enabled(fw.Registry(), widget.PopoverID))

	_, err = fw.ExtendPlugin(ctx, "carousel", plugin.Extension(widget.PopoverSiteDefaults))
	assert.ErrorIs(t, err, ErrUnknownIdentifier)

	next := widget.NewBase(widget.PopoverID, nil)
	got, err = fw.ReplacePlugin(ctx, widget.PopoverID, plugin.Replace(next), false)
	require.NoError(t, err)
	assert.Same(t, next, fw.Plugin(widget.PopoverID))
	assert.True(t, widget.Enabled(fw.Registry(), widget.PopoverID), "static members carry over")
	assert.Nil(t, got.StaticMember("noConflict"), "no-conflict hatch not carried or installed")

	var de *diag.Error
	_, err = fw.ReplacePlugin(ctx, widget.PopoverID, nil)
	require.True(t, errors.As(err, &de))
	assert.Equal(t, widget.PopoverID, de.Plugin)
	assert.Equal(t, "replace", de.Operation)
	assert.Equal(t, diag.CodeInvalidCallback, de.Code)
}

func TestCreatePluginNoConflictFlag(t *testing.T) {
	ctx := context.Background()
	fw, _ := newFramework(t)

	with := widget.NewBase("a", nil)
	_, err := fw.CreatePlugin(ctx, "a", with)
	require.NoError(t, err)
	assert.NotNil(t, with.StaticMember("noConflict"))

	without := widget.NewBase("b", nil)
	_, err = fw.CreatePlugin(ctx, "b", without, false)
	require.NoError(t, err)
	assert.Nil(t, without.StaticMember("noConflict"))
}

func TestOnce(t *testing.T) {
	fw, _ := newFramework(t, WithSettings(settings.New("theme", "dark")))

	var runs int
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fw.Once("bootstrap-popovers", func(s *settings.Settings) {
				assert.Equal(t, "dark", s.String("theme"))
				runs++
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, runs)

	assert.True(t, fw.Once("other", func(*settings.Settings) {}))
	assert.False(t, fw.Once("other", func(*settings.Settings) {}))
}

func TestDevModeLogsFailures(t *testing.T) {
	ctx := context.Background()

	quiet, quietBuf := newFramework(t)
	_, err := quiet.ExtendPlugin(ctx, "missing", plugin.Extension(widget.TooltipSiteDefaults))
	require.Error(t, err)
	assert.NotContains(t, quietBuf.String(), "does not exist")
	assert.Len(t, quiet.Diagnostics().Reports(), 1)

	dev, devBuf := newFramework(t, WithSettings(settings.New("dev", true)))
	assert.True(t, dev.Diagnostics().Dev())
	_, err = dev.ExtendPlugin(ctx, "missing", plugin.Extension(widget.TooltipSiteDefaults))
	require.Error(t, err)
	assert.Contains(t, devBuf.String(), "Specified plugin identifier does not exist: missing")
}

func TestSettingsFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tooltip_enabled: \"true\"\ntooltip_placement: bottom\n"), 0o644))

	fw, _ := newFramework(t,
		WithSettingsFile(path),
		WithSettings(settings.New("tooltip_placement", "left")),
	)
	assert.True(t, fw.Settings().Bool("tooltip_enabled"))
	assert.Equal(t, "left", fw.Settings().String("tooltip_placement"))

	_, err := New(WithSettingsFile(filepath.Join(dir, "missing.yaml")))
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestWithManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
extensions:
  - plugin: tooltip
    static:
      DEFAULTS:
        enabled: "=settings.tooltip_enabled"
`), 0o644))

	reg := plugin.NewRegistry(plugin.WithSettings(settings.New("tooltip_enabled", true)))
	require.NoError(t, widget.Register(ctx, reg))

	fw, _ := newFramework(t, WithRegistry(reg), WithManifest(path))
	assert.Same(t, reg, fw.Registry())
	assert.True(t, widget.Enabled(fw.Registry(), widget.TooltipID))
	assert.Equal(t, "site.yaml", reg.Layers(widget.TooltipID)[1].Source)

	_, err := New(WithManifest(path), WithSettings(settings.New("tooltip_enabled", true)))
	assert.ErrorIs(t, err, ErrUnknownIdentifier)
}

func TestDefaultFramework(t *testing.T) {
	ctx := context.Background()
	prev := SetDefault(nil)
	t.Cleanup(func() { SetDefault(prev) })

	first := Default()
	assert.Same(t, first, Default())

	_, err := CreatePlugin(ctx, "modal", widget.NewBase("modal", bag.Of("backdrop", true)))
	require.NoError(t, err)
	_, err = ExtendPlugin(ctx, "modal", plugin.Extension(func(*settings.Settings) *bag.Bag {
		return bag.Of("DEFAULTS", bag.Of("keyboard", false))
	}))
	require.NoError(t, err)
	_, err = ReplacePlugin(ctx, "modal", plugin.Replace(widget.NewBase("modal", nil)))
	require.NoError(t, err)
	assert.True(t, Once("modal", func(*settings.Settings) {}))

	d := first.Plugin("modal").Defaults()
	assert.Equal(t, true, d.Value("backdrop"))
	assert.Equal(t, false, d.Value("keyboard"))

	fw, _ := newFramework(t)
	assert.Same(t, first, SetDefault(fw))
	assert.Nil(t, Default().Plugin("modal"))
}
