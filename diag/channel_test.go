package diag

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newBufferedChannel(dev bool, opts ...Option) (*Channel, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{WithLogger(logger), WithDev(dev)}, opts...)
	return NewChannel(opts...), &buf
}

func TestFatalLogsOnlyInDevMode(t *testing.T) {
	ctx := context.Background()
	err := Newf("popover", "extend", CodeUnknownIdentifier, map[string]any{"@id": "popover"})

	quiet, quietBuf := newBufferedChannel(false)
	assert.Same(t, err, quiet.Fatal(ctx, err))
	assert.Empty(t, quietBuf.String())
	require.Len(t, quiet.Reports(), 1)

	loud, loudBuf := newBufferedChannel(true)
	loud.Fatal(ctx, err)
	assert.Contains(t, loudBuf.String(), "Specified plugin identifier does not exist: popover")
	assert.Contains(t, loudBuf.String(), "code=UNKNOWN_IDENTIFIER")
}

func TestSetDevTogglesLogging(t *testing.T) {
	ch, buf := newBufferedChannel(false)
	assert.False(t, ch.Dev())

	ch.SetDev(true)
	assert.True(t, ch.Dev())
	ch.Warn(context.Background(), "careful with @thing", map[string]any{"@thing": "popovers"})
	assert.Contains(t, buf.String(), "careful with popovers")
}

func TestUnsupported(t *testing.T) {
	ch, buf := newBufferedChannel(true)
	ch.Unsupported(context.Background(), "option", "sanitize", map[string]any{"on": true})

	reports := ch.Reports()
	require.Len(t, reports, 1)
	assert.Equal(t, SeverityWarning, reports[0].Severity)
	assert.Equal(t, CodeUnsupported, reports[0].Err.Code)
	assert.Contains(t, buf.String(), `Unsupported: (option) sanitize -> {\"on\":true}`)
}

func TestDeferDeliversAsynchronously(t *testing.T) {
	got := make(chan *Error, 1)
	release := make(chan struct{})
	ch, _ := newBufferedChannel(false, WithFatalHandler(func(err *Error) {
		<-release
		got <- err
	}))

	err := New("", "extend-bag", CodeInvalidMergeInput, "bad")
	ch.Defer(err)

	// The caller is not blocked by a slow handler.
	close(release)

	select {
	case e := <-got:
		assert.Same(t, err, e)
	case <-time.After(time.Second):
		t.Fatal("deferred report not delivered")
	}
	require.Len(t, ch.Reports(), 1)
	assert.Equal(t, SeverityDeferred, ch.Reports()[0].Severity)
}

func TestDeferNilIsIgnored(t *testing.T) {
	ch, _ := newBufferedChannel(false)
	ch.Defer(nil)
	assert.Empty(t, ch.Reports())
}

func TestHistoryIsBounded(t *testing.T) {
	ch, _ := newBufferedChannel(false, WithHistoryLimit(2))
	ctx := context.Background()
	for _, code := range []string{CodeConflict, CodeInvalidCallback, CodeInvalidReceiver} {
		ch.Fatal(ctx, New("", "op", code, ""))
	}

	reports := ch.Reports()
	require.Len(t, reports, 2)
	assert.Equal(t, CodeInvalidCallback, reports[0].Err.Code)
	assert.Equal(t, CodeInvalidReceiver, reports[1].Err.Code)
	assert.NotEqual(t, reports[0].ID, reports[1].ID)
}

func TestDiagnosticsCounter(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	ch, _ := newBufferedChannel(false, WithMeter(provider.Meter("test")))

	ctx := context.Background()
	ch.Fatal(ctx, New("a", "create", CodeDuplicateIdentifier, ""))
	ch.Fatal(ctx, New("b", "create", CodeDuplicateIdentifier, ""))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	assert.Equal(t, "plugkit.diagnostics", m.Name)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
}

func TestDefaultChannelSwap(t *testing.T) {
	old := Default()
	defer SetDefault(old)

	ch := NewChannel()
	SetDefault(ch)
	assert.Same(t, ch, Default())

	SetDefault(nil)
	assert.NotNil(t, Default())
	assert.NotSame(t, ch, Default())
}
