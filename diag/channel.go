package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Severity classifies a report.
type Severity string

const (
	// SeverityFatal marks invalid framework usage that made an operation fail.
	SeverityFatal Severity = "fatal"

	// SeverityWarning marks a recoverable oddity such as an unsupported option.
	SeverityWarning Severity = "warning"

	// SeverityDeferred marks an unrecoverable programming error reported asynchronously.
	SeverityDeferred Severity = "deferred"
)

// defaultHistoryLimit bounds the number of reports a channel keeps.
const defaultHistoryLimit = 100

// Report is a single entry in a channel's history.
type Report struct {
	ID       string
	Severity Severity
	Err      *Error
	Time     time.Time
}

// Option configures a Channel.
type Option func(*Channel)

// WithLogger sets the logger reports are written to.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Channel) {
		c.logger = logger
	}
}

// WithDev turns developer diagnostics on or off. When off, fatal reports and
// warnings are recorded but never logged.
func WithDev(dev bool) Option {
	return func(c *Channel) {
		c.dev = dev
	}
}

// WithFatalHandler sets the function that receives deferred reports.
// It runs on its own goroutine.
func WithFatalHandler(fn func(*Error)) Option {
	return func(c *Channel) {
		c.onFatal = fn
	}
}

// WithHistoryLimit bounds how many reports Reports returns.
func WithHistoryLimit(n int) Option {
	return func(c *Channel) {
		if n > 0 {
			c.limit = n
		}
	}
}

// WithMeter records a plugkit.diagnostics counter per code on meter.
func WithMeter(meter metric.Meter) Option {
	return func(c *Channel) {
		c.meter = meter
	}
}

// Channel is the non-throwing report path for invalid framework usage.
// Reporting never panics and never blocks on the fatal handler.
type Channel struct {
	logger  *slog.Logger
	dev     bool
	onFatal func(*Error)
	limit   int
	meter   metric.Meter
	counter metric.Int64Counter

	mu      sync.Mutex
	reports []Report
}

// NewChannel creates a diagnostics channel. Developer diagnostics are off
// unless WithDev(true) is given.
func NewChannel(opts ...Option) *Channel {
	c := &Channel{limit: defaultHistoryLimit}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.meter == nil {
		c.meter = noop.NewMeterProvider().Meter("plugkit/diag")
	}
	counter, err := c.meter.Int64Counter(
		"plugkit.diagnostics",
		metric.WithDescription("Number of diagnostics reported, by code"),
		metric.WithUnit("1"),
	)
	if err != nil {
		c.logger.Warn("failed to create diagnostics counter", "error", err)
		counter, _ = noop.NewMeterProvider().Meter("plugkit/diag").Int64Counter("plugkit.diagnostics")
	}
	c.counter = counter
	if c.onFatal == nil {
		logger := c.logger
		c.onFatal = func(err *Error) {
			logger.Error("unrecoverable plugin framework error",
				"plugin", err.Plugin,
				"operation", err.Operation,
				"code", err.Code,
				"error", err.Error())
		}
	}
	return c
}

// SetDev turns developer diagnostics on or off.
func (c *Channel) SetDev(dev bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dev = dev
}

// Dev reports whether developer diagnostics are on.
func (c *Channel) Dev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev
}

// Fatal records err and, in dev mode, logs it at error level. It returns err
// so callers can report and return in one statement.
func (c *Channel) Fatal(ctx context.Context, err *Error) error {
	if c.record(ctx, SeverityFatal, err) {
		c.logger.ErrorContext(ctx, err.Message,
			"plugin", err.Plugin,
			"operation", err.Operation,
			"code", err.Code)
	}
	return err
}

// Warn formats template with args and, in dev mode, logs it at warn level.
func (c *Channel) Warn(ctx context.Context, template string, args map[string]any) {
	err := &Error{Operation: "warn", Code: "WARNING", Message: Format(template, args), Details: args}
	if c.record(ctx, SeverityWarning, err) {
		c.logger.WarnContext(ctx, err.Message)
	}
}

// Unsupported warns about a setting, option or member the layer cannot honor.
// Map and slice values are rendered as JSON.
func (c *Channel) Unsupported(ctx context.Context, kind, name string, value any) {
	err := Newf("", "unsupported", CodeUnsupported, map[string]any{
		"@type":  kind,
		"@name":  name,
		"@value": value,
	})
	if c.record(ctx, SeverityWarning, err) {
		c.logger.WarnContext(ctx, err.Message, "code", err.Code)
	}
}

// Defer reports an unrecoverable programming error asynchronously: the
// fatal handler runs on a new goroutine and the caller continues. Deferred
// reports are delivered whether or not dev mode is on.
func (c *Channel) Defer(err *Error) {
	if err == nil {
		return
	}
	c.record(context.Background(), SeverityDeferred, err)
	handler := c.onFatal
	go handler(err)
}

// Reports returns a copy of the most recent reports, oldest first.
func (c *Channel) Reports() []Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Report, len(c.reports))
	copy(out, c.reports)
	return out
}

// record appends a report and reports whether it should be logged.
func (c *Channel) record(ctx context.Context, sev Severity, err *Error) bool {
	c.counter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", err.Code),
		attribute.String("severity", string(sev)),
	))

	c.mu.Lock()
	defer c.mu.Unlock()

	c.reports = append(c.reports, Report{
		ID:       uuid.NewString(),
		Severity: sev,
		Err:      err,
		Time:     time.Now(),
	})
	if over := len(c.reports) - c.limit; over > 0 {
		c.reports = append([]Report(nil), c.reports[over:]...)
	}
	return c.dev
}

// String describes the channel for debugging.
func (c *Channel) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("diag.Channel{dev: %t, reports: %d}", c.dev, len(c.reports))
}

var defaultChannel atomic.Pointer[Channel]

func init() {
	defaultChannel.Store(NewChannel())
}

// Default returns the process-wide channel used by helpers that have no
// channel of their own, such as bag.Extend.
func Default() *Channel {
	return defaultChannel.Load()
}

// SetDefault replaces the process-wide channel. Tests use it to capture
// reports and restore the previous channel afterwards.
func SetDefault(c *Channel) {
	if c == nil {
		c = NewChannel()
	}
	defaultChannel.Store(c)
}
