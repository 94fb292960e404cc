package plugin

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/zero-day-ai/plugkit/diag"
)

// instrumentationName is the tracer and meter name used by the registry.
const instrumentationName = "github.com/zero-day-ai/plugkit/plugin"

// telemetry holds the OpenTelemetry instruments for registry operations.
// Without a configured provider every instrument is a noop.
type telemetry struct {
	tracer     trace.Tracer
	operations metric.Int64Counter
}

func newTelemetry(tracer trace.Tracer, meter metric.Meter) (*telemetry, error) {
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer(instrumentationName)
	}
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter(instrumentationName)
	}

	ops, err := meter.Int64Counter(
		"plugkit.registry.operations",
		metric.WithDescription("Number of registry operations, by operation and outcome"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}
	return &telemetry{tracer: tracer, operations: ops}, nil
}

// start opens a span for a registry operation.
func (t *telemetry) start(ctx context.Context, op, id string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "plugkit."+op, trace.WithAttributes(
		attribute.String("plugin.id", id),
	))
}

// finish records the outcome of an operation on its span and counter.
func (t *telemetry) finish(ctx context.Context, span trace.Span, op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var de *diag.Error
		if errors.As(err, &de) {
			outcome = de.Code
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.SetAttributes(attribute.String("plugin.outcome", outcome))

	t.operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}
