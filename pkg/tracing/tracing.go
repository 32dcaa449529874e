// Package tracing provides OpenTelemetry tracing for the harvester's
// HTTP fetches and geocoder calls.
package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// ServiceName identifies this process in traces.
	ServiceName = "storeharvester"
	// TracerName is the name under which spans are recorded.
	TracerName = "github.com/watchdna/storeharvester"
)

// Tracer is the global tracer instance. Defaults to a no-op tracer so
// the harvester runs without any tracing backend configured; InitTracing
// installs a recording SDK provider when the caller wants one (tests,
// or a harvest run with --debug tracing enabled).
var Tracer trace.Tracer = noop.NewTracerProvider().Tracer(TracerName)

// InitTracing installs an in-process SDK tracer provider that records
// spans but exports nowhere; useful for --debug runs where span timing
// matters but no collector is configured. Returns a shutdown func.
func InitTracing() (shutdown func(context.Context) error) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	Tracer = tp.Tracer(TracerName)
	return tp.Shutdown
}

// StartSpan starts a new span under the global tracer.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer.Start(ctx, name, opts...)
}

// RecordError records an error on the span carried by ctx, if any.
func RecordError(ctx context.Context, err error, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if span != nil && span.IsRecording() {
		span.RecordError(err, opts...)
	}
}

// SetStatus sets the status of the span carried by ctx, if any.
func SetStatus(ctx context.Context, code codes.Code, description string) {
	span := trace.SpanFromContext(ctx)
	if span != nil && span.IsRecording() {
		span.SetStatus(code, description)
	}
}

// AddEvent adds an event to the span carried by ctx, if any.
func AddEvent(ctx context.Context, name string, opts ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if span != nil && span.IsRecording() {
		span.AddEvent(name, opts...)
	}
}

// SetAttributes sets attributes on the span carried by ctx, if any.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span != nil && span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}
