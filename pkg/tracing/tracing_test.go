package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
)

func TestStartSpanNoopByDefault(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test.span")
	if span == nil {
		t.Fatal("StartSpan returned a nil span")
	}
	span.End()
	if ctx == nil {
		t.Fatal("StartSpan returned a nil context")
	}
}

func TestRecordErrorAndAddEventDoNotPanicWithoutASpan(t *testing.T) {
	ctx := context.Background()
	RecordError(ctx, errors.New("boom"))
	AddEvent(ctx, "some_event")
	SetStatus(ctx, codes.Error, "failed")
	SetAttributes(ctx)
}

func TestInitTracingInstallsRecordingProvider(t *testing.T) {
	shutdown := InitTracing()
	defer shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "recorded.span")
	defer span.End()

	if !span.IsRecording() {
		t.Error("expected the span to be recording after InitTracing")
	}
	AddEvent(ctx, "recorded_event")
}

func TestCacheAttributes(t *testing.T) {
	attrs := CacheAttributes(CacheTypeFetch, true, "https://example.com")
	if len(attrs) != 3 {
		t.Fatalf("len(attrs) = %d, want 3", len(attrs))
	}
}

func TestErrorAttributesNilError(t *testing.T) {
	if attrs := ErrorAttributes(nil); attrs != nil {
		t.Errorf("ErrorAttributes(nil) = %+v, want nil", attrs)
	}
}

func TestErrorAttributesNonNilError(t *testing.T) {
	attrs := ErrorAttributes(errors.New("boom"))
	if len(attrs) != 2 {
		t.Fatalf("len(attrs) = %d, want 2", len(attrs))
	}
}
