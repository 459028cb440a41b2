package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrValue(span sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartStageSpan(t *testing.T) {
	sr := withRecorder(t)

	ctx, span := StartStageSpan(context.Background(), "search", attribute.String(SpanAttrUrgency, "high"))
	if GetTraceID(ctx) == "" {
		t.Error("expected a trace ID inside a recorded span")
	}
	SetSpanSuccess(span)
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	got := ended[0]
	if got.Name() != "pipeline.search" {
		t.Errorf("span name = %q, want pipeline.search", got.Name())
	}
	if got.SpanKind() != trace.SpanKindInternal {
		t.Errorf("span kind = %v, want internal", got.SpanKind())
	}
	if v, ok := attrValue(got, SpanAttrStage); !ok || v.AsString() != "search" {
		t.Errorf("stage attribute = %v, %v", v, ok)
	}
	if v, ok := attrValue(got, SpanAttrUrgency); !ok || v.AsString() != "high" {
		t.Errorf("urgency attribute = %v, %v", v, ok)
	}
	if got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
}

func TestStartGoogleAPISpan(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartGoogleAPISpan(context.Background(), ServiceCalendar, "freebusy")
	SetSpanError(span, errors.New("backend unavailable"))
	span.End()

	got := sr.Ended()[0]
	if got.Name() != "google.calendar.freebusy" {
		t.Errorf("span name = %q", got.Name())
	}
	if got.SpanKind() != trace.SpanKindClient {
		t.Errorf("span kind = %v, want client", got.SpanKind())
	}
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}
	if len(got.Events()) == 0 {
		t.Error("expected the error to be recorded as a span event")
	}
}

func TestStartToolSpan(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartToolSpan(context.Background(), "schedule_meeting")
	SetSpanError(span, nil)
	span.End()

	got := sr.Ended()[0]
	if got.Name() != "tool.schedule_meeting" {
		t.Errorf("span name = %q", got.Name())
	}
	if got.Status().Code != codes.Unset {
		t.Errorf("nil error should leave status unset, got %v", got.Status().Code)
	}
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("expected empty trace ID, got %q", id)
	}
}

func TestStartSpan(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartSpan(context.Background(), "custom", attribute.Int(SpanAttrSlots, 3))
	span.End()

	if v, ok := attrValue(sr.Ended()[0], SpanAttrSlots); !ok || v.AsInt64() != 3 {
		t.Errorf("slots attribute = %v, %v", v, ok)
	}
}
