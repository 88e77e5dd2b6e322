package kafkax

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka:9092, ,kafka2:9092 ")
	if len(got) != 2 || got[0] != "kafka:9092" || got[1] != "kafka2:9092" {
		t.Fatalf("unexpected brokers: %v", got)
	}
	if got := SplitBrokers(" , "); len(got) != 0 {
		t.Fatalf("expected no brokers, got %v", got)
	}
}

func TestEventHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	headers := EventHeaders(ctx, "e1", "salon.appointment.booked.v1")
	if HeaderValue(headers, HeaderEventID) != "e1" || HeaderValue(headers, HeaderEventType) != "salon.appointment.booked.v1" {
		t.Fatalf("unexpected headers %v", headers)
	}
	if tp := HeaderValue(headers, "traceparent"); !strings.Contains(tp, traceID.String()) {
		t.Fatalf("expected traceparent carrying %s, got %q", traceID, tp)
	}

	plain := EventHeaders(context.Background(), "e2", "salon.appointment.deleted.v1")
	if HeaderValue(plain, "traceparent") != "" {
		t.Fatalf("unexpected trace header without a span: %v", plain)
	}
}

func TestReadyCheck(t *testing.T) {
	if err := ReadyCheck(nil)(context.Background()); !errors.Is(err, ErrNoBrokers) {
		t.Fatalf("expected ErrNoBrokers, got %v", err)
	}
	if err := ReadyCheck([]string{"127.0.0.1:1"})(context.Background()); err == nil {
		t.Fatal("expected an unreachable broker to fail")
	}
}
