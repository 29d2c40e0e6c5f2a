package tracing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// installRecorder swaps the global tracer provider for one backed by a span
// recorder and restores the previous provider when the test ends.
func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return rec
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{Enabled: false}, quietLogger())
	if err != nil {
		t.Fatalf("expected no error for disabled tracing, got %v", err)
	}
	if provider.IsEnabled() {
		t.Error("expected tracing to be disabled")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("shutdown of disabled provider: %v", err)
	}
	if provider.Tracer("x") == nil {
		t.Error("expected fallback tracer")
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"missing service name", Config{Enabled: true, SamplingRate: 0.1}, ErrMissingServiceName},
		{"negative sampling", Config{Enabled: true, ServiceName: "s", SamplingRate: -0.1}, ErrInvalidSamplingRate},
		{"sampling above one", Config{Enabled: true, ServiceName: "s", SamplingRate: 1.5}, ErrInvalidSamplingRate},
		{"unknown exporter", Config{Enabled: true, ServiceName: "s", ExporterType: "zipkin"}, ErrUnsupportedExporter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg, quietLogger())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewProvider_Enabled(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	provider, err := NewProvider(Config{
		ServiceName:  "skillmatch-test",
		Enabled:      true,
		Environment:  "test",
		ExporterType: ExporterOTLPHTTP,
		OTLPEndpoint: "localhost:4318",
		SamplingRate: 0,
		InsecureMode: true,
	}, quietLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !provider.IsEnabled() {
		t.Error("expected tracing to be enabled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := provider.Shutdown(ctx); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestStartQuerySpan(t *testing.T) {
	tests := []struct {
		name     string
		table    string
		query    string
		wantName string
	}{
		{"users lookup", "users", "get_by_id", "SELECT users"},
		{"ratings fan-out", "ratings", "list_by_reviewed_users", "SELECT ratings"},
		{"swipe exclusions", "swipes", "excluded_for", "SELECT swipes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := installRecorder(t)

			_, end := StartQuerySpan(context.Background(), tt.table, tt.query)
			end(nil)

			spans := rec.Ended()
			if len(spans) != 1 {
				t.Fatalf("expected 1 span, got %d", len(spans))
			}
			if spans[0].Name() != tt.wantName {
				t.Errorf("expected span name %q, got %q", tt.wantName, spans[0].Name())
			}

			attrs := map[attribute.Key]string{}
			for _, kv := range spans[0].Attributes() {
				attrs[kv.Key] = kv.Value.AsString()
			}
			want := map[attribute.Key]string{
				"db.system":     "postgresql",
				"db.operation":  "SELECT",
				"db.sql.table":  tt.table,
				"db.query.name": tt.query,
			}
			for k, v := range want {
				if attrs[k] != v {
					t.Errorf("%s = %q, want %q", k, attrs[k], v)
				}
			}
		})
	}
}

func TestEndFuncRecordsError(t *testing.T) {
	rec := installRecorder(t)
	boom := errors.New("connection reset")

	_, endDB := StartQuerySpan(context.Background(), "users", "get_by_id")
	endDB(boom)
	_, end := StartSpan(context.Background(), "match.recommend")
	end(boom)

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	for _, s := range spans {
		if s.Status().Code != codes.Error {
			t.Errorf("%s: expected error status, got %v", s.Name(), s.Status().Code)
		}
		if s.Status().Description != boom.Error() {
			t.Errorf("%s: description %q", s.Name(), s.Status().Description)
		}
	}
}

func TestSpanHelpersNest(t *testing.T) {
	rec := installRecorder(t)

	ctx, end := StartSpan(context.Background(), "match.recommend")
	SetAttributes(ctx, attribute.Int("candidates", 3))
	_, endDB := StartQuerySpan(ctx, "ratings", "list_by_reviewed_users")
	endDB(nil)
	end(nil)

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	child, parent := spans[0], spans[1]
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Error("db span is not a child of the operation span")
	}
	var found bool
	for _, kv := range parent.Attributes() {
		if kv.Key == "candidates" && kv.Value.AsInt64() == 3 {
			found = true
		}
	}
	if !found {
		t.Error("missing candidates attribute")
	}
}
