package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installTestProvider swaps in an in-memory exporter and restores the global
// provider when the test ends.
func installTestProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("event-harvest")
	t.Cleanup(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider())
		tracer = otel.Tracer("event-harvest")
	})
	return exporter, tp
}

func serveTraced(t *testing.T, status int, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))

	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

/* ───────── span creation ───────── */

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter, tp := installTestProvider(t)

	serveTraced(t, http.StatusOK, "/sources", nil)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	span := spans[0]
	if span.Name != "GET /sources" {
		t.Errorf("span name = %q, want %q", span.Name, "GET /sources")
	}

	want := map[string]string{
		"http.method": "GET",
		"http.path":   "/sources",
	}
	found := map[string]bool{}
	for _, attr := range span.Attributes {
		key := string(attr.Key)
		if expected, ok := want[key]; ok {
			found[key] = true
			if got := attr.Value.AsString(); got != expected {
				t.Errorf("%s = %q, want %q", key, got, expected)
			}
		}
		if key == "http.status_code" {
			found[key] = true
			if got := attr.Value.AsInt64(); got != 200 {
				t.Errorf("http.status_code = %d, want 200", got)
			}
		}
	}
	for _, key := range []string{"http.method", "http.path", "http.status_code"} {
		if !found[key] {
			t.Errorf("attribute %s not recorded", key)
		}
	}
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	installTestProvider(t)

	rr := serveTraced(t, http.StatusOK, "/status", nil)

	traceID := rr.Header().Get("X-Trace-Id")
	if traceID == "" {
		t.Fatal("X-Trace-Id header missing")
	}
	// 32 hex chars
	if len(traceID) != 32 {
		t.Errorf("trace ID length = %d, want 32", len(traceID))
	}
}

/* ───────── context propagation ───────── */

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter, tp := installTestProvider(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() {
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())
	})

	serveTraced(t, http.StatusOK, "/sources", map[string]string{
		"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	})
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	// 呼び出し元の trace ID を引き継ぐ
	want := "4bf92f3577b34da6a3ce929d0e0e4736"
	if got := spans[0].SpanContext.TraceID().String(); got != want {
		t.Errorf("trace ID = %s, want %s", got, want)
	}
}

/* ───────── error marking ───────── */

func TestMiddleware_MarksErrorSpansFor5xx(t *testing.T) {
	exporter, tp := installTestProvider(t)

	serveTraced(t, http.StatusInternalServerError, "/scheduler/start", nil)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	foundError := false
	for _, attr := range spans[0].Attributes {
		if attr.Key == "error" && attr.Value.AsBool() {
			foundError = true
		}
	}
	if !foundError {
		t.Error("expected error attribute on 5xx span")
	}
}

func TestMiddleware_NoErrorAttributeFor4xx(t *testing.T) {
	exporter, tp := installTestProvider(t)

	serveTraced(t, http.StatusNotFound, "/sources/missing", nil)
	_ = tp.ForceFlush(context.Background())

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}

	for _, attr := range spans[0].Attributes {
		if attr.Key == "error" {
			t.Error("unexpected error attribute on 4xx span")
		}
	}
}

func TestStatusRecorder(t *testing.T) {
	sr := newStatusRecorder(httptest.NewRecorder())

	if sr.status != http.StatusOK {
		t.Errorf("default status = %d, want 200", sr.status)
	}

	sr.WriteHeader(http.StatusCreated)
	if sr.status != http.StatusCreated {
		t.Errorf("status = %d, want 201", sr.status)
	}
}
