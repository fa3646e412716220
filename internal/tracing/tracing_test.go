package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestIDsFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
	assert.Empty(t, SpanIDFromContext(context.Background()))

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))
	assert.Equal(t, span.SpanContext().SpanID().String(), SpanIDFromContext(ctx))
}

func TestInitTracerWithoutEndpoint(t *testing.T) {
	tp, err := InitTracer(context.Background(), "factcheck-test", "")
	require.NoError(t, err)
	defer func() { _ = tp.Shutdown(context.Background()) }()

	assert.Equal(t, tp, otel.GetTracerProvider())
}

func TestHTTPMiddlewareCreatesSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	var traceID string
	handler := HTTPMiddleware("factcheck")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
		SetSpanAttributes(r.Context(), attribute.String("content_type", "text"))
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, traceID)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, traceID, spans[0].SpanContext.TraceID().String())
	assert.Contains(t, spans[0].Attributes, attribute.String("content_type", "text"))
}
