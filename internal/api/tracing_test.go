package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zombar/factcheck/internal/factcheck"
	"github.com/zombar/factcheck/internal/models"
	"github.com/zombar/factcheck/internal/tracing"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(context.Context, string, string) (*models.AnalysisResult, error) {
	return &models.AnalysisResult{
		CredibilityScore:   0.7,
		OverallCredibility: "medium",
		Summary:            "plausible",
		Claims:             []models.ClaimDraft{},
		RedFlags:           []string{},
		Recommendations:    []string{},
	}, nil
}

// TestFactCheckTracing checks that pipeline spans are children of the HTTP server span
func TestFactCheckTracing(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	svc := factcheck.NewService(factcheck.Deps{Analyzer: stubAnalyzer{}}, nil, nil)
	h := setupTestHandler(t, svc, nil)
	handler := tracing.HTTPMiddleware("factcheck")(h.router)

	body := `{"content":"O Brasil é o maior produtor de café do mundo.","check_sources":false}`
	req := httptest.NewRequest(http.MethodPost, "/api/factcheck", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, tp.ForceFlush(context.Background()))

	spans := exporter.GetSpans()
	server := findSpan(spans, "factcheck")
	require.NotNil(t, server, "server span missing, got %v", getSpanNames(spans))
	check := findSpan(spans, "factcheck.check")
	require.NotNil(t, check, "check span missing, got %v", getSpanNames(spans))

	assert.Equal(t, server.SpanContext.TraceID(), check.SpanContext.TraceID())
	assert.Equal(t, server.SpanContext.SpanID(), check.Parent.SpanID())
	assert.True(t, hasAttribute(check, "credibility.score"))
	assert.True(t, hasAttribute(server, "content.type"), "handler annotates the server span")

	for _, stage := range []string{"factcheck.preprocess", "factcheck.validate", "factcheck.analyze", "factcheck.consolidate"} {
		s := findSpan(spans, stage)
		require.NotNil(t, s, "missing %s", stage)
		assert.Equal(t, check.SpanContext.SpanID(), s.Parent.SpanID())
	}
	assert.Nil(t, findSpan(spans, "factcheck.search_sources"), "no search without check_sources")
}

func findSpan(spans tracetest.SpanStubs, name string) *tracetest.SpanStub {
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

func hasAttribute(span *tracetest.SpanStub, key string) bool {
	for _, attr := range span.Attributes {
		if string(attr.Key) == key {
			return true
		}
	}
	return false
}

// getSpanNames returns a list of span names for debugging
func getSpanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, len(spans))
	for i, span := range spans {
		names[i] = span.Name
	}
	return names
}
