package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zombar/factcheck/internal/config"
	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		AppName:             "FactCheck Backend API",
		AppVersion:          "1.0.0",
		Port:                "8000",
		LLMProvider:         "gemini",
		GeminiModel:         "gemini-2.0-flash-exp",
		VisionModel:         "gemini-2.0-flash-exp",
		LLMBaseURL:          "http://127.0.0.1:1/v1",
		OllamaURL:           "http://127.0.0.1:1",
		OllamaModel:         "gpt-oss:20b",
		LLMTimeout:          time.Second,
		SearchRatePerSecond: 5,
		ScratchDir:          t.TempDir(),
		MaxUploadSize:       1024,
		MaxBatchFiles:       2,
	}
}

func TestMetricsEndpoint(t *testing.T) {
	handler := buildHandler(testConfig(t), metrics.New("test", prometheus.NewRegistry()), slog.Default())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	// Check for standard Go runtime metrics
	body := w.Body.String()
	for _, metric := range []string{"go_goroutines", "go_threads", "go_info", "promhttp_metric_handler"} {
		assert.True(t, strings.Contains(body, metric), "expected metrics to contain %q", metric)
	}
}

func TestHealthReflectsConfiguration(t *testing.T) {
	cfg := testConfig(t)
	cfg.NewsAPIKey = "news"
	handler := buildHandler(cfg, metrics.New("test", prometheus.NewRegistry()), slog.Default())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var health models.HealthResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.False(t, health.Services["gemini"])
	assert.False(t, health.Services["google_search"])
	assert.True(t, health.Services["news_api"])
	assert.False(t, health.Services["factcheck_api"])
}

func TestFactCheckWithoutModelFails(t *testing.T) {
	handler := buildHandler(testConfig(t), metrics.New("test", prometheus.NewRegistry()), slog.Default())

	body := `{"content":"O Brasil é o maior produtor de café do mundo.","check_sources":false}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/factcheck", strings.NewReader(body)))

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/factcheck/claims", strings.NewReader(body)))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewGenerators(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*config.Config)
		wantText   bool
		wantVision bool
	}{
		{
			name:   "gemini without key",
			mutate: func(c *config.Config) {},
		},
		{
			name:       "gemini with key",
			mutate:     func(c *config.Config) { c.GeminiAPIKey = "key" },
			wantText:   true,
			wantVision: true,
		},
		{
			name:       "openai compatible",
			mutate:     func(c *config.Config) { c.LLMProvider = "openai"; c.GeminiAPIKey = "key" },
			wantText:   true,
			wantVision: true,
		},
		{
			name:       "ollama",
			mutate:     func(c *config.Config) { c.LLMProvider = "ollama" },
			wantText:   true,
			wantVision: true,
		},
		{
			name:   "ollama with bad url",
			mutate: func(c *config.Config) { c.LLMProvider = "ollama"; c.OllamaURL = "://bad" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)

			text, vision := newGenerators(cfg, slog.Default())
			assert.Equal(t, tt.wantText, text != nil)
			assert.Equal(t, tt.wantVision, vision != nil)
		})
	}
}
