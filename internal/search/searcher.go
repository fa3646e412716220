// Package search finds external sources for a claim and fetches web page text.
package search

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/models"
)

const defaultHTTPTimeout = 10 * time.Second

// Config selects which providers are enabled. A provider without credentials is skipped.
type Config struct {
	GoogleAPIKey    string
	GoogleEngineID  string
	NewsAPIKey      string
	NewsLanguage    string
	FactCheckAPIKey string

	// RatePerSecond limits outbound calls per provider; 0 means unlimited
	RatePerSecond float64

	// Endpoint overrides, used by tests
	GoogleURL    string
	NewsURL      string
	FactCheckURL string

	HTTPClient *http.Client
}

type limitedProvider struct {
	Provider
	limiter *rate.Limiter
}

// Searcher queries providers in priority order until enough sources are found
type Searcher struct {
	providers []limitedProvider
	client    *http.Client
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New builds a searcher with the providers enabled by cfg, in the order
// Google Custom Search, NewsAPI, Fact Check Tools
func New(cfg Config, m *metrics.Metrics, logger *slog.Logger) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	var providers []Provider
	if cfg.GoogleAPIKey != "" && cfg.GoogleEngineID != "" {
		providers = append(providers, NewGoogleProvider(cfg.GoogleAPIKey, cfg.GoogleEngineID, cfg.GoogleURL, client))
	}
	if cfg.NewsAPIKey != "" {
		providers = append(providers, NewNewsAPIProvider(cfg.NewsAPIKey, cfg.NewsLanguage, cfg.NewsURL, client))
	}
	if cfg.FactCheckAPIKey != "" {
		providers = append(providers, NewFactCheckProvider(cfg.FactCheckAPIKey, cfg.FactCheckURL, client))
	}

	s := NewWithProviders(cfg.RatePerSecond, m, logger, providers...)
	s.client = client
	return s
}

// NewWithProviders builds a searcher around arbitrary providers, queried in the given order
func NewWithProviders(ratePerSecond float64, m *metrics.Metrics, logger *slog.Logger, providers ...Provider) *Searcher {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if ratePerSecond > 0 {
		limit = rate.Limit(ratePerSecond)
	}

	s := &Searcher{
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		metrics: m,
		logger:  logger.With("component", "search"),
	}
	for _, p := range providers {
		s.providers = append(s.providers, limitedProvider{Provider: p, limiter: rate.NewLimiter(limit, 1)})
		s.logger.Info("search provider enabled", "provider", p.Name())
	}
	return s
}

// Providers returns the names of the enabled providers in query order
func (s *Searcher) Providers() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

// SearchSources asks each provider in order for the sources still missing.
// Provider failures are logged and skipped. With no live results the curated
// fallback list is returned. The result never exceeds maxResults.
func (s *Searcher) SearchSources(ctx context.Context, query string, maxResults int) []models.Source {
	sources := []models.Source{}
	if maxResults <= 0 {
		return sources
	}

	for _, p := range s.providers {
		remaining := maxResults - len(sources)
		if remaining <= 0 {
			break
		}
		if err := p.limiter.Wait(ctx); err != nil {
			s.logger.Warn("search rate limiter aborted", "provider", p.Name(), "error", err)
			break
		}

		found, err := p.Search(ctx, query, remaining)
		s.metrics.RecordSearch(p.Name(), len(found), err)
		if err != nil {
			s.logger.Error("search provider failed", "provider", p.Name(), "error", err)
			continue
		}
		s.logger.Info("search provider returned results", "provider", p.Name(), "results", len(found))
		sources = append(sources, found...)
	}

	if len(sources) == 0 {
		s.logger.Warn("no live search results, returning curated sources")
		sources = FallbackSources(query)
	}

	if len(sources) > maxResults {
		sources = sources[:maxResults]
	}
	return sources
}
