package main

import (
	"log/slog"
	"net/http"

	"github.com/zombar/factcheck/internal/analysis"
	"github.com/zombar/factcheck/internal/api"
	"github.com/zombar/factcheck/internal/config"
	"github.com/zombar/factcheck/internal/factcheck"
	"github.com/zombar/factcheck/internal/llm"
	"github.com/zombar/factcheck/internal/media"
	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/search"
)

// buildHandler wires every component from cfg into the API handler
func buildHandler(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	text, vision := newGenerators(cfg, logger)

	engine := analysis.NewEngine(text, m, logger)
	searcher := search.New(search.Config{
		GoogleAPIKey:    cfg.GoogleSearchAPIKey,
		GoogleEngineID:  cfg.GoogleSearchEngineID,
		NewsAPIKey:      cfg.NewsAPIKey,
		NewsLanguage:    "pt",
		FactCheckAPIKey: cfg.FactCheckAPIKey,
		RatePerSecond:   cfg.SearchRatePerSecond,
	}, m, logger)
	mediaAnalyzer := media.New(media.Options{
		Vision:     vision,
		ScratchDir: cfg.ScratchDir,
	}, m, logger)

	service := factcheck.NewService(factcheck.Deps{
		Analyzer: engine,
		Searcher: searcher,
		Fetcher:  searcher,
		Media:    mediaAnalyzer,
	}, m, logger)

	var claims api.ClaimInspector
	if engine.Configured() {
		claims = engine
	}

	tools := mediaAnalyzer.Tools()
	return api.NewHandler(service, api.Options{
		AppName:        cfg.AppName,
		Version:        cfg.AppVersion,
		Debug:          cfg.Debug,
		AllowedOrigins: cfg.AllowedOriginsList(),
		ScratchDir:     cfg.ScratchDir,
		MaxUploadSize:  cfg.MaxUploadSize,
		MaxBatchFiles:  cfg.MaxBatchFiles,
		Services: map[string]bool{
			"gemini":        cfg.LLMProvider != "ollama" && cfg.GeminiAPIKey != "",
			"ollama":        cfg.LLMProvider == "ollama" && engine.Configured(),
			"google_search": cfg.GoogleSearchEnabled(),
			"news_api":      cfg.NewsAPIKey != "",
			"factcheck_api": cfg.FactCheckAPIKey != "",
			"ocr":           tools.OCR(),
			"ffmpeg":        tools.Video(),
		},
		Capabilities: api.Capabilities{
			Media:           mediaAnalyzer.Capability(),
			OCR:             tools.OCR(),
			VideoFrames:     tools.Video(),
			SearchProviders: searcher.Providers(),
		},
		Claims: claims,
	}, m, logger)
}

// newGenerators builds the text and vision model clients for the configured provider.
// Both are nil when the provider cannot be used, which leaves analysis unconfigured.
func newGenerators(cfg *config.Config, logger *slog.Logger) (text, vision llm.Generator) {
	if cfg.LLMProvider == "ollama" {
		client, err := llm.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.LLMTimeout)
		if err != nil {
			logger.Warn("failed to initialize Ollama client, model analysis disabled",
				"error", err,
				"ollama_url", cfg.OllamaURL,
				"ollama_model", cfg.OllamaModel,
			)
			return nil, nil
		}
		logger.Info("Ollama client initialized", "model", cfg.OllamaModel, "url", cfg.OllamaURL)
		return client, client
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY not set, model analysis disabled", "llm_provider", cfg.LLMProvider)
		return nil, nil
	}

	textClient, err := llm.NewOpenAI(cfg.GeminiAPIKey, cfg.LLMBaseURL, cfg.GeminiModel, cfg.LLMTimeout)
	if err != nil {
		logger.Warn("failed to initialize model client, model analysis disabled", "error", err)
		return nil, nil
	}
	visionClient, err := llm.NewOpenAI(cfg.GeminiAPIKey, cfg.LLMBaseURL, cfg.VisionModel, cfg.LLMTimeout)
	if err != nil {
		logger.Warn("failed to initialize vision client, image description disabled", "error", err)
		return textClient, nil
	}

	logger.Info("model clients initialized", "model", cfg.GeminiModel, "vision_model", cfg.VisionModel, "base_url", cfg.LLMBaseURL)
	return textClient, visionClient
}
