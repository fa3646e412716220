package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/factcheck/internal/factcheck"
	"github.com/zombar/factcheck/internal/media"
	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/models"
	"github.com/zombar/factcheck/internal/preprocess"
	"github.com/zombar/factcheck/internal/search"
	"github.com/zombar/factcheck/internal/tracing"
	"github.com/zombar/factcheck/pkg/logging"
)

const (
	maxJSONBody     = 1 << 20
	internalMessage = "Internal error processing fact-check"
)

var supportedLanguages = []string{"pt", "en", "es"}

// Checker runs a fact-check
type Checker interface {
	Check(ctx context.Context, req models.FactCheckRequest) (*models.FactCheckResponse, error)
}

// Capabilities describes what the running instance can analyze
type Capabilities struct {
	Media           media.Capability `json:"media_analysis"`
	OCR             bool             `json:"ocr"`
	VideoFrames     bool             `json:"video_frames"`
	SearchProviders []string         `json:"search_providers"`
}

// Options configures the HTTP layer
type Options struct {
	AppName        string
	Version        string
	Debug          bool
	AllowedOrigins []string
	ScratchDir     string
	MaxUploadSize  int64
	MaxBatchFiles  int
	Services       map[string]bool
	Capabilities   Capabilities

	// Claims serves /api/factcheck/claims; the route answers 503 when nil
	Claims ClaimInspector
}

// Handler handles HTTP requests
type Handler struct {
	checker Checker
	opts    Options
	metrics *metrics.Metrics
	logger  *slog.Logger
	router  *mux.Router
}

// NewHandler creates the API handler with CORS support and metrics
func NewHandler(checker Checker, opts Options, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	h := newHandler(checker, opts, m, logger)

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.router)
}

func newHandler(checker Checker, opts Options, m *metrics.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Services == nil {
		opts.Services = map[string]bool{}
	}
	if opts.Capabilities.SearchProviders == nil {
		opts.Capabilities.SearchProviders = []string{}
	}

	h := &Handler{
		checker: checker,
		opts:    opts,
		metrics: m,
		logger:  logger.With("component", "api"),
		router:  mux.NewRouter(),
	}
	h.setupRoutes()
	return h
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	h.router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	h.router.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)

	api := h.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/factcheck", h.handleFactCheck).Methods(http.MethodPost)
	api.HandleFunc("/factcheck/quick", h.handleQuickCheck).Methods(http.MethodPost)
	api.HandleFunc("/factcheck/upload", h.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/factcheck/upload/batch", h.handleUploadBatch).Methods(http.MethodPost)
	api.HandleFunc("/factcheck/claims", h.handleClaims).Methods(http.MethodPost)
	api.HandleFunc("/sources/trusted", h.handleTrustedSources).Methods(http.MethodGet)
	api.HandleFunc("/info", h.handleInfo).Methods(http.MethodGet)
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{
		"message": h.opts.AppName,
		"version": h.opts.Version,
		"health":  "/health",
	}, http.StatusOK)
}

// handleHealth reports which integrations are configured
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, models.HealthResponse{
		Status:    "healthy",
		Version:   h.opts.Version,
		Timestamp: time.Now().UTC(),
		Services:  h.opts.Services,
	}, http.StatusOK)
}

func (h *Handler) handleTrustedSources(w http.ResponseWriter, r *http.Request) {
	sources := search.TrustedSources()
	respondJSON(w, map[string]interface{}{
		"total":   len(sources),
		"sources": sources,
	}, http.StatusOK)
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	caps := h.opts.Capabilities
	mediaEnabled := caps.Media != "" && caps.Media != media.CapabilityUnavailable

	respondJSON(w, map[string]interface{}{
		"name":    h.opts.AppName,
		"version": h.opts.Version,
		"features": map[string]bool{
			"text_analysis":       true,
			"url_analysis":        true,
			"image_analysis":      mediaEnabled,
			"video_analysis":      mediaEnabled && caps.VideoFrames,
			"external_sources":    len(caps.SearchProviders) > 0,
			"red_flags_detection": true,
			"claim_analysis":      h.opts.Claims != nil,
			"multilingual":        true,
		},
		"capabilities":        caps,
		"supported_languages": supportedLanguages,
		"content_types": []models.ContentType{
			models.ContentTypeText, models.ContentTypeURL, models.ContentTypeImage, models.ContentTypeVideo,
		},
		"endpoints": map[string]string{
			"factcheck":       "/api/factcheck",
			"quick_check":     "/api/factcheck/quick",
			"upload":          "/api/factcheck/upload",
			"upload_batch":    "/api/factcheck/upload/batch",
			"claims":          "/api/factcheck/claims",
			"trusted_sources": "/api/sources/trusted",
			"health":          "/health",
			"metrics":         "/metrics",
		},
	}, http.StatusOK)
}

func (h *Handler) handleFactCheck(w http.ResponseWriter, r *http.Request) {
	h.factCheck(w, r, false)
}

// handleQuickCheck runs a fact-check without the external source search
func (h *Handler) handleQuickCheck(w http.ResponseWriter, r *http.Request) {
	h.factCheck(w, r, true)
}

func (h *Handler) factCheck(w http.ResponseWriter, r *http.Request, quick bool) {
	req := models.NewFactCheckRequest("")
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		h.respondError(w, r, "Invalid request body", err, http.StatusBadRequest)
		return
	}

	contentType, err := models.ParseContentType(string(req.ContentType))
	if err != nil {
		h.respondError(w, r, err.Error(), err, http.StatusUnprocessableEntity)
		return
	}
	req.ContentType = contentType

	req.Content = preprocess.Sanitize(req.Content)
	if utf8.RuneCountInString(req.Content) < preprocess.MinContentLength {
		h.respondError(w, r, "Content too short or empty. Minimum of 10 characters.", nil, http.StatusBadRequest)
		return
	}

	// media sent as JSON must be remote; local paths are only produced by uploads
	if (contentType == models.ContentTypeImage || contentType == models.ContentTypeVideo) && !isHTTPURL(req.Content) {
		h.respondError(w, r, "Image and video content must be an http(s) URL", nil, http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Language) == "" {
		req.Language = "pt"
	}
	if quick {
		req.CheckSources = false
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.String("content.type", string(req.ContentType)),
		attribute.Int("content.length", len(req.Content)),
		attribute.Bool("check_sources", req.CheckSources),
		attribute.Bool("quick", quick),
	)

	h.logger.Info("fact-check requested", "content_type", req.ContentType, "quick", quick)

	resp, err := h.checker.Check(r.Context(), req)
	if err != nil {
		h.respondCheckError(w, r, err)
		return
	}
	respondJSON(w, resp, http.StatusOK)
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// statusFor classifies pipeline errors: caller mistakes are 4xx, everything else is 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errUnsupportedFileType),
		errors.Is(err, factcheck.ErrInvalidContent),
		errors.Is(err, factcheck.ErrInvalidURL),
		errors.Is(err, factcheck.ErrContentFetchFailed),
		errors.Is(err, media.ErrUnsupportedMedia):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text safe to show to the caller
func publicMessage(err error) string {
	if statusFor(err) == http.StatusInternalServerError {
		return internalMessage
	}
	return err.Error()
}

func (h *Handler) respondCheckError(w http.ResponseWriter, r *http.Request, err error) {
	h.respondError(w, r, publicMessage(err), err, statusFor(err))
}

// respondError sends an ErrorResponse. The underlying error is only exposed in debug mode.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, message string, err error, statusCode int) {
	if err == nil {
		err = errors.New(message)
	}
	if statusCode >= http.StatusInternalServerError {
		logging.HTTPErrorLogger(h.logger, statusCode, err, r)
	} else {
		h.logger.Warn("request rejected", "path", r.URL.Path, "status", statusCode, "error", err)
	}

	resp := models.ErrorResponse{
		Error:     message,
		Timestamp: time.Now().UTC(),
	}
	if h.opts.Debug {
		resp.Detail = err.Error()
	}
	respondJSON(w, resp, statusCode)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func formBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.FormValue(key))
	switch strings.ToLower(raw) {
	case "":
		return false, nil
	case "true", "1", "yes", "on":
		return true, nil
	case "false", "0", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean for %s: %q", key, raw)
	}
}
