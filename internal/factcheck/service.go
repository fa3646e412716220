// Package factcheck runs the fact-checking pipeline: preprocess, validate,
// detect red flags, analyze with the model, search sources and consolidate.
package factcheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zombar/factcheck/internal/media"
	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/models"
	"github.com/zombar/factcheck/internal/preprocess"
	"github.com/zombar/factcheck/internal/tracing"
)

const (
	// MaxResponseContent caps the processed content echoed in responses
	MaxResponseContent = 500

	claimSearchResults   = 3
	generalSearchResults = 5
	generalQueryWords    = 10
)

var (
	// ErrInvalidContent is returned when processed content is too short or has too few letters
	ErrInvalidContent = errors.New("invalid or too short content for analysis")
	// ErrContentFetchFailed is returned when a URL yields no text
	ErrContentFetchFailed = errors.New("could not fetch content from url")
	// ErrInvalidURL is returned for url requests whose content is not an http(s) URL
	ErrInvalidURL = errors.New("invalid url")
)

// Analyzer produces the model analysis of processed content
type Analyzer interface {
	Analyze(ctx context.Context, content, language string) (*models.AnalysisResult, error)
}

// SourceSearcher finds external sources for a query. It never fails.
type SourceSearcher interface {
	SearchSources(ctx context.Context, query string, maxResults int) []models.Source
}

// ContentFetcher downloads the readable text of a web page
type ContentFetcher interface {
	FetchURLContent(ctx context.Context, rawURL string) (string, bool)
}

// MediaAnalyzer describes images and videos
type MediaAnalyzer interface {
	AnalyzeImage(ctx context.Context, source string) (*models.ImageAnalysis, error)
	AnalyzeVideo(ctx context.Context, source string) (*models.VideoAnalysis, error)
}

// Deps are the collaborators of the pipeline. Media may be nil when no media support is wired.
type Deps struct {
	Analyzer Analyzer
	Searcher SourceSearcher
	Fetcher  ContentFetcher
	Media    MediaAnalyzer
}

// Service runs fact-checks. It holds no per-request state and is safe for concurrent use.
type Service struct {
	deps    Deps
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates the pipeline
func NewService(deps Deps, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		deps:    deps,
		metrics: m,
		logger:  logger.With("component", "factcheck"),
		now:     time.Now,
	}
}

// Check runs the whole pipeline for one request
func (s *Service) Check(ctx context.Context, req models.FactCheckRequest) (*models.FactCheckResponse, error) {
	start := s.now()
	if req.ContentType == "" {
		req.ContentType = models.ContentTypeText
	}

	ctx, span := tracing.StartSpan(ctx, "factcheck.check",
		attribute.String("content.type", string(req.ContentType)),
		attribute.String("language", req.Language),
		attribute.Bool("check_sources", req.CheckSources),
	)

	resp, err := s.run(ctx, req, start)

	outcome := "success"
	if err != nil {
		outcome = "error"
		s.logger.Error("fact-check failed", "content_type", req.ContentType, "error", err)
	} else {
		span.SetAttributes(
			attribute.Float64("credibility.score", resp.CredibilityScore),
			attribute.String("credibility.level", string(resp.OverallCredibility)),
		)
		s.logger.Info("fact-check completed",
			"content_type", req.ContentType,
			"credibility_score", resp.CredibilityScore,
			"overall_credibility", resp.OverallCredibility,
			"processing_time", resp.ProcessingTime,
		)
	}
	s.metrics.RecordCheck(string(req.ContentType), outcome, s.now().Sub(start))
	tracing.EndSpan(span, err)

	return resp, err
}

func (s *Service) run(ctx context.Context, req models.FactCheckRequest, start time.Time) (*models.FactCheckResponse, error) {
	var content string
	err := s.stage(ctx, "preprocess", func(ctx context.Context) error {
		var err error
		content, err = s.preprocess(ctx, req)
		if err == nil {
			stats := preprocess.Readability(content)
			tracing.SetSpanAttributes(ctx,
				attribute.Int("content.length", stats.Chars),
				attribute.Int("content.sentences", stats.Sentences),
				attribute.Int("content.words", stats.Words),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	err = s.stage(ctx, "validate", func(context.Context) error {
		if !preprocess.IsValidContent(content) {
			return ErrInvalidContent
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var redFlags []string
	_ = s.stage(ctx, "heuristics", func(ctx context.Context) error {
		redFlags = preprocess.DetectRedFlags(content)
		tracing.SetSpanAttributes(ctx, attribute.Int("red_flags.count", len(redFlags)))
		return nil
	})

	var analysis *models.AnalysisResult
	err = s.stage(ctx, "analyze", func(ctx context.Context) error {
		var err error
		analysis, err = s.deps.Analyzer.Analyze(ctx, content, req.Language)
		if err != nil {
			return fmt.Errorf("analysis: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sources := []models.Source{}
	if req.CheckSources && s.deps.Searcher != nil {
		_ = s.stage(ctx, "search_sources", func(ctx context.Context) error {
			sources = s.searchSources(ctx, content, analysis)
			tracing.SetSpanAttributes(ctx, attribute.Int("sources.count", len(sources)))
			return nil
		})
	}

	var resp *models.FactCheckResponse
	_ = s.stage(ctx, "consolidate", func(context.Context) error {
		resp = s.consolidate(req, content, analysis, sources, redFlags, start)
		return nil
	})
	return resp, nil
}

// stage runs fn inside its own span and records its duration
func (s *Service) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	began := s.now()
	ctx, span := tracing.StartSpan(ctx, "factcheck."+name)
	err := fn(ctx)
	tracing.EndSpan(span, err)
	s.metrics.ObserveStage(name, s.now().Sub(began))
	return err
}

// preprocess turns any content type into cleaned text
func (s *Service) preprocess(ctx context.Context, req models.FactCheckRequest) (string, error) {
	content := req.Content

	switch req.ContentType {
	case models.ContentTypeText:
		// used as is
	case models.ContentTypeURL:
		target, err := parseHTTPURL(content)
		if err != nil {
			return "", err
		}
		if s.deps.Fetcher == nil {
			return "", fmt.Errorf("%w: %s", ErrContentFetchFailed, target)
		}
		s.logger.Info("fetching url content", "url", target)
		text, ok := s.deps.Fetcher.FetchURLContent(ctx, target)
		if !ok || strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("%w: %s", ErrContentFetchFailed, target)
		}
		content = text

	case models.ContentTypeImage:
		if s.deps.Media == nil {
			return "", media.ErrNoAnalysisMethod
		}
		s.logger.Info("analyzing image")
		analysis, err := s.deps.Media.AnalyzeImage(ctx, content)
		if err != nil {
			return "", fmt.Errorf("image analysis: %w", err)
		}
		content = describeImage(analysis)

	case models.ContentTypeVideo:
		if s.deps.Media == nil {
			return "", media.ErrNoAnalysisMethod
		}
		s.logger.Info("analyzing video")
		analysis, err := s.deps.Media.AnalyzeVideo(ctx, content)
		if err != nil {
			return "", fmt.Errorf("video analysis: %w", err)
		}
		content = describeVideo(analysis)

	default:
		return "", fmt.Errorf("unsupported content type: %q", req.ContentType)
	}

	return preprocess.Clean(content), nil
}

func parseHTTPURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
	return u.String(), nil
}

func describeImage(a *models.ImageAnalysis) string {
	var b strings.Builder
	b.WriteString("IMAGE ANALYSIS:\n\n")
	fmt.Fprintf(&b, "Description: %s\n\n", a.Description)
	if a.ExtractedText != "" {
		fmt.Fprintf(&b, "Extracted text: %s\n\n", a.ExtractedText)
	}
	if len(a.Claims) > 0 {
		fmt.Fprintf(&b, "Identified claims: %s", strings.Join(a.Claims, ", "))
	}
	return b.String()
}

func describeVideo(v *models.VideoAnalysis) string {
	var b strings.Builder
	b.WriteString("VIDEO ANALYSIS:\n\n")
	fmt.Fprintf(&b, "Duration: %.2fs\n", v.Duration)
	fmt.Fprintf(&b, "Frames analyzed: %d\n\n", v.FramesAnalyzed)
	if len(v.FramesContent) > 0 {
		b.WriteString("Visual content identified:\n")
		for i, frame := range v.FramesContent {
			description := frame.Description
			if description == "" {
				description = "N/A"
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, description)
			if frame.ExtractedText != "" {
				fmt.Fprintf(&b, "   Text: %s\n", frame.ExtractedText)
			}
		}
	}
	return b.String()
}

// searchSources queries with the model's main claim, then with the opening words of the content
func (s *Service) searchSources(ctx context.Context, content string, analysis *models.AnalysisResult) []models.Source {
	sources := []models.Source{}

	if len(analysis.Claims) > 0 {
		if claim := strings.TrimSpace(analysis.Claims[0].Text); claim != "" {
			sources = append(sources, s.deps.Searcher.SearchSources(ctx, claim, claimSearchResults)...)
		}
	}

	if len(sources) == 0 {
		words := strings.Fields(content)
		query := strings.Join(words[:min(len(words), generalQueryWords)], " ")
		sources = append(sources, s.deps.Searcher.SearchSources(ctx, query, generalSearchResults)...)
	}
	return sources
}

func (s *Service) consolidate(
	req models.FactCheckRequest,
	content string,
	analysis *models.AnalysisResult,
	sources []models.Source,
	redFlags []string,
	start time.Time,
) *models.FactCheckResponse {
	claims := make([]models.Claim, 0, len(analysis.Claims))
	for _, draft := range analysis.Claims {
		claims = append(claims, models.Claim{ClaimDraft: draft, Sources: []models.Source{}})
	}

	now := s.now()
	return &models.FactCheckResponse{
		Content:            truncateRunes(content, MaxResponseContent),
		ContentType:        req.ContentType,
		OverallCredibility: CredibilityLevelFor(analysis.CredibilityScore),
		CredibilityScore:   analysis.CredibilityScore,
		Summary:            analysis.Summary,
		Claims:             claims,
		SourcesChecked:     sources,
		RedFlags:           mergeRedFlags(redFlags, analysis.RedFlags),
		Timestamp:          now.UTC(),
		ProcessingTime:     math.Round(now.Sub(start).Seconds()*100) / 100,
	}
}

// CredibilityLevelFor maps a score to its band; each threshold belongs to the higher band
func CredibilityLevelFor(score float64) models.CredibilityLevel {
	switch {
	case score >= 0.8:
		return models.CredibilityHigh
	case score >= 0.6:
		return models.CredibilityMedium
	case score >= 0.4:
		return models.CredibilityLow
	case score >= 0.2:
		return models.CredibilityVeryLow
	default:
		return models.CredibilityUnverifiable
	}
}

// mergeRedFlags unions the lists, keeping first-seen order
func mergeRedFlags(lists ...[]string) []string {
	seen := make(map[string]struct{})
	merged := []string{}
	for _, list := range lists {
		for _, flag := range list {
			if _, dup := seen[flag]; dup {
				continue
			}
			seen[flag] = struct{}{}
			merged = append(merged, flag)
		}
	}
	return merged
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
