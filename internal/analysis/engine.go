// Package analysis asks a generative model for a structured credibility analysis.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zombar/factcheck/internal/llm"
	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/models"
)

// ErrModelNotConfigured is returned when no generative model is available
var ErrModelNotConfigured = errors.New("generative model not configured")

var languageNames = map[string]string{
	"pt": "Portuguese",
	"en": "English",
	"es": "Spanish",
}

// LanguageName maps a language code to the name used in prompts, defaulting to Portuguese
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return languageNames["pt"]
}

// Engine runs model-backed analyses
type Engine struct {
	gen     llm.Generator
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewEngine creates an engine. gen may be nil, in which case every call fails with ErrModelNotConfigured.
func NewEngine(gen llm.Generator, m *metrics.Metrics, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{gen: gen, metrics: m, logger: logger.With("component", "analysis")}
}

// Configured reports whether a model is available
func (e *Engine) Configured() bool {
	return e.gen != nil
}

// Analyze asks the model once for a credibility analysis of content.
// A malformed reply is not an error: it yields the neutral fallback result.
func (e *Engine) Analyze(ctx context.Context, content, language string) (*models.AnalysisResult, error) {
	if e.gen == nil {
		return nil, ErrModelNotConfigured
	}

	e.logger.Info("requesting model analysis", "language", language, "content_length", len(content))

	raw, err := e.gen.Generate(ctx, buildFactCheckPrompt(content, LanguageName(language)))
	e.metrics.RecordModelCall("analyze", err)
	if err != nil {
		return nil, fmt.Errorf("model analysis: %w", err)
	}

	result := ParseAnalysis(raw)
	e.logger.Info("model analysis completed",
		"credibility_score", result.CredibilityScore,
		"claims", len(result.Claims),
		"red_flags", len(result.RedFlags),
	)
	return &result, nil
}

// ExtractClaims asks the model for the verifiable statements in content.
// Any failure yields an empty list.
func (e *Engine) ExtractClaims(ctx context.Context, content string) []string {
	claims := []string{}
	if e.gen == nil {
		return claims
	}

	raw, err := e.gen.Generate(ctx, buildClaimsPrompt(content))
	e.metrics.RecordModelCall("extract_claims", err)
	if err != nil {
		e.logger.Warn("claim extraction failed", "error", err)
		return claims
	}

	array := llm.ExtractJSONArray(raw)
	if array == "" {
		e.logger.Warn("claim extraction returned no JSON array")
		return claims
	}
	var parsed []string
	if err := json.Unmarshal([]byte(array), &parsed); err != nil {
		e.logger.Warn("failed to parse extracted claims", "error", err)
		return claims
	}
	for _, c := range parsed {
		if c = strings.TrimSpace(c); c != "" {
			claims = append(claims, c)
		}
	}
	return claims
}

// Consistency is the model's view of the internal logic of a text
type Consistency struct {
	IsConsistent    bool     `json:"is_consistent"`
	Inconsistencies []string `json:"inconsistencies"`
	LogicalIssues   []string `json:"logical_issues"`
}

// CheckConsistency asks the model for contradictions in content.
// Any failure yields a consistent result with no issues.
func (e *Engine) CheckConsistency(ctx context.Context, content string) Consistency {
	neutral := Consistency{IsConsistent: true, Inconsistencies: []string{}, LogicalIssues: []string{}}
	if e.gen == nil {
		return neutral
	}

	raw, err := e.gen.Generate(ctx, buildConsistencyPrompt(content))
	e.metrics.RecordModelCall("check_consistency", err)
	if err != nil {
		e.logger.Warn("consistency check failed", "error", err)
		return neutral
	}

	var result Consistency
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &result); err != nil {
		e.logger.Warn("failed to parse consistency result", "error", err)
		return neutral
	}
	if result.Inconsistencies == nil {
		result.Inconsistencies = []string{}
	}
	if result.LogicalIssues == nil {
		result.LogicalIssues = []string{}
	}
	return result
}
