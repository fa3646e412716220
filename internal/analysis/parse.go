package analysis

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/zombar/factcheck/internal/llm"
	"github.com/zombar/factcheck/internal/models"
)

const (
	defaultScore       = 0.5
	defaultCredibility = "medium"
	defaultSummary     = "Analysis completed successfully."
	defaultVeracity    = "unverifiable"
	fallbackSummary    = "Sorry, a complete structured analysis could not be produced for this content."
	fallbackRedFlag    = "response processing error"
)

// FallbackResult is returned when the model reply cannot be parsed at all
func FallbackResult() models.AnalysisResult {
	return models.AnalysisResult{
		CredibilityScore:   defaultScore,
		OverallCredibility: defaultCredibility,
		Summary:            fallbackSummary,
		Claims:             []models.ClaimDraft{},
		RedFlags:           []string{fallbackRedFlag},
		Recommendations:    []string{},
	}
}

// ParseAnalysis turns a raw model reply into a complete AnalysisResult. It never fails.
// Each top-level field is decoded on its own; a missing or mistyped field gets its default.
func ParseAnalysis(raw string) models.AnalysisResult {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(llm.ExtractJSON(raw)), &fields); err != nil || fields == nil {
		slog.Warn("failed to parse model analysis, using fallback", "error", err, "response_length", len(raw))
		return FallbackResult()
	}

	result := models.AnalysisResult{
		CredibilityScore:   defaultScore,
		OverallCredibility: defaultCredibility,
		Summary:            defaultSummary,
		Claims:             []models.ClaimDraft{},
		RedFlags:           []string{},
		Recommendations:    []string{},
	}

	var score float64
	if decode(fields, "credibility_score", &score) {
		result.CredibilityScore = clamp(score)
	}

	var level string
	if decode(fields, "overall_credibility", &level) && strings.TrimSpace(level) != "" {
		result.OverallCredibility = level
	}

	var summary string
	if decode(fields, "summary", &summary) && strings.TrimSpace(summary) != "" {
		result.Summary = summary
	}

	var claims []json.RawMessage
	if decode(fields, "claims", &claims) {
		for _, raw := range claims {
			if c, ok := parseClaim(raw); ok {
				result.Claims = append(result.Claims, c)
			}
		}
	}

	var redFlags []string
	if decode(fields, "red_flags", &redFlags) {
		result.RedFlags = nonEmpty(redFlags)
	}

	var recommendations []string
	if decode(fields, "recommendations", &recommendations) {
		result.Recommendations = nonEmpty(recommendations)
	}

	return result
}

// parseClaim decodes one claim field by field. Claims that are not objects or
// have no text are dropped.
func parseClaim(raw json.RawMessage) (models.ClaimDraft, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return models.ClaimDraft{}, false
	}

	var text string
	if !decode(fields, "text", &text) || strings.TrimSpace(text) == "" {
		return models.ClaimDraft{}, false
	}

	claim := models.ClaimDraft{
		Text:       text,
		Veracity:   defaultVeracity,
		Confidence: defaultScore,
	}

	var veracity string
	if decode(fields, "veracity", &veracity) && strings.TrimSpace(veracity) != "" {
		claim.Veracity = veracity
	}

	var confidence float64
	if decode(fields, "confidence", &confidence) {
		claim.Confidence = clamp(confidence)
	}

	decode(fields, "explanation", &claim.Explanation)
	return claim, true
}

func decode(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok || string(raw) == "null" {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func nonEmpty(items []string) []string {
	out := []string{}
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
