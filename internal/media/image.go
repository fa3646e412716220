package media

import (
	"encoding/json"
	"strings"

	"github.com/zombar/factcheck/internal/llm"
	"github.com/zombar/factcheck/internal/models"
)

const imagePrompt = `Analyze this image from a fact-checking point of view.

Provide your analysis in JSON format:

{
  "description": "<detailed description of what appears in the image>",
  "contains_text": <true or false>,
  "extracted_text": "<text visible in the image, if any>",
  "claims": ["<visual or textual claims identified>"],
  "red_flags": ["<warning signs: manipulation, deepfake, misleading context, etc>"],
  "authenticity_score": <0 to 1, probability that the image is authentic>,
  "context_needed": "<additional context needed for a complete verification>"
}

Respond ONLY with the JSON object, no additional text.`

func neutralImageAnalysis() *models.ImageAnalysis {
	return &models.ImageAnalysis{
		Description:       "Analysis error",
		Claims:            []string{},
		RedFlags:          []string{"image processing error"},
		AuthenticityScore: 0.5,
		ContextNeeded:     "Manual analysis required",
	}
}

// ParseImageAnalysis decodes a vision model reply. Unparseable replies and
// missing fields fall back to an empty description and an authenticity of 0.5.
func ParseImageAnalysis(raw string) *models.ImageAnalysis {
	var parsed struct {
		Description       string   `json:"description"`
		ContainsText      bool     `json:"contains_text"`
		ExtractedText     string   `json:"extracted_text"`
		Claims            []string `json:"claims"`
		RedFlags          []string `json:"red_flags"`
		AuthenticityScore *float64 `json:"authenticity_score"`
		ContextNeeded     string   `json:"context_needed"`
	}
	_ = json.Unmarshal([]byte(llm.ExtractJSON(raw)), &parsed)

	result := &models.ImageAnalysis{
		Description:       strings.TrimSpace(parsed.Description),
		ContainsText:      parsed.ContainsText,
		ExtractedText:     strings.TrimSpace(parsed.ExtractedText),
		Claims:            nonEmpty(parsed.Claims),
		RedFlags:          nonEmpty(parsed.RedFlags),
		AuthenticityScore: 0.5,
		ContextNeeded:     strings.TrimSpace(parsed.ContextNeeded),
	}
	if parsed.AuthenticityScore != nil {
		result.AuthenticityScore = min(max(*parsed.AuthenticityScore, 0), 1)
	}
	if result.ExtractedText != "" {
		result.ContainsText = true
	}
	return result
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
