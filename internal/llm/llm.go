// Package llm provides clients for the generative models used by the analysis engine.
package llm

import (
	"context"
	"strings"
	"time"
)

// DefaultTimeout bounds a single model call
const DefaultTimeout = 120 * time.Second

// Generator produces a completion for a prompt, optionally grounded on images
type Generator interface {
	Generate(ctx context.Context, prompt string, images ...[]byte) (string, error)
}

// ExtractJSON returns the outermost JSON object in a model response.
// Markdown code fences are removed first. If no object is found the trimmed input is returned.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
		response = strings.TrimSpace(response)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return response
}

// ExtractJSONArray returns the outermost JSON array in a model response, or "" if there is none
func ExtractJSONArray(response string) string {
	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start >= 0 && end > start {
		return response[start : end+1]
	}
	return ""
}
