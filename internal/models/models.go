package models

import (
	"fmt"
	"strings"
	"time"
)

// ContentType identifies what kind of content a request carries
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeURL   ContentType = "url"
	ContentTypeImage ContentType = "image"
	ContentTypeVideo ContentType = "video"
)

// ParseContentType validates a raw content type string
func ParseContentType(s string) (ContentType, error) {
	switch ct := ContentType(strings.ToLower(strings.TrimSpace(s))); ct {
	case ContentTypeText, ContentTypeURL, ContentTypeImage, ContentTypeVideo:
		return ct, nil
	case "":
		return ContentTypeText, nil
	default:
		return "", fmt.Errorf("unsupported content type: %q", s)
	}
}

// CredibilityLevel is the overall verdict band derived from a credibility score
type CredibilityLevel string

const (
	CredibilityHigh         CredibilityLevel = "high"
	CredibilityMedium       CredibilityLevel = "medium"
	CredibilityLow          CredibilityLevel = "low"
	CredibilityVeryLow      CredibilityLevel = "very_low"
	CredibilityUnverifiable CredibilityLevel = "unverifiable"
)

// FactCheckRequest is the input to the fact-checking pipeline
type FactCheckRequest struct {
	Content      string      `json:"content"`
	ContentType  ContentType `json:"content_type"`
	CheckSources bool        `json:"check_sources"`
	Language     string      `json:"language"`
}

// NewFactCheckRequest returns a request populated with the API defaults
func NewFactCheckRequest(content string) FactCheckRequest {
	return FactCheckRequest{
		Content:      content,
		ContentType:  ContentTypeText,
		CheckSources: true,
		Language:     "pt",
	}
}

// Source is an external reference consulted during verification
type Source struct {
	Title       string  `json:"title"`
	URL         string  `json:"url,omitempty"`
	Credibility string  `json:"credibility"` // high, medium, low
	Relevance   float64 `json:"relevance"`   // 0.0 to 1.0
	Summary     string  `json:"summary,omitempty"`
}

// ClaimDraft is a factual assertion as reported by the model
type ClaimDraft struct {
	Text        string  `json:"text"`
	Veracity    string  `json:"veracity"`
	Confidence  float64 `json:"confidence"` // 0.0 to 1.0
	Explanation string  `json:"explanation"`
}

// Claim is a ClaimDraft with the sources attached to it
type Claim struct {
	ClaimDraft
	Sources []Source `json:"sources"`
}

// AnalysisResult is the normalized model analysis. Every field always holds a usable value.
type AnalysisResult struct {
	CredibilityScore   float64      `json:"credibility_score"`
	OverallCredibility string       `json:"overall_credibility"`
	Summary            string       `json:"summary"`
	Claims             []ClaimDraft `json:"claims"`
	RedFlags           []string     `json:"red_flags"`
	Recommendations    []string     `json:"recommendations"`
}

// FactCheckResponse is the final verdict returned to callers
type FactCheckResponse struct {
	Content            string           `json:"content"`
	ContentType        ContentType      `json:"content_type"`
	OverallCredibility CredibilityLevel `json:"overall_credibility"`
	CredibilityScore   float64          `json:"credibility_score"`
	Summary            string           `json:"summary"`
	Claims             []Claim          `json:"claims"`
	SourcesChecked     []Source         `json:"sources_checked"`
	RedFlags           []string         `json:"red_flags"`
	Timestamp          time.Time        `json:"timestamp"`
	ProcessingTime     float64          `json:"processing_time"` // seconds
}

// ImageAnalysis describes what the media analyzer found in an image
type ImageAnalysis struct {
	Description       string   `json:"description"`
	ContainsText      bool     `json:"contains_text"`
	ExtractedText     string   `json:"extracted_text"`
	Claims            []string `json:"claims"`
	RedFlags          []string `json:"red_flags"`
	AuthenticityScore float64  `json:"authenticity_score"` // 0.0 to 1.0
	ContextNeeded     string   `json:"context_needed"`
}

// VideoAnalysis summarizes sampled frames and audio of a video
type VideoAnalysis struct {
	FramesAnalyzed int             `json:"frames_analyzed"`
	FramesContent  []ImageAnalysis `json:"frames_content"`
	AudioExtracted bool            `json:"audio_extracted"`
	Duration       float64         `json:"duration"` // seconds
}

// ErrorResponse is the single structured error object returned on failure
type ErrorResponse struct {
	Error     string    `json:"error"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse reports service status and integration availability
type HealthResponse struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Services  map[string]bool `json:"services"`
}

// BatchItem is the outcome of one file in a batch upload
type BatchItem struct {
	Filename string             `json:"filename"`
	Status   string             `json:"status"` // success, error
	Result   *FactCheckResponse `json:"result,omitempty"`
	Error    string             `json:"error,omitempty"`
}

// BatchResult aggregates per-file outcomes of a batch upload
type BatchResult struct {
	Total     int         `json:"total"`
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	Results   []BatchItem `json:"results"`
}

// TrustedSource is a known fact-checking organization
type TrustedSource struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Type    string `json:"type"`
	Country string `json:"country"`
}
