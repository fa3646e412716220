package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sashabaranov/go-openai"
)

const (
	// GeminiBaseURL is Gemini's OpenAI-compatible endpoint
	GeminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultGeminiModel = "gemini-2.0-flash-exp"
)

var errEmptyCompletion = errors.New("model returned no choices")

// OpenAIClient talks to any OpenAI-compatible chat completion endpoint
type OpenAIClient struct {
	client      *openai.Client
	model       string
	timeout     time.Duration
	temperature float32
	logger      *slog.Logger
}

// NewOpenAI creates a chat completion client. An empty baseURL targets Gemini.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("api key is required")
	}
	if baseURL == "" {
		baseURL = GeminiBaseURL
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimSuffix(baseURL, "/")
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		timeout:     timeout,
		temperature: 0.2,
		logger:      slog.Default().With("component", "openai"),
	}, nil
}

// Generate sends a single user message; images are attached as data URL parts
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	c.logger.Debug("sending request", "model", c.model, "images", len(images))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(images) == 0 {
		msg.Content = prompt
	} else {
		msg.MultiContent = []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
		for _, img := range images {
			msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
				Type:     openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{URL: dataURL(img)},
			})
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessage{msg},
		Temperature: c.temperature,
	})
	if err != nil {
		c.logger.Error("completion failed", "model", c.model, "error", err)
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}

	result := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debug("response received", "model", c.model, "chars", len(result))
	return result, nil
}

func dataURL(img []byte) string {
	return "data:" + mimetype.Detect(img).String() + ";base64," + base64.StdEncoding.EncodeToString(img)
}
