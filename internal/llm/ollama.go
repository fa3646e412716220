package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const DefaultOllamaModel = "gpt-oss:20b"

// OllamaClient wraps the Ollama API client
type OllamaClient struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewOllama creates a new Ollama client
func NewOllama(ollamaURL, model string, timeout time.Duration) (*OllamaClient, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &OllamaClient{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: timeout,
		logger:  slog.Default().With("component", "ollama"),
	}, nil
}

// Generate sends a non-streaming generate request, attaching any images
func (c *OllamaClient) Generate(ctx context.Context, prompt string, images ...[]byte) (string, error) {
	c.logger.Debug("sending request", "model", c.model, "timeout", c.timeout, "images", len(images))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.GenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: new(bool), // false
	}
	for _, img := range images {
		req.Images = append(req.Images, api.ImageData(img))
	}

	var response strings.Builder
	err := c.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		response.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		c.logger.Error("generation failed", "model", c.model, "error", err)
		return "", fmt.Errorf("generation failed: %w", err)
	}

	result := strings.TrimSpace(response.String())
	c.logger.Debug("response received", "model", c.model, "chars", len(result))
	return result, nil
}
