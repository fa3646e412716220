// Package media turns images and videos into structured descriptions for fact-checking.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/zombar/factcheck/internal/llm"
	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/models"
)

const (
	imageDownloadTimeout = 30 * time.Second
	videoDownloadTimeout = 60 * time.Second
	maxDownloadBytes     = 200 << 20
)

var (
	// ErrNoAnalysisMethod is returned when neither a vision model nor OCR is available
	ErrNoAnalysisMethod = errors.New("no image analysis method available")
	// ErrUnsupportedMedia is returned when a file is not the expected kind of media
	ErrUnsupportedMedia = errors.New("unsupported media")
)

// Options configures an Analyzer
type Options struct {
	// Vision is the image-capable model; nil disables vision analysis
	Vision     llm.Generator
	ScratchDir string
	HTTPClient *http.Client
	// Tools overrides binary discovery; nil probes PATH
	Tools  *Tools
	Runner CommandRunner
}

// Analyzer describes images and samples videos
type Analyzer struct {
	vision     llm.Generator
	tools      Tools
	capability Capability
	scratchDir string
	client     *http.Client
	runner     CommandRunner
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// New creates an analyzer and fixes its capability from the configured model and tools
func New(opts Options, m *metrics.Metrics, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	tools := ProbeTools()
	if opts.Tools != nil {
		tools = *opts.Tools
	}
	scratch := opts.ScratchDir
	if scratch == "" {
		scratch = os.TempDir()
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	runner := opts.Runner
	if runner == nil {
		runner = execRunner{}
	}

	a := &Analyzer{
		vision:     opts.Vision,
		tools:      tools,
		capability: DetectCapability(opts.Vision != nil, tools),
		scratchDir: scratch,
		client:     client,
		runner:     runner,
		metrics:    m,
		logger:     logger.With("component", "media"),
	}
	a.logger.Info("media analyzer initialized",
		"capability", a.capability,
		"ocr", tools.OCR(),
		"video", tools.Video(),
		"audio", tools.Audio(),
	)
	return a
}

// Capability returns the image analysis path chosen at startup
func (a *Analyzer) Capability() Capability { return a.capability }

// Tools returns the external binaries found at startup
func (a *Analyzer) Tools() Tools { return a.tools }

// AnalyzeImage describes an image given as a local path or http(s) URL
func (a *Analyzer) AnalyzeImage(ctx context.Context, source string) (*models.ImageAnalysis, error) {
	if a.capability == CapabilityUnavailable {
		return nil, ErrNoAnalysisMethod
	}

	local, cleanup, err := a.localize(ctx, source, imageDownloadTimeout)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer cleanup()

	a.metrics.RecordMediaAnalysis("image", string(a.capability))
	return a.analyzeLocalImage(ctx, local)
}

func (a *Analyzer) analyzeLocalImage(ctx context.Context, imagePath string) (*models.ImageAnalysis, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("image open: %w", err)
	}
	if mt := mimetype.Detect(data); !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("image open: %w: detected %s", ErrUnsupportedMedia, mt.String())
	}

	switch a.capability {
	case CapabilityFull:
		analysis := a.describeWithVision(ctx, data)
		if a.tools.OCR() {
			if text := a.extractText(ctx, imagePath); text != "" {
				analysis.ExtractedText = text
				analysis.ContainsText = true
			}
		}
		return analysis, nil

	case CapabilityTextOnly:
		text := a.extractText(ctx, imagePath)
		return &models.ImageAnalysis{
			Description:       "Text extracted via OCR",
			ContainsText:      text != "",
			ExtractedText:     text,
			Claims:            []string{},
			RedFlags:          []string{},
			AuthenticityScore: 0.5,
			ContextNeeded:     "Visual analysis unavailable (no vision model configured)",
		}, nil

	default:
		return nil, ErrNoAnalysisMethod
	}
}

// describeWithVision asks the vision model for an analysis; failures degrade to a neutral result
func (a *Analyzer) describeWithVision(ctx context.Context, image []byte) *models.ImageAnalysis {
	raw, err := a.vision.Generate(ctx, imagePrompt, image)
	a.metrics.RecordModelCall("analyze_image", err)
	if err != nil {
		a.logger.Error("vision analysis failed", "error", err)
		return neutralImageAnalysis()
	}
	return ParseImageAnalysis(raw)
}

// extractText runs tesseract OCR in Portuguese and English; failures yield ""
func (a *Analyzer) extractText(ctx context.Context, imagePath string) string {
	out, err := a.runner.Run(ctx, a.tools.Tesseract, imagePath, "stdout", "-l", "por+eng")
	if err != nil {
		a.logger.Warn("ocr failed", "path", imagePath, "error", err)
		return ""
	}
	return strings.TrimSpace(string(out))
}

// localize returns a local path for source, downloading remote URLs into the scratch dir.
// cleanup removes only files this call created.
func (a *Analyzer) localize(ctx context.Context, source string, timeout time.Duration) (string, func(), error) {
	noop := func() {}
	if !isRemote(source) {
		return source, noop, nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", noop, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return "", noop, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", noop, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	dst := a.scratchPath(path.Ext(req.URL.Path))
	f, err := os.Create(dst)
	if err != nil {
		return "", noop, err
	}
	cleanup := func() { a.remove(dst) }

	if _, err := io.Copy(f, io.LimitReader(resp.Body, maxDownloadBytes)); err != nil {
		f.Close()
		cleanup()
		return "", noop, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", noop, err
	}

	a.logger.Debug("media downloaded", "url", source, "path", dst)
	return dst, cleanup, nil
}

func (a *Analyzer) scratchPath(ext string) string {
	return filepath.Join(a.scratchDir, "factcheck-"+uuid.NewString()+ext)
}

func (a *Analyzer) remove(p string) {
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		a.logger.Warn("failed to remove scratch file", "path", p, "error", err)
	}
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}
