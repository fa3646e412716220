package media

import (
	"context"
	"os/exec"
)

// Capability describes which image analysis path is available
type Capability string

const (
	// CapabilityUnavailable means neither a vision model nor OCR is present
	CapabilityUnavailable Capability = "unavailable"
	// CapabilityTextOnly means only OCR text extraction is present
	CapabilityTextOnly Capability = "text-only"
	// CapabilityFull means a vision model is configured, with OCR as a supplement when present
	CapabilityFull Capability = "full"
)

// Tools holds resolved paths of the external binaries; an empty path means missing
type Tools struct {
	Tesseract string
	FFmpeg    string
	FFprobe   string
}

// ProbeTools looks up tesseract, ffmpeg and ffprobe on PATH
func ProbeTools() Tools {
	return Tools{
		Tesseract: lookPath("tesseract"),
		FFmpeg:    lookPath("ffmpeg"),
		FFprobe:   lookPath("ffprobe"),
	}
}

func lookPath(name string) string {
	path, err := exec.LookPath(name)
	if err != nil {
		return ""
	}
	return path
}

// OCR reports whether tesseract is available
func (t Tools) OCR() bool { return t.Tesseract != "" }

// Video reports whether frame extraction is possible
func (t Tools) Video() bool { return t.FFmpeg != "" && t.FFprobe != "" }

// Audio reports whether audio extraction is possible
func (t Tools) Audio() bool { return t.FFmpeg != "" }

// DetectCapability picks the image analysis path
func DetectCapability(visionConfigured bool, tools Tools) Capability {
	switch {
	case visionConfigured:
		return CapabilityFull
	case tools.OCR():
		return CapabilityTextOnly
	default:
		return CapabilityUnavailable
	}
}

// CommandRunner executes an external program and returns its standard output
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
