package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zombar/factcheck/internal/models"
)

const (
	// SampledFrames is how many frames are sampled evenly across a video
	SampledFrames = 5
	// MaxAnalyzedFrames caps how many sampled frames go through image analysis
	MaxAnalyzedFrames = 5
)

// AnalyzeVideo samples frames of a video given as a local path or http(s) URL,
// analyzes them as images and tries to extract the audio track.
// Without ffmpeg/ffprobe no frames are sampled and the duration stays 0.
func (a *Analyzer) AnalyzeVideo(ctx context.Context, source string) (*models.VideoAnalysis, error) {
	local, cleanup, err := a.localize(ctx, source, videoDownloadTimeout)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer cleanup()

	a.metrics.RecordMediaAnalysis("video", string(a.capability))

	result := &models.VideoAnalysis{FramesContent: []models.ImageAnalysis{}}

	if a.tools.Video() {
		total, fps, err := a.probeVideo(ctx, local)
		if err != nil {
			return nil, fmt.Errorf("probe video: %w", err)
		}

		frames, err := a.extractFrames(ctx, local, total)
		defer func() {
			for _, f := range frames {
				a.remove(f)
			}
		}()
		if err != nil {
			return nil, fmt.Errorf("extract frames: %w", err)
		}
		result.FramesAnalyzed = len(frames)

		if a.capability != CapabilityUnavailable {
			for _, frame := range frames[:min(len(frames), MaxAnalyzedFrames)] {
				analysis, err := a.analyzeLocalImage(ctx, frame)
				if err != nil {
					return nil, fmt.Errorf("analyze frame: %w", err)
				}
				result.FramesContent = append(result.FramesContent, *analysis)
			}
		}

		if fps > 0 {
			result.Duration = float64(total) / fps
		}
	} else {
		a.logger.Warn("frame extraction unavailable, ffmpeg/ffprobe not found")
	}

	result.AudioExtracted = a.extractAudio(ctx, local)

	a.logger.Info("video analyzed",
		"frames", result.FramesAnalyzed,
		"frames_analyzed", len(result.FramesContent),
		"audio_extracted", result.AudioExtracted,
		"duration", result.Duration,
	)
	return result, nil
}

// probeVideo returns the frame count and frame rate of the first video stream
func (a *Analyzer) probeVideo(ctx context.Context, videoPath string) (int, float64, error) {
	out, err := a.runner.Run(ctx, a.tools.FFprobe,
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=nb_read_packets,r_frame_rate",
		"-of", "json",
		videoPath,
	)
	if err != nil {
		return 0, 0, err
	}

	var probe struct {
		Streams []struct {
			Packets   string `json:"nb_read_packets"`
			FrameRate string `json:"r_frame_rate"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, 0, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(probe.Streams) == 0 {
		return 0, 0, fmt.Errorf("%w: no video stream", ErrUnsupportedMedia)
	}

	total, _ := strconv.Atoi(probe.Streams[0].Packets)
	return total, parseFrameRate(probe.Streams[0].FrameRate), nil
}

// parseFrameRate parses ffprobe rates such as "30000/1001" or "25"
func parseFrameRate(rate string) float64 {
	num, den, found := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// FrameIndices returns the sampled frame numbers for a video of total frames
func FrameIndices(total int) []int {
	interval := max(1, total/SampledFrames)
	indices := make([]int, 0, SampledFrames)
	for i := 0; i < SampledFrames; i++ {
		indices = append(indices, i*interval)
	}
	return indices
}

// extractFrames writes the sampled frames as JPEG files. Frames past the end of
// the stream produce no file and are skipped. The returned paths must be removed by the caller,
// including when an error is returned.
func (a *Analyzer) extractFrames(ctx context.Context, videoPath string, total int) ([]string, error) {
	var frames []string
	for _, index := range FrameIndices(total) {
		dst := a.scratchPath(".jpg")
		_, err := a.runner.Run(ctx, a.tools.FFmpeg,
			"-v", "error", "-y",
			"-i", videoPath,
			"-vf", fmt.Sprintf(`select=eq(n\,%d)`, index),
			"-frames:v", "1",
			dst,
		)
		if err != nil {
			a.remove(dst)
			return frames, fmt.Errorf("frame %d: %w", index, err)
		}
		if _, err := os.Stat(dst); err != nil {
			continue
		}
		frames = append(frames, dst)
	}
	return frames, nil
}

// extractAudio writes the audio track to a scratch mp3 and removes it again.
// Any failure is logged and reported as false.
func (a *Analyzer) extractAudio(ctx context.Context, videoPath string) bool {
	if !a.tools.Audio() {
		a.logger.Warn("audio extraction unavailable, ffmpeg not found")
		return false
	}

	dst := a.scratchPath(".mp3")
	defer a.remove(dst)

	if _, err := a.runner.Run(ctx, a.tools.FFmpeg, "-v", "error", "-y", "-i", videoPath, "-vn", "-q:a", "4", dst); err != nil {
		a.logger.Warn("audio extraction failed", "error", err)
		return false
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		a.logger.Warn("audio extraction produced no output")
		return false
	}
	return true
}
