package adapters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// DefaultFFmpegBinary is used when no binary is configured.
const DefaultFFmpegBinary = "ffmpeg"

type commandRunner func(ctx context.Context, name string, args ...string) error

// AudioExtractor cuts a time range out of a media file as 16 kHz mono WAV.
type AudioExtractor struct {
	binary string
	run    commandRunner
	logger *zap.Logger
}

// NewAudioExtractor creates an extractor using the given ffmpeg binary.
func NewAudioExtractor(binary string, logger *zap.Logger) *AudioExtractor {
	if binary == "" {
		binary = DefaultFFmpegBinary
	}
	return &AudioExtractor{
		binary: binary,
		run:    runCommand,
		logger: loggerOrNop(logger),
	}
}

// WithCommandRunner replaces process execution (for testing).
func (e *AudioExtractor) WithCommandRunner(run func(ctx context.Context, name string, args ...string) error) {
	e.run = run
}

// Extract writes the audio of [start, end) seconds of source to dest.
func (e *AudioExtractor) Extract(ctx context.Context, source string, start, end float64, dest string) error {
	if end <= start {
		return fmt.Errorf("extract audio: empty range %.3f-%.3f", start, end)
	}
	args := extractArgs(source, start, end-start, dest)

	e.logger.Debug("Extracting audio",
		zap.String("source", source),
		zap.Float64("start", start),
		zap.Float64("end", end),
	)
	if err := e.run(ctx, e.binary, args...); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("extract audio: %w: %s not installed", ErrServiceUnavailable, e.binary)
		}
		return fmt.Errorf("extract audio: %w", err)
	}
	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("extract audio: output missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("extract audio: empty output %s", dest)
	}
	return nil
}

func extractArgs(source string, start, duration float64, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", start),
		"-t", fmt.Sprintf("%.3f", duration),
		"-i", source,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
