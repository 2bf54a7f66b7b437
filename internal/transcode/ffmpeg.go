package transcode

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"webvid/internal/logging"
	"webvid/internal/services"
)

// stderrTailLines bounds how much ffmpeg output is attached to an error.
const stderrTailLines = 8

// CommandRunner executes a binary and returns its captured stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// FFmpeg implements Transcoder by shelling out to the ffmpeg binary.
type FFmpeg struct {
	binary   string
	logLevel string
	logger   *slog.Logger
	run      CommandRunner
}

// FFmpegOption configures an FFmpeg transcoder.
type FFmpegOption func(*FFmpeg)

// WithLogLevel sets the -loglevel passed to every invocation.
func WithLogLevel(level string) FFmpegOption {
	return func(f *FFmpeg) {
		if level = strings.TrimSpace(level); level != "" {
			f.logLevel = level
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) FFmpegOption {
	return func(f *FFmpeg) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithCommandRunner replaces process execution, primarily for tests.
func WithCommandRunner(run CommandRunner) FFmpegOption {
	return func(f *FFmpeg) {
		if run != nil {
			f.run = run
		}
	}
}

// NewFFmpeg constructs an ffmpeg-backed transcoder.
func NewFFmpeg(binary string, opts ...FFmpegOption) *FFmpeg {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	f := &FFmpeg{
		binary:   binary,
		logLevel: DefaultLogLevel,
		logger:   logging.NewNop(),
		run:      defaultCommandRunner,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Binary returns the ffmpeg executable in use.
func (f *FFmpeg) Binary() string {
	return f.binary
}

// Rescale implements Transcoder.
func (f *FFmpeg) Rescale(ctx context.Context, src, dst string, height int) error {
	if height <= 0 {
		return fmt.Errorf("rescale: invalid height %d", height)
	}
	return f.exec(ctx, "rescale", RescaleArgs(f.logLevel, src, dst, height))
}

// ExtractFrames implements Transcoder.
func (f *FFmpeg) ExtractFrames(ctx context.Context, src, pattern string, height int) error {
	if height <= 0 {
		return fmt.Errorf("extract frames: invalid height %d", height)
	}
	return f.exec(ctx, "extract frames", ExtractFramesArgs(f.logLevel, src, pattern, height))
}

// ExtractPoster implements Transcoder.
func (f *FFmpeg) ExtractPoster(ctx context.Context, src, dst string) error {
	return f.exec(ctx, "extract poster", PosterArgs(f.logLevel, src, dst))
}

// ConvertSubtitle implements Transcoder.
func (f *FFmpeg) ConvertSubtitle(ctx context.Context, src, dst string) error {
	return f.exec(ctx, "convert subtitle", SubtitleArgs(f.logLevel, src, dst))
}

func (f *FFmpeg) exec(ctx context.Context, operation string, args []string) error {
	stage, _ := services.StageFromContext(ctx)
	logger := logging.WithContext(ctx, f.logger)
	logger.Debug("ffmpeg invocation",
		logging.String("operation", operation),
		logging.String("command", f.binary+" "+strings.Join(args, " ")),
	)

	start := time.Now()
	stderr, err := f.run(ctx, f.binary, args...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", operation, ctxErr)
		}
		return services.Wrap(services.ErrExternalTool, stage, operation, tail(stderr, stderrTailLines), err)
	}
	logger.Debug("ffmpeg finished",
		logging.String("operation", operation),
		logging.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

// tail returns the last n non-empty lines of output joined by "; ".
func tail(output []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	kept := make([]string, 0, n)
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			kept = append(kept, line)
		}
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return strings.Join(kept, "; ")
}
