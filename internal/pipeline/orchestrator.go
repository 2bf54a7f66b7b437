package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"webvid/internal/logging"
	"webvid/internal/services"
	"webvid/internal/staging"
	"webvid/internal/storyboard"
	"webvid/internal/transcode"
)

// SheetGenerator packs a directory of extracted frames into sprite sheets.
type SheetGenerator interface {
	Generate(ctx context.Context, dir string, set storyboard.Set) (storyboard.Result, error)
}

// Request names the inputs of one build. Paths are expected to be validated
// already; see preflight.Validate.
type Request struct {
	Video    string
	Subtitle string
	Output   string
	// RunID identifies the run in logs, lock files, and history. A random
	// id is generated when empty.
	RunID string
}

// Bundle describes a finished build.
type Bundle struct {
	RunID  string
	Output string
	// Artifacts lists produced files relative to Output, sorted.
	Artifacts []string
	Elapsed   time.Duration
}

// Orchestrator runs every derivative step for a build.
type Orchestrator struct {
	transcoder    transcode.Transcoder
	generator     SheetGenerator
	logger        *slog.Logger
	parallel      bool
	atomic        bool
	keepFrames    bool
	lockDir       string
	ffprobeBinary string
}

// staleStagingAge is how old an unlocked staging directory must be before a
// new atomic run removes it.
const staleStagingAge = time.Hour

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGenerator replaces the sprite sheet generator.
func WithGenerator(generator SheetGenerator) Option {
	return func(o *Orchestrator) {
		if generator != nil {
			o.generator = generator
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithParallel runs the independent steps concurrently.
func WithParallel(enabled bool) Option {
	return func(o *Orchestrator) { o.parallel = enabled }
}

// WithAtomic stages the bundle and publishes it only on success.
func WithAtomic(enabled bool) Option {
	return func(o *Orchestrator) { o.atomic = enabled }
}

// WithKeepFrames leaves extracted frames next to the sprite sheets.
func WithKeepFrames(enabled bool) Option {
	return func(o *Orchestrator) { o.keepFrames = enabled }
}

// WithLockDir enables the per-output lock, keeping lock files in dir.
func WithLockDir(dir string) Option {
	return func(o *Orchestrator) { o.lockDir = strings.TrimSpace(dir) }
}

// WithSourceProbe inspects the source with the given ffprobe binary before
// the build starts. An empty binary disables probing.
func WithSourceProbe(binary string) Option {
	return func(o *Orchestrator) { o.ffprobeBinary = strings.TrimSpace(binary) }
}

// New constructs an Orchestrator around the given transcoder.
func New(transcoder transcode.Transcoder, opts ...Option) (*Orchestrator, error) {
	if transcoder == nil {
		return nil, errors.New("pipeline: transcoder is required")
	}
	o := &Orchestrator{
		transcoder: transcoder,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.generator == nil {
		o.generator = storyboard.NewGenerator(storyboard.WithLogger(o.logger))
	}
	return o, nil
}

// Run builds the bundle described by req. Without atomic mode a failed run
// may leave the artifacts produced before the failure in req.Output.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Bundle, error) {
	runID := strings.TrimSpace(req.RunID)
	if runID == "" {
		runID = uuid.NewString()
	}
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, o.logger)

	output, err := filepath.Abs(req.Output)
	if err != nil {
		return Bundle{RunID: runID}, fmt.Errorf("resolve output folder: %w", err)
	}
	bundle := Bundle{RunID: runID, Output: output}

	if o.lockDir != "" {
		lock, err := acquireOutputLock(o.lockDir, output)
		if err != nil {
			return bundle, err
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("release output lock failed", logging.Error(err))
			}
		}()
	}

	o.inspectSource(ctx, logger, req.Video)

	workDir := output
	var created []string
	if o.atomic {
		o.sweepStaging(ctx, logger, output)
		workDir = staging.Dir(output, runID)
		if created, err = staging.Create(workDir); err != nil {
			return bundle, err
		}
	} else if err := os.MkdirAll(workDir, 0o755); err != nil {
		return bundle, fmt.Errorf("create bundle folder: %w", err)
	}

	start := time.Now()
	logger.Info("build started",
		logging.String("video", req.Video),
		logging.String("subtitle", req.Subtitle),
		logging.String("output", output),
		logging.Bool("parallel", o.parallel),
		logging.Bool("atomic", o.atomic),
	)

	steps := o.steps(req.Video, req.Subtitle)
	var artifacts []string
	if o.parallel {
		artifacts, err = runParallel(ctx, logger, workDir, steps)
	} else {
		artifacts, err = runSequential(ctx, logger, workDir, steps)
	}
	if err == nil && o.atomic {
		err = staging.Commit(workDir, output)
	}
	if err != nil {
		if o.atomic {
			if rmErr := staging.Discard(workDir, created); rmErr != nil {
				logger.Warn("remove staging folder failed",
					logging.String("staging", workDir),
					logging.Error(rmErr),
				)
			}
		}
		logger.Error("build failed", logging.Error(err))
		return bundle, err
	}

	sort.Strings(artifacts)
	bundle.Artifacts = artifacts
	bundle.Elapsed = time.Since(start)
	logger.Info("build completed",
		logging.String("output", output),
		logging.Int("artifacts", len(artifacts)),
		logging.Duration("elapsed", bundle.Elapsed),
	)
	return bundle, nil
}

// sweepStaging removes staging directories left by crashed atomic runs. With
// the output lock held no other run can own one, so every leftover goes.
func (o *Orchestrator) sweepStaging(ctx context.Context, logger *slog.Logger, output string) {
	maxAge := staleStagingAge
	if o.lockDir != "" {
		maxAge = 0
	}
	result := staging.CleanStale(ctx, output, maxAge, logger)
	for _, failure := range result.Errors {
		logger.Warn("staging cleanup failed",
			logging.String("path", failure.Path),
			logging.Error(failure.Error),
		)
	}
}
