package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"webvid/internal/logging"
	"webvid/internal/services"
	"webvid/internal/storyboard"
)

// step produces one or more artifacts inside dir and returns their paths
// relative to dir. Steps never touch each other's paths.
type step struct {
	name string
	run  func(ctx context.Context, dir string) ([]string, error)
}

func (o *Orchestrator) steps(video, subtitle string) []step {
	steps := make([]step, 0, len(Resolutions)+len(ThumbnailSets)+2)
	for _, res := range Resolutions {
		steps = append(steps, step{
			name: "rescale " + res.Label,
			run: func(ctx context.Context, dir string) ([]string, error) {
				if err := o.transcoder.Rescale(ctx, video, filepath.Join(dir, res.FileName()), res.Height); err != nil {
					return nil, err
				}
				return []string{res.FileName()}, nil
			},
		})
	}
	for _, set := range ThumbnailSets {
		steps = append(steps, step{
			name: "storyboard " + set.Label(),
			run: func(ctx context.Context, dir string) ([]string, error) {
				return o.storyboard(ctx, video, dir, set)
			},
		})
	}
	steps = append(steps,
		step{
			name: "poster",
			run: func(ctx context.Context, dir string) ([]string, error) {
				if err := o.transcoder.ExtractPoster(ctx, video, filepath.Join(dir, PosterName)); err != nil {
					return nil, err
				}
				return []string{PosterName}, nil
			},
		},
		step{
			name: "subtitles",
			run: func(ctx context.Context, dir string) ([]string, error) {
				if err := o.transcoder.ConvertSubtitle(ctx, subtitle, filepath.Join(dir, SubtitleName)); err != nil {
					return nil, err
				}
				return []string{SubtitleName}, nil
			},
		},
	)
	return steps
}

func (o *Orchestrator) storyboard(ctx context.Context, video, dir string, set storyboard.Set) ([]string, error) {
	label := set.Label()
	setDir := filepath.Join(dir, label)
	if err := os.MkdirAll(setDir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s folder: %w", label, err)
	}
	if err := o.transcoder.ExtractFrames(ctx, video, filepath.Join(setDir, storyboard.FramePattern), set.Height); err != nil {
		return nil, err
	}
	result, err := o.generator.Generate(ctx, setDir, set)
	if err != nil {
		return nil, fmt.Errorf("storyboard %s: %w", label, err)
	}

	artifacts := make([]string, 0, len(result.Sheets)+1)
	artifacts = append(artifacts, filepath.Join(label, result.Index))
	for _, sheet := range result.Sheets {
		artifacts = append(artifacts, filepath.Join(label, sheet))
	}
	if o.keepFrames {
		for _, frame := range result.Frames {
			artifacts = append(artifacts, filepath.Join(label, filepath.Base(frame)))
		}
		return artifacts, nil
	}
	if err := storyboard.RemoveFrames(result.Frames); err != nil {
		return nil, fmt.Errorf("storyboard %s: %w", label, err)
	}
	return artifacts, nil
}

func runSequential(ctx context.Context, logger *slog.Logger, dir string, steps []step) ([]string, error) {
	var artifacts []string
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		produced, err := runStep(ctx, logger, dir, s)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, produced...)
	}
	return artifacts, nil
}

func runParallel(ctx context.Context, logger *slog.Logger, dir string, steps []step) ([]string, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	var (
		mu        sync.Mutex
		artifacts []string
	)
	for _, s := range steps {
		group.Go(func() error {
			produced, err := runStep(groupCtx, logger, dir, s)
			if err != nil {
				return err
			}
			mu.Lock()
			artifacts = append(artifacts, produced...)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func runStep(ctx context.Context, logger *slog.Logger, dir string, s step) ([]string, error) {
	ctx = services.WithStage(ctx, s.name)
	stepLogger := logger.With(logging.String(logging.FieldStage, s.name))
	start := time.Now()
	stepLogger.Debug("step started")

	produced, err := s.run(ctx, dir)
	if err != nil {
		stepLogger.Debug("step failed", logging.Error(err))
		return nil, err
	}
	stepLogger.Info("step completed",
		logging.Int("artifacts", len(produced)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return produced, nil
}
