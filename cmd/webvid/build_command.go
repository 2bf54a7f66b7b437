package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"webvid/internal/config"
	"webvid/internal/deps"
	"webvid/internal/history"
	"webvid/internal/logging"
	"webvid/internal/pipeline"
	"webvid/internal/preflight"
	"webvid/internal/services"
	"webvid/internal/storyboard"
	"webvid/internal/transcode"
)

type buildOptions struct {
	video      string
	subtitle   string
	output     string
	parallel   bool
	atomic     bool
	keepFrames bool
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a web bundle from a video and its subtitles",
		Long: `Build validates the inputs and then produces, inside the output folder:
1080p.mp4, 720p.mp4 and 576p.mp4 renditions, poster.jpg, subtitles.vtt, and
240p/ and 100p/ storyboards (sprite sheets plus a WebVTT thumbnail index).

The output folder must be empty or absent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// Inputs are checked before anything, log and state folders
			// included, is created on disk.
			validated, err := preflight.Validate(preflight.Inputs{
				Video:    opts.video,
				Subtitle: opts.subtitle,
				Output:   opts.output,
			})
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("parallel") {
				cfg.Pipeline.Parallel = opts.parallel
			}
			if flags.Changed("atomic") {
				cfg.Pipeline.Atomic = opts.atomic
			}
			if flags.Changed("keep-frames") {
				cfg.Pipeline.KeepFrames = opts.keepFrames
			}
			return runBuild(cmd, cfg, logger, validated)
		},
	}

	cmd.Flags().StringVarP(&opts.video, "video", "v", "", "Input video (.mp4)")
	cmd.Flags().StringVarP(&opts.subtitle, "subtitle", "s", "", "Input subtitles (.srt)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output folder (must be empty or absent)")
	cmd.Flags().BoolVar(&opts.parallel, "parallel", false, "Run independent steps concurrently")
	cmd.Flags().BoolVar(&opts.atomic, "atomic", false, "Stage the bundle and publish it only when every step succeeds")
	cmd.Flags().BoolVar(&opts.keepFrames, "keep-frames", false, "Keep extracted storyboard frames")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("subtitle")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// runBuild expects inputs already passed through preflight.Validate.
func runBuild(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, validated preflight.Inputs) error {
	ffmpeg := deps.CheckFFmpeg(cfg.FFmpegBinary())
	if !ffmpeg.Available {
		return services.Wrap(services.ErrExternalTool, "", "check ffmpeg", ffmpeg.Detail, nil)
	}
	probeBinary := ""
	if cfg.Pipeline.ProbeSource {
		if probe := deps.CheckFFprobe(cfg.FFmpegBinary(), cfg.FFprobeBinary()); probe.Available {
			probeBinary = probe.Command
		} else {
			logger.Debug("ffprobe unavailable, skipping source probe", logging.String("detail", probe.Detail))
		}
	}

	if !cfg.Pipeline.Atomic {
		prepared, err := preflight.PrepareOutput(validated)
		if err != nil {
			return err
		}
		validated = prepared
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runID := uuid.NewString()
	recorder := openRecorder(runCtx, cfg, logger)
	defer recorder.close()
	recorder.begin(runCtx, history.Run{
		ID:       runID,
		Video:    validated.Video,
		Subtitle: validated.Subtitle,
		Output:   validated.Output,
		Parallel: cfg.Pipeline.Parallel,
		Atomic:   cfg.Pipeline.Atomic,
	})

	transcoder := transcode.NewFFmpeg(ffmpeg.Command,
		transcode.WithLogLevel(cfg.FFmpeg.LogLevel),
		transcode.WithLogger(logging.NewComponentLogger(logger, "transcode")),
	)
	logger.Debug("transcoder ready",
		logging.String("ffmpeg", transcoder.Binary()),
		logging.String("ffprobe", probeBinary),
	)
	generator := storyboard.NewGenerator(
		storyboard.WithJPEGQuality(cfg.Storyboard.JPEGQuality),
		storyboard.WithLogger(logging.NewComponentLogger(logger, "storyboard")),
	)
	orchestrator, err := pipeline.New(transcoder,
		pipeline.WithGenerator(generator),
		pipeline.WithLogger(logging.NewComponentLogger(logger, "pipeline")),
		pipeline.WithParallel(cfg.Pipeline.Parallel),
		pipeline.WithAtomic(cfg.Pipeline.Atomic),
		pipeline.WithKeepFrames(cfg.Pipeline.KeepFrames),
		pipeline.WithLockDir(cfg.LockDir()),
		pipeline.WithSourceProbe(probeBinary),
	)
	if err != nil {
		return err
	}

	bundle, runErr := orchestrator.Run(runCtx, pipeline.Request{
		Video:    validated.Video,
		Subtitle: validated.Subtitle,
		Output:   validated.Output,
		RunID:    runID,
	})
	recorder.finish(context.WithoutCancel(runCtx), runID, runErr, len(bundle.Artifacts))
	if runErr != nil {
		return runErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderBundleSummary(bundle))
	fmt.Fprintf(out, "Bundle written to %s in %s\n", bundle.Output, formatElapsed(bundle.Elapsed))
	return nil
}

// runRecorder writes build runs to the history store. Every failure is
// logged and swallowed.
type runRecorder struct {
	store  *history.Store
	logger *slog.Logger
}

func openRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) *runRecorder {
	recorder := &runRecorder{logger: logger}
	if !cfg.History.Enabled {
		return recorder
	}
	store, err := history.Open(ctx, cfg.HistoryPath())
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		return recorder
	}
	logger.Debug("run history opened", logging.String("path", store.Path()))
	recorder.store = store
	return recorder
}

func (r *runRecorder) begin(ctx context.Context, run history.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.Begin(ctx, run); err != nil {
		r.logger.Warn("record run start failed", logging.Error(err))
	}
}

func (r *runRecorder) finish(ctx context.Context, id string, runErr error, artifacts int) {
	if r.store == nil {
		return
	}
	if err := r.store.Finish(ctx, id, runErr, artifacts); err != nil {
		r.logger.Warn("record run result failed", logging.Error(err))
	}
}

func (r *runRecorder) close() {
	if r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.logger.Warn("close run history failed", logging.Error(err))
	}
}

func artifactKind(rel string) string {
	switch {
	case strings.HasSuffix(rel, ".mp4"):
		return "rendition"
	case rel == pipeline.PosterName:
		return "poster"
	case rel == pipeline.SubtitleName:
		return "subtitles"
	case strings.HasSuffix(rel, "-thumbs.vtt"):
		return "storyboard index"
	case strings.HasSuffix(rel, ".jpg"):
		return "sprite sheet"
	default:
		return "frame"
	}
}
