package pipeline

import (
	"context"
	"log/slog"
	"math"

	"webvid/internal/logging"
	"webvid/internal/media/ffprobe"
)

// aspectTolerance is the relative deviation from 16:9 accepted without a warning.
const aspectTolerance = 0.01

// probeSource is the ffprobe function used by the orchestrator.
// It is a package-level variable so tests can override it.
var probeSource = ffprobe.Inspect

// inspectSource logs what ffprobe reports about the source. Probe failures
// are logged and otherwise ignored.
func (o *Orchestrator) inspectSource(ctx context.Context, logger *slog.Logger, video string) {
	if o.ffprobeBinary == "" {
		return
	}
	result, err := probeSource(ctx, o.ffprobeBinary, video)
	if err != nil {
		logger.Warn("source probe failed", logging.Error(err))
		return
	}
	stream, ok := result.VideoStream()
	if !ok {
		logger.Warn("source has no video stream", logging.String("video", video))
		return
	}
	logger.Info("source inspected",
		logging.String("codec", stream.CodecName),
		logging.Int("width", stream.Width),
		logging.Int("height", stream.Height),
		logging.Float64("duration_seconds", result.DurationSeconds()),
	)
	if aspect, ok := result.DisplayAspect(); ok && !isWidescreen(aspect) {
		logger.Warn("source is not 16:9, storyboard tiles will be cropped",
			logging.Float64("display_aspect", aspect),
			logging.Alert("aspect"),
		)
	}
}

func isWidescreen(aspect float64) bool {
	const target = 16.0 / 9.0
	return math.Abs(aspect-target)/target <= aspectTolerance
}
