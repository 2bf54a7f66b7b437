package pipeline

import (
	"context"

	"webvid/internal/media/ffprobe"
)

// SetProbeForTests overrides the ffprobe runner during tests.
func SetProbeForTests(fn func(context.Context, string, string) (ffprobe.Result, error)) func() {
	previous := probeSource
	probeSource = fn
	return func() {
		probeSource = previous
	}
}
