package transcode

import (
	"fmt"
	"strconv"
	"strings"
)

// PosterOffsetSeconds is how far into the source the poster frame is taken.
const PosterOffsetSeconds = 1

// DefaultLogLevel keeps ffmpeg quiet unless something goes wrong.
const DefaultLogLevel = "error"

func commonArgs(logLevel string) []string {
	logLevel = strings.TrimSpace(logLevel)
	if logLevel == "" {
		logLevel = DefaultLogLevel
	}
	return []string{"-y", "-hide_banner", "-nostdin", "-loglevel", logLevel}
}

// RescaleArgs returns the ffmpeg arguments for a resolution rendition.
func RescaleArgs(logLevel, src, dst string, height int) []string {
	args := commonArgs(logLevel)
	return append(args,
		"-i", src,
		"-vf", "scale=-2:"+strconv.Itoa(height),
		"-movflags", "faststart",
		dst,
	)
}

// ExtractFramesArgs returns the ffmpeg arguments that sample one frame per
// second at the given height.
func ExtractFramesArgs(logLevel, src, pattern string, height int) []string {
	args := commonArgs(logLevel)
	return append(args,
		"-i", src,
		"-vf", fmt.Sprintf("fps=1,scale=-1:%d", height),
		pattern,
	)
}

// PosterArgs returns the ffmpeg arguments that grab a single poster frame.
func PosterArgs(logLevel, src, dst string) []string {
	args := commonArgs(logLevel)
	return append(args,
		"-ss", strconv.Itoa(PosterOffsetSeconds),
		"-i", src,
		"-vframes", "1",
		dst,
	)
}

// SubtitleArgs returns the ffmpeg arguments for a subtitle format conversion.
func SubtitleArgs(logLevel, src, dst string) []string {
	args := commonArgs(logLevel)
	return append(args, "-i", src, dst)
}
