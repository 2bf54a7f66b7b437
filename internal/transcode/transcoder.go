package transcode

import "context"

// Transcoder produces derivative artifacts from a source media file.
type Transcoder interface {
	// Rescale re-encodes src to dst with the given output height. Width is
	// derived from the source aspect ratio and rounded to an even value.
	Rescale(ctx context.Context, src, dst string, height int) error
	// ExtractFrames writes one still per second of src using pattern, a
	// printf-style path such as dir/frame%06d.png. Frames are scaled to
	// height with aspect-preserving width.
	ExtractFrames(ctx context.Context, src, pattern string, height int) error
	// ExtractPoster writes the frame one second into src to dst.
	ExtractPoster(ctx context.Context, src, dst string) error
	// ConvertSubtitle converts the subtitle file src to the format implied by
	// dst's extension.
	ConvertSubtitle(ctx context.Context, src, dst string) error
}
