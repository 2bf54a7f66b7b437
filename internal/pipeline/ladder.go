package pipeline

import "webvid/internal/storyboard"

const (
	// PosterName is the poster still written at the bundle root.
	PosterName = "poster.jpg"
	// SubtitleName is the converted web subtitle track.
	SubtitleName = "subtitles.vtt"
)

// Resolution is one rendition of the source video.
type Resolution struct {
	Label  string
	Height int
}

// FileName returns the rendition's filename, e.g. "720p.mp4".
func (r Resolution) FileName() string {
	return r.Label + ".mp4"
}

// Resolutions is the rendition ladder, largest first.
var Resolutions = []Resolution{
	{Label: "1080p", Height: 1080},
	{Label: "720p", Height: 720},
	{Label: "576p", Height: 576},
}

// ThumbnailSets are the storyboard sets, each in its own subdirectory named
// after the set label.
var ThumbnailSets = []storyboard.Set{
	{Height: 240, Grid: 5},
	{Height: 100, Grid: 7},
}
