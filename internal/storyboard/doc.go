// Package storyboard packs extracted video frames into sprite sheets and
// writes the WebVTT index players use for seek-bar previews.
//
// Frames are extracted at one per second, so frame i (0-based, in filename
// order) covers second i of the source. Each thumbnail set packs its frames
// row-major into g×g grids of 16:9 tiles; the final sheet may be partially
// filled. Every frame yields one cue mapping [i, i+1) seconds to a tile via a
// "#xywh=" media fragment on the sheet's filename.
//
// Layout and Index are pure and safe to use without touching the filesystem;
// Generator does the image work through github.com/disintegration/imaging.
package storyboard
