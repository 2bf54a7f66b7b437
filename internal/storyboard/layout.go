package storyboard

import (
	"fmt"
	"image"
	"math"
)

// FramePattern is the ffmpeg output pattern for extracted frames. The index is
// zero-padded so lexicographic order matches extraction order.
const FramePattern = "frame%06d.png"

// Set describes one thumbnail storyboard: frames scaled to Height pixels and
// packed Grid×Grid per sprite sheet.
type Set struct {
	Height int
	Grid   int
}

// Label returns the set name used for its directory and file prefixes, e.g. "240p".
func (s Set) Label() string {
	return fmt.Sprintf("%dp", s.Height)
}

// IndexName returns the storyboard index filename, e.g. "240p-thumbs.vtt".
func (s Set) IndexName() string {
	return s.Label() + "-thumbs.vtt"
}

// SpriteName returns the filename of the 1-based sprite sheet, e.g. "240p-001.jpg".
func (s Set) SpriteName(sheet int) string {
	return fmt.Sprintf("%s-%03d.jpg", s.Label(), sheet)
}

// Validate reports whether the set can be laid out.
func (s Set) Validate() error {
	if s.Height <= 0 {
		return fmt.Errorf("storyboard set: height must be positive, got %d", s.Height)
	}
	if s.Grid < 1 {
		return fmt.Errorf("storyboard set %s: grid must be at least 1, got %d", s.Label(), s.Grid)
	}
	return nil
}

// TileWidth returns the tile width for a frame height, assuming 16:9 frames.
func TileWidth(height int) int {
	return int(math.Round(float64(height) * 16 / 9))
}

// Tile locates one frame inside its sprite sheet.
type Tile struct {
	Sheet  int // 1-based sheet number
	Column int
	Row    int
	X      int
	Y      int
	Width  int
	Height int
}

// Rect returns the tile's pixel rectangle on the sheet canvas.
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.X, t.Y, t.X+t.Width, t.Y+t.Height)
}

// Layout maps frame positions to sheets and tiles for one Set.
type Layout struct {
	Set   Set
	Width int
}

// NewLayout derives the tile geometry for set.
func NewLayout(set Set) Layout {
	return Layout{Set: set, Width: TileWidth(set.Height)}
}

// PerSheet returns the number of tiles on a full sheet.
func (l Layout) PerSheet() int {
	return l.Set.Grid * l.Set.Grid
}

// SheetSize returns the pixel dimensions of every sheet canvas.
func (l Layout) SheetSize() (width, height int) {
	return l.Set.Grid * l.Width, l.Set.Grid * l.Set.Height
}

// SheetCount returns how many sheets n frames occupy.
func (l Layout) SheetCount(n int) int {
	if n <= 0 {
		return 0
	}
	per := l.PerSheet()
	return (n + per - 1) / per
}

// Place returns the tile for the 0-based frame position i.
func (l Layout) Place(i int) Tile {
	per := l.PerSheet()
	j := i % per
	col, row := j%l.Set.Grid, j/l.Set.Grid
	return Tile{
		Sheet:  i/per + 1,
		Column: col,
		Row:    row,
		X:      col * l.Width,
		Y:      row * l.Set.Height,
		Width:  l.Width,
		Height: l.Set.Height,
	}
}

// StartsSheet reports whether frame i is the first tile of a new sheet.
func (l Layout) StartsSheet(i int) bool {
	return i%l.PerSheet() == 0
}

// EndsSheet reports whether the sheet holding frame i is complete once i is
// pasted, either because it is full or because i is the last of n frames.
func (l Layout) EndsSheet(i, n int) bool {
	return (i+1)%l.PerSheet() == 0 || i+1 == n
}

// Cue returns the index entry for frame i.
func (l Layout) Cue(i int) Cue {
	tile := l.Place(i)
	return Cue{
		Start:  i,
		End:    i + 1,
		Sprite: l.Set.SpriteName(tile.Sheet),
		X:      tile.X,
		Y:      tile.Y,
		W:      tile.Width,
		H:      tile.Height,
	}
}
