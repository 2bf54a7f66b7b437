package storyboard

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"

	"webvid/internal/logging"
)

// DefaultJPEGQuality matches the quality most image libraries pick by default.
const DefaultJPEGQuality = 75

// Result summarizes one generated storyboard.
type Result struct {
	Set Set
	// Frames lists the absolute paths of the packed frames in cue order.
	Frames []string
	// Sheets lists the sprite sheet filenames written, relative to the set directory.
	Sheets []string
	// Index is the storyboard index filename, relative to the set directory.
	Index string
}

// Generator packs frame directories into sprite sheets.
type Generator struct {
	quality int
	logger  *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithJPEGQuality sets the sprite sheet JPEG quality (1-100).
func WithJPEGQuality(quality int) Option {
	return func(g *Generator) {
		if quality >= 1 && quality <= 100 {
			g.quality = quality
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator constructs a Generator.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{quality: DefaultJPEGQuality, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate packs every extracted frame in dir into sprite sheets written to
// dir and writes the set's index file there. A directory without frames
// yields an index holding only the WebVTT header.
func (g *Generator) Generate(ctx context.Context, dir string, set Set) (Result, error) {
	if err := set.Validate(); err != nil {
		return Result{}, err
	}
	frames, err := ListFrames(dir)
	if err != nil {
		return Result{}, err
	}

	layout := NewLayout(set)
	sheetW, sheetH := layout.SheetSize()
	sheets := layout.SheetCount(len(frames))
	result := Result{Set: set, Frames: frames, Sheets: make([]string, 0, sheets), Index: set.IndexName()}
	g.logger.Debug("packing storyboard",
		logging.String("set", set.Label()),
		logging.Int("frames", len(frames)),
		logging.Int("sheets", sheets),
	)
	var (
		index  Index
		canvas *image.NRGBA
	)

	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if layout.StartsSheet(i) {
			canvas = imaging.New(sheetW, sheetH, color.Black)
		}
		tile := layout.Place(i)
		index.Add(layout.Cue(i))

		img, err := imaging.Open(frame)
		if err != nil {
			return Result{}, fmt.Errorf("decode frame %s: %w", frame, err)
		}
		paste(canvas, img, tile)

		if layout.EndsSheet(i, len(frames)) {
			name := set.SpriteName(tile.Sheet)
			if err := imaging.Save(canvas, filepath.Join(dir, name), imaging.JPEGQuality(g.quality)); err != nil {
				return Result{}, fmt.Errorf("save sprite sheet %s: %w", name, err)
			}
			result.Sheets = append(result.Sheets, name)
			g.logger.Debug("sprite sheet saved",
				logging.String("sheet", name),
				logging.Int("tiles", i%layout.PerSheet()+1),
			)
		}
	}

	if err := index.Save(filepath.Join(dir, result.Index)); err != nil {
		return Result{}, err
	}
	g.logger.Info("storyboard generated",
		logging.String("set", set.Label()),
		logging.Int("cues", index.Len()),
		logging.Int("sheets", len(result.Sheets)),
	)
	return result, nil
}

// paste draws img into the tile's rectangle. Frames larger than the tile are
// clipped so they never bleed into neighbouring tiles.
func paste(canvas *image.NRGBA, img image.Image, tile Tile) {
	draw.Draw(canvas, tile.Rect(), img, img.Bounds().Min, draw.Src)
}

// ListFrames returns the extracted frame files in dir, sorted by name.
func ListFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !isFrameName(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	frames := make([]string, len(names))
	for i, name := range names {
		frames[i] = filepath.Join(dir, name)
	}
	return frames, nil
}

// RemoveFrames deletes extracted frames once they are packed.
func RemoveFrames(frames []string) error {
	for _, frame := range frames {
		if err := os.Remove(frame); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove frame: %w", err)
		}
	}
	return nil
}

func isFrameName(name string) bool {
	return strings.HasPrefix(name, "frame") && strings.EqualFold(filepath.Ext(name), ".png")
}
