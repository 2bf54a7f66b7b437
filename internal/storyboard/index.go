package storyboard

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const vttHeader = "WEBVTT\n"

// Cue maps the second range [Start, End) to a crop of one sprite sheet.
type Cue struct {
	Start  int
	End    int
	Sprite string
	X      int
	Y      int
	W      int
	H      int
}

// Payload returns the cue text: the sprite filename with an xywh media fragment.
func (c Cue) Payload() string {
	return fmt.Sprintf("%s#xywh=%d,%d,%d,%d", c.Sprite, c.X, c.Y, c.W, c.H)
}

// Index accumulates cues in memory until it is written in one piece.
type Index struct {
	cues []Cue
}

// Add appends a cue.
func (x *Index) Add(c Cue) {
	x.cues = append(x.cues, c)
}

// Len returns the number of cues.
func (x *Index) Len() int {
	return len(x.cues)
}

// String renders the WebVTT document.
func (x *Index) String() string {
	var b strings.Builder
	b.Grow(len(vttHeader) + len(x.cues)*64)
	b.WriteString(vttHeader)
	for _, c := range x.cues {
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(c.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(c.End))
		b.WriteByte('\n')
		b.WriteString(c.Payload())
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTo writes the WebVTT document to w.
func (x *Index) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, x.String())
	return int64(n), err
}

// Save writes the index to path. The file is closed on every path and
// removed again if the write or close fails.
func (x *Index) Save(path string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create storyboard index: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			err = errors.Join(err, fmt.Errorf("close storyboard index: %w", closeErr))
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	if _, err := x.WriteTo(file); err != nil {
		return fmt.Errorf("write storyboard index: %w", err)
	}
	return nil
}
