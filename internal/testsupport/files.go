package testsupport

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	if err := CreateFile(path, size); err != nil {
		t.Fatal(err)
	}
}

// CreateFile is WriteFile for callers off the test goroutine, such as fakes
// invoked from worker goroutines: it reports failures instead of stopping
// the test.
func CreateFile(path string, size int64) error {
	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		remaining -= toWrite
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteFrames writes count solid-grey PNG frames named after pattern, a
// printf-style path with one integer verb, numbered from 1.
func WriteFrames(t testing.TB, pattern string, count, width, height int) []string {
	t.Helper()
	paths, err := CreateFrames(pattern, count, width, height)
	if err != nil {
		t.Fatal(err)
	}
	return paths
}

// CreateFrames is the error-returning form of WriteFrames.
func CreateFrames(pattern string, count, width, height int) ([]string, error) {
	if err := os.MkdirAll(filepath.Dir(pattern), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir for frames: %w", err)
	}
	paths := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		shade := uint8(40 + (i*37)%200)
		img := image.NewGray(image.Rect(0, 0, width, height))
		for p := range img.Pix {
			img.Pix[p] = shade
		}
		img.SetGray(0, 0, color.Gray{Y: 255})

		path := fmt.Sprintf(pattern, i)
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("create frame %s: %w", path, err)
		}
		if err := png.Encode(f, img); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("encode frame %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return nil, fmt.Errorf("close frame %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
