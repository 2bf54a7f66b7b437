package preflight

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"webvid/internal/services"
)

const (
	videoExtension    = ".mp4"
	subtitleExtension = ".srt"
)

// Inputs names the files a build reads and the directory it populates.
type Inputs struct {
	Video    string
	Subtitle string
	Output   string
}

// Validate checks the video, the subtitle, and the output location in that
// order and returns the first failure. Paths in the returned Inputs are
// absolute. Nothing is written.
func Validate(in Inputs) (Inputs, error) {
	var err error
	if in.Video, err = absolute(in.Video); err != nil {
		return Inputs{}, err
	}
	if in.Subtitle, err = absolute(in.Subtitle); err != nil {
		return Inputs{}, err
	}
	if in.Output, err = absolute(in.Output); err != nil {
		return Inputs{}, err
	}

	if err := CheckVideo(in.Video); err != nil {
		return Inputs{}, err
	}
	if err := CheckSubtitle(in.Subtitle); err != nil {
		return Inputs{}, err
	}
	if _, err := CheckOutput(in.Output); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

// PrepareOutput validates in and then creates the output directory when it
// does not exist yet.
func PrepareOutput(in Inputs) (Inputs, error) {
	validated, err := Validate(in)
	if err != nil {
		return Inputs{}, err
	}
	if err := os.MkdirAll(validated.Output, 0o755); err != nil {
		return Inputs{}, fmt.Errorf("create output folder: %w", err)
	}
	return validated, nil
}

// CheckVideo verifies the source video exists and is an .mp4 file.
func CheckVideo(path string) error {
	return checkSource("video", path, videoExtension, "a valid video")
}

// CheckSubtitle verifies the subtitle exists and is an .srt file.
func CheckSubtitle(path string) error {
	return checkSource("subtitle", path, subtitleExtension, "a valid subtitle")
}

// CheckOutput verifies path is either absent or an empty directory. The
// returned flag reports whether the directory already exists.
func CheckOutput(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat output folder: %w", err)
	}
	if !info.IsDir() {
		return true, notEmptyDir(path)
	}
	empty, err := isEmptyDir(path)
	if err != nil {
		return true, fmt.Errorf("read output folder: %w", err)
	}
	if !empty {
		return true, notEmptyDir(path)
	}
	return true, nil
}

func checkSource(kind, path, ext, description string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return services.Invalid("%s %s does not exist", kind, path)
		}
		return fmt.Errorf("stat %s: %w", kind, err)
	}
	if !info.Mode().IsRegular() || filepath.Ext(path) != ext {
		return services.Invalid("%s %s is not %s (%s)", kind, path, description, ext)
	}
	return nil
}

func notEmptyDir(path string) error {
	return services.Invalid("output folder %s is not an empty directory", path)
}

func isEmptyDir(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer dir.Close()
	_, err = dir.Readdirnames(1)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}

func absolute(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Invalid("path must not be empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return abs, nil
}
