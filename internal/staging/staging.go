package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webvid/internal/logging"
)

// Prefix returns the name prefix shared by every staging directory of output.
func Prefix(output string) string {
	return "." + filepath.Base(filepath.Clean(output)) + ".partial-"
}

// Dir returns the staging directory for one run against output.
func Dir(output, runID string) string {
	output = filepath.Clean(output)
	return filepath.Join(filepath.Dir(output), Prefix(output)+runID)
}

// Create makes the staging directory dir along with any missing parents.
// It returns the directories it created, deepest first, for Discard.
func Create(dir string) ([]string, error) {
	dir = filepath.Clean(dir)
	var created []string
	for path := dir; ; path = filepath.Dir(path) {
		if _, err := os.Stat(path); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("inspect staging parent: %w", err)
		}
		created = append(created, path)
		if filepath.Dir(path) == path {
			break
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging folder: %w", err)
	}
	return created, nil
}

// Discard removes the staging directory dir and then the parents Create made
// for it, deepest first. A parent that gained other entries is kept, and so
// is everything above it.
func Discard(dir string, created []string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove staging folder: %w", err)
	}
	dir = filepath.Clean(dir)
	for _, parent := range created {
		if parent == dir {
			continue
		}
		if err := os.Remove(parent); err != nil && !os.IsNotExist(err) {
			break
		}
	}
	return nil
}

// Commit publishes a finished staging directory as output. An existing
// output must be an empty directory; it is replaced.
func Commit(dir, output string) error {
	if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("replace output folder: %w", err)
	}
	if err := os.Rename(dir, output); err != nil {
		return fmt.Errorf("publish bundle: %w", err)
	}
	return nil
}

// CleanStaleResult contains the outcome of a stale directory cleanup operation.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes staging directories of output last modified more than
// maxAge ago. A zero maxAge removes every one of them; callers only do that
// while holding the output lock. Failures are collected, not logged.
func CleanStale(ctx context.Context, output string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return result
	}
	parent := filepath.Dir(filepath.Clean(output))
	prefix := Prefix(output)

	entries, err := os.ReadDir(parent)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: parent, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}

		dirPath := filepath.Join(parent, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if maxAge > 0 && !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed stale staging directory",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
		)
	}
	return result
}
