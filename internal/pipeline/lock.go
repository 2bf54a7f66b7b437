package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"webvid/internal/services"
)

func lockPath(dir, output string) string {
	sum := sha256.Sum256([]byte(output))
	return filepath.Join(dir, hex.EncodeToString(sum[:8])+".lock")
}

// acquireOutputLock takes an exclusive, non-blocking lock keyed on output.
func acquireOutputLock(dir, output string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(lockPath(dir, output))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrBusy, "", "lock output", fmt.Sprintf("another build is writing %s", output), nil)
	}
	return lock, nil
}
