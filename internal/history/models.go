package history

import (
	"strings"
	"time"
)

// Status is the lifecycle state of a recorded run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded build.
type Run struct {
	ID           string
	Video        string
	Subtitle     string
	Output       string
	Status       Status
	ErrorMessage string
	Artifacts    int
	Parallel     bool
	Atomic       bool
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Elapsed returns how long the run took, or zero while it is still running.
func (r Run) Elapsed() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ParseStatus normalizes a stored status string.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusRunning:
		return StatusRunning, true
	case StatusSucceeded:
		return StatusSucceeded, true
	case StatusFailed:
		return StatusFailed, true
	default:
		return "", false
	}
}
