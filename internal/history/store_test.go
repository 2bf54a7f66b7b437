package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestBeginFinishRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC)

	run := Run{
		ID:        "run-1",
		Video:     "/src/talk.mp4",
		Subtitle:  "/src/talk.srt",
		Output:    "/out/talk",
		Parallel:  true,
		StartedAt: started,
	}
	if err := store.Begin(ctx, run); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	got, err := store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusRunning || got.FinishedAt != nil {
		t.Fatalf("expected running run without finish time, got %+v", got)
	}
	if !got.Parallel || got.Atomic {
		t.Fatalf("unexpected flags %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started = %v, want %v", got.StartedAt, started)
	}

	if err := store.Finish(ctx, "run-1", nil, 12); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got, err = store.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusSucceeded || got.Artifacts != 12 || got.FinishedAt == nil {
		t.Fatalf("unexpected finished run %+v", got)
	}
	if got.Elapsed() <= 0 {
		t.Fatalf("expected positive elapsed time, got %v", got.Elapsed())
	}
}

func TestFinishRecordsFailure(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.Begin(ctx, Run{ID: "run-2", Video: "v", Subtitle: "s", Output: "o"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Finish(ctx, "run-2", errors.New("ffmpeg exploded"), 3); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	got, err := store.Get(ctx, "run-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusFailed || got.ErrorMessage != "ffmpeg exploded" {
		t.Fatalf("unexpected failed run %+v", got)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	store := openTestStore(t)
	err := store.Finish(context.Background(), "missing", nil, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Get, got %v", err)
	}
}

func TestBeginRejectsEmptyID(t *testing.T) {
	store := openTestStore(t)
	if err := store.Begin(context.Background(), Run{}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		run := Run{ID: id, Video: "v", Subtitle: "s", Output: "o", StartedAt: base.Add(time.Duration(i) * time.Hour)}
		if err := store.Begin(ctx, run); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}

	runs, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected runs %+v", runs)
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected default limit to return all 3 runs, got %d", len(all))
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Begin(ctx, Run{ID: "keep", Video: "v", Subtitle: "s", Output: "o"}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(ctx, "keep"); err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()
	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := store.db.ExecContext(ctx, "UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	_ = store.Close()

	if _, err := Open(ctx, path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Succeeded "); !ok || s != StatusSucceeded {
		t.Fatalf("ParseStatus = %q, %v", s, ok)
	}
	if _, ok := ParseStatus("queued"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestGetResolvesUniquePrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, id := range []string{"a1b2c3d4-1111", "a1b2ffff-2222"} {
		if err := store.Begin(ctx, Run{ID: id, Video: "/src/talk.mp4", Output: "/out/" + id}); err != nil {
			t.Fatalf("Begin %s: %v", id, err)
		}
	}

	got, err := store.Get(ctx, "a1b2c3d4")
	if err != nil {
		t.Fatalf("Get by prefix: %v", err)
	}
	if got.ID != "a1b2c3d4-1111" {
		t.Fatalf("Get resolved %q", got.ID)
	}

	if _, err := store.Get(ctx, "a1b2"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ambiguity error, got %v", err)
	}
	if _, err := store.Get(ctx, "a1b"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected short prefix to be rejected, got %v", err)
	}
	if _, err := store.Get(ctx, "a1b%"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected LIKE wildcards to be literal, got %v", err)
	}
}
