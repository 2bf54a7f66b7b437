package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"webvid/internal/logging"
)

func TestDirIsHiddenSibling(t *testing.T) {
	if got := Dir("/srv/www/talk/", "abc"); got != "/srv/www/.talk.partial-abc" {
		t.Fatalf("Dir = %q", got)
	}
	if got := Prefix("/srv/www/talk"); got != ".talk.partial-" {
		t.Fatalf("Prefix = %q", got)
	}
}

func TestCommitReplacesEmptyOutput(t *testing.T) {
	parent := t.TempDir()
	output := filepath.Join(parent, "talk")
	if err := os.Mkdir(output, 0o755); err != nil {
		t.Fatal(err)
	}
	dir := Dir(output, "r1")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "poster.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Commit(dir, output); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, "poster.jpg")); err != nil {
		t.Fatalf("expected published artifact: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("expected staging folder gone, stat err = %v", err)
	}
}

func TestCommitRefusesNonEmptyOutput(t *testing.T) {
	parent := t.TempDir()
	output := filepath.Join(parent, "talk")
	if err := os.MkdirAll(filepath.Join(output, "stale"), 0o755); err != nil {
		t.Fatal(err)
	}
	dir := Dir(output, "r1")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := Commit(dir, output); err == nil {
		t.Fatal("expected error for non-empty output")
	}
}

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, output := range []string{"", "   ", "/nonexistent/path/12345/talk"} {
		result := CleanStale(context.Background(), output, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", output)
		}
	}
}

func TestCleanStaleRemovesOldDirectoriesOfOutput(t *testing.T) {
	parent := t.TempDir()
	output := filepath.Join(parent, "talk")

	oldDir := Dir(output, "old")
	recentDir := Dir(output, "recent")
	otherDir := Dir(filepath.Join(parent, "keynote"), "old")
	for _, dir := range []string{oldDir, recentDir, otherDir} {
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatalf("create %s: %v", dir, err)
		}
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	for _, dir := range []string{oldDir, otherDir} {
		if err := os.Chtimes(dir, oldTime, oldTime); err != nil {
			t.Fatalf("set old time: %v", err)
		}
	}

	result := CleanStale(context.Background(), output, time.Hour, logging.NewNop())
	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected only %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
	if _, err := os.Stat(otherDir); err != nil {
		t.Error("another output's staging directory should still exist")
	}

	result = CleanStale(context.Background(), output, 0, nil)
	if len(result.Removed) != 1 || result.Removed[0] != recentDir {
		t.Fatalf("expected zero max age to remove %s, got %v", recentDir, result.Removed)
	}
}

func TestCreateReportsMissingParents(t *testing.T) {
	root := t.TempDir()
	dir := Dir(filepath.Join(root, "site", "media", "talk"), "r1")

	created, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	want := []string{dir, filepath.Join(root, "site", "media"), filepath.Join(root, "site")}
	if len(created) != len(want) {
		t.Fatalf("created = %v, want %v", created, want)
	}
	for i := range want {
		if created[i] != want[i] {
			t.Fatalf("created[%d] = %q, want %q", i, created[i], want[i])
		}
	}

	if err := Discard(dir, created); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "site")); !os.IsNotExist(err) {
		t.Fatalf("expected created parents removed, stat err = %v", err)
	}
	if _, err := os.Stat(root); err != nil {
		t.Fatalf("pre-existing root must survive: %v", err)
	}
}

func TestDiscardKeepsParentsWithOtherEntries(t *testing.T) {
	root := t.TempDir()
	dir := Dir(filepath.Join(root, "site", "media", "talk"), "r1")
	created, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	other := filepath.Join(root, "site", "index.html")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := Discard(dir, created); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "site", "media")); !os.IsNotExist(err) {
		t.Fatalf("expected empty media folder removed, stat err = %v", err)
	}
	if _, err := os.Stat(other); err != nil {
		t.Fatalf("expected unrelated file kept: %v", err)
	}
}

func TestCreateWithExistingParent(t *testing.T) {
	root := t.TempDir()
	dir := Dir(filepath.Join(root, "talk"), "r1")
	created, err := Create(dir)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0] != dir {
		t.Fatalf("created = %v, want only %s", created, dir)
	}
}
