package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"webvid/internal/media/ffprobe"
	"webvid/internal/services"
	"webvid/internal/staging"
	"webvid/internal/storyboard"
	"webvid/internal/testsupport"
)

var errFakeTool = errors.New("fake tool failed")

// fakeTranscoder writes placeholder artifacts and real PNG frames.
// Its methods run on errgroup goroutines in parallel mode, so failures are
// returned rather than reported through testing.T.
type fakeTranscoder struct {
	frames int
	failOn string

	mu    sync.Mutex
	calls []string
}

func (f *fakeTranscoder) record(op string) error {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	f.mu.Unlock()
	if op == f.failOn {
		return services.Wrap(services.ErrExternalTool, "", op, "", errFakeTool)
	}
	return nil
}

func (f *fakeTranscoder) Rescale(_ context.Context, _, dst string, height int) error {
	if err := f.record(fmt.Sprintf("rescale %d", height)); err != nil {
		return err
	}
	return testsupport.CreateFile(dst, 16)
}

func (f *fakeTranscoder) ExtractFrames(_ context.Context, _, pattern string, height int) error {
	if err := f.record(fmt.Sprintf("frames %d", height)); err != nil {
		return err
	}
	_, err := testsupport.CreateFrames(pattern, f.frames, storyboard.TileWidth(height), height)
	return err
}

func (f *fakeTranscoder) ExtractPoster(_ context.Context, _, dst string) error {
	if err := f.record("poster"); err != nil {
		return err
	}
	return testsupport.CreateFile(dst, 16)
}

func (f *fakeTranscoder) ConvertSubtitle(_ context.Context, _, dst string) error {
	if err := f.record("subtitle"); err != nil {
		return err
	}
	return os.WriteFile(dst, []byte("WEBVTT\n"), 0o644)
}

func (f *fakeTranscoder) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

var expectedArtifacts = []string{
	"100p/100p-001.jpg",
	"100p/100p-thumbs.vtt",
	"1080p.mp4",
	"240p/240p-001.jpg",
	"240p/240p-thumbs.vtt",
	"576p.mp4",
	"720p.mp4",
	"poster.jpg",
	"subtitles.vtt",
}

func newRequest(t *testing.T) Request {
	t.Helper()
	dir := t.TempDir()
	return Request{
		Video:    filepath.Join(dir, "talk.mp4"),
		Subtitle: filepath.Join(dir, "talk.srt"),
		Output:   filepath.Join(dir, "bundle"),
	}
}

func newOrchestrator(t *testing.T, fake *fakeTranscoder, opts ...Option) *Orchestrator {
	t.Helper()
	o, err := New(fake, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func assertLayout(t *testing.T, output string) {
	t.Helper()
	for _, rel := range expectedArtifacts {
		if _, err := os.Stat(filepath.Join(output, rel)); err != nil {
			t.Fatalf("missing artifact %s: %v", rel, err)
		}
	}
	for _, set := range ThumbnailSets {
		frames, err := storyboard.ListFrames(filepath.Join(output, set.Label()))
		if err != nil {
			t.Fatalf("list frames: %v", err)
		}
		if len(frames) != 0 {
			t.Fatalf("expected intermediate frames removed from %s, got %v", set.Label(), frames)
		}
	}
}

func TestNewRequiresTranscoder(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error without transcoder")
	}
}

func TestRunProducesFullLayout(t *testing.T) {
	fake := &fakeTranscoder{frames: 3}
	req := newRequest(t)
	req.RunID = "run-seq"

	bundle, err := newOrchestrator(t, fake).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if bundle.RunID != "run-seq" || bundle.Output != req.Output {
		t.Fatalf("unexpected bundle %+v", bundle)
	}
	if got := strings.Join(bundle.Artifacts, ","); got != strings.Join(expectedArtifacts, ",") {
		t.Fatalf("artifacts = %s", got)
	}
	assertLayout(t, req.Output)

	want := "rescale 1080,rescale 720,rescale 576,frames 240,frames 100,poster,subtitle"
	if got := strings.Join(fake.callLog(), ","); got != want {
		t.Fatalf("call order = %s, want %s", got, want)
	}

	index, err := os.ReadFile(filepath.Join(req.Output, "240p", "240p-thumbs.vtt"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	wantIndex := "WEBVTT\n" +
		"\n00:00:00.000 --> 00:00:01.000\n240p-001.jpg#xywh=0,0,427,240\n" +
		"\n00:00:01.000 --> 00:00:02.000\n240p-001.jpg#xywh=427,0,427,240\n" +
		"\n00:00:02.000 --> 00:00:03.000\n240p-001.jpg#xywh=854,0,427,240\n"
	if string(index) != wantIndex {
		t.Fatalf("unexpected 240p index:\n%s", index)
	}
}

func TestRunGeneratesRunID(t *testing.T) {
	fake := &fakeTranscoder{frames: 1}
	bundle, err := newOrchestrator(t, fake).Run(context.Background(), newRequest(t))
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(bundle.RunID) != 36 {
		t.Fatalf("expected uuid run id, got %q", bundle.RunID)
	}
}

func TestRunKeepFrames(t *testing.T) {
	fake := &fakeTranscoder{frames: 2}
	req := newRequest(t)
	bundle, err := newOrchestrator(t, fake, WithKeepFrames(true)).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	frames, err := storyboard.ListFrames(filepath.Join(req.Output, "100p"))
	if err != nil {
		t.Fatalf("list frames: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected frames kept, got %v", frames)
	}
	if len(bundle.Artifacts) != len(expectedArtifacts)+4 {
		t.Fatalf("expected kept frames listed as artifacts, got %v", bundle.Artifacts)
	}
}

func TestRunWithoutFramesWritesEmptyIndexes(t *testing.T) {
	fake := &fakeTranscoder{frames: 0}
	req := newRequest(t)
	bundle, err := newOrchestrator(t, fake).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	for _, rel := range bundle.Artifacts {
		if strings.HasSuffix(rel, ".jpg") && rel != PosterName {
			t.Fatalf("unexpected sprite sheet %s", rel)
		}
	}
	data, err := os.ReadFile(filepath.Join(req.Output, "100p", "100p-thumbs.vtt"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	if string(data) != "WEBVTT\n" {
		t.Fatalf("expected header-only index, got %q", data)
	}
}

func TestRunParallelProducesFullLayout(t *testing.T) {
	fake := &fakeTranscoder{frames: 3}
	req := newRequest(t)
	bundle, err := newOrchestrator(t, fake, WithParallel(true)).Run(context.Background(), req)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := strings.Join(bundle.Artifacts, ","); got != strings.Join(expectedArtifacts, ",") {
		t.Fatalf("artifacts = %s", got)
	}
	assertLayout(t, req.Output)
	if len(fake.callLog()) != 7 {
		t.Fatalf("expected 7 transcoder calls, got %v", fake.callLog())
	}
}

func TestRunFailingStepFailsRun(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			fake := &fakeTranscoder{frames: 1, failOn: "poster"}
			req := newRequest(t)
			_, err := newOrchestrator(t, fake, WithParallel(parallel)).Run(context.Background(), req)
			if !errors.Is(err, errFakeTool) || !errors.Is(err, services.ErrExternalTool) {
				t.Fatalf("expected wrapped tool error, got %v", err)
			}
			if _, statErr := os.Stat(filepath.Join(req.Output, SubtitleName)); !parallel && !os.IsNotExist(statErr) {
				t.Fatalf("sequential run must stop at the failing step, stat err = %v", statErr)
			}
		})
	}
}

func TestRunAtomicPublishesOnSuccess(t *testing.T) {
	fake := &fakeTranscoder{frames: 2}
	req := newRequest(t)
	req.RunID = "atomic-ok"
	if err := os.Mkdir(req.Output, 0o755); err != nil {
		t.Fatal(err)
	}

	if _, err := newOrchestrator(t, fake, WithAtomic(true)).Run(context.Background(), req); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	assertLayout(t, req.Output)
	if _, err := os.Stat(staging.Dir(req.Output, "atomic-ok")); !os.IsNotExist(err) {
		t.Fatalf("expected staging folder gone, stat err = %v", err)
	}
}

func TestRunAtomicLeavesNothingOnFailure(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		t.Run(fmt.Sprintf("parallel=%v", parallel), func(t *testing.T) {
			fake := &fakeTranscoder{frames: 2, failOn: "subtitle"}
			req := newRequest(t)
			_, err := newOrchestrator(t, fake, WithAtomic(true), WithParallel(parallel)).Run(context.Background(), req)
			if !errors.Is(err, errFakeTool) {
				t.Fatalf("expected tool error, got %v", err)
			}
			entries, readErr := os.ReadDir(filepath.Dir(req.Output))
			if readErr != nil {
				t.Fatalf("read parent: %v", readErr)
			}
			for _, entry := range entries {
				if strings.Contains(entry.Name(), "bundle") {
					t.Fatalf("unexpected leftover %s after atomic failure", entry.Name())
				}
			}
		})
	}
}

func TestRunRefusesLockedOutput(t *testing.T) {
	lockDir := t.TempDir()
	req := newRequest(t)
	held, err := acquireOutputLock(lockDir, req.Output)
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	defer held.Unlock()

	fake := &fakeTranscoder{frames: 1}
	_, err = newOrchestrator(t, fake, WithLockDir(lockDir)).Run(context.Background(), req)
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if len(fake.callLog()) != 0 {
		t.Fatalf("locked run must not transcode, got %v", fake.callLog())
	}
}

func TestRunReleasesLock(t *testing.T) {
	lockDir := t.TempDir()
	req := newRequest(t)
	fake := &fakeTranscoder{frames: 1}
	if _, err := newOrchestrator(t, fake, WithLockDir(lockDir)).Run(context.Background(), req); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	lock, err := acquireOutputLock(lockDir, req.Output)
	if err != nil {
		t.Fatalf("expected lock to be free after run: %v", err)
	}
	_ = lock.Unlock()
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeTranscoder{frames: 1}
	_, err := newOrchestrator(t, fake).Run(ctx, newRequest(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRunWarnsOnNonWidescreenSource(t *testing.T) {
	restore := SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", CodecName: "h264", Width: 640, Height: 480}},
			Format:  ffprobe.Format{Duration: "12.5"},
		}, nil
	})
	defer restore()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	fake := &fakeTranscoder{frames: 1}
	if _, err := newOrchestrator(t, fake, WithLogger(logger), WithSourceProbe("ffprobe")).Run(context.Background(), newRequest(t)); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "is not 16:9") {
		t.Fatalf("expected aspect warning in logs:\n%s", buf.String())
	}
}

func TestRunIgnoresProbeFailure(t *testing.T) {
	restore := SetProbeForTests(func(context.Context, string, string) (ffprobe.Result, error) {
		return ffprobe.Result{}, errors.New("ffprobe missing")
	})
	defer restore()

	fake := &fakeTranscoder{frames: 1}
	if _, err := newOrchestrator(t, fake, WithSourceProbe("ffprobe")).Run(context.Background(), newRequest(t)); err != nil {
		t.Fatalf("probe failure must not fail the run: %v", err)
	}
}

func TestIsWidescreen(t *testing.T) {
	tests := []struct {
		aspect float64
		want   bool
	}{
		{16.0 / 9.0, true},
		{1920.0 / 1088.0, true},
		{4.0 / 3.0, false},
		{2.39, false},
	}
	for _, tt := range tests {
		if got := isWidescreen(tt.aspect); got != tt.want {
			t.Fatalf("isWidescreen(%v) = %v, want %v", tt.aspect, got, tt.want)
		}
	}
}

func TestRunAtomicSweepsLeftoverStaging(t *testing.T) {
	lockDir := t.TempDir()
	req := newRequest(t)
	leftover := staging.Dir(req.Output, "crashed")
	if err := os.MkdirAll(filepath.Join(leftover, "240p"), 0o755); err != nil {
		t.Fatal(err)
	}

	fake := &fakeTranscoder{frames: 1}
	if _, err := newOrchestrator(t, fake, WithAtomic(true), WithLockDir(lockDir)).Run(context.Background(), req); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if _, err := os.Stat(leftover); !os.IsNotExist(err) {
		t.Fatalf("expected leftover staging removed, stat err = %v", err)
	}
	assertLayout(t, req.Output)
}

func TestRunAtomicFailureRemovesCreatedParents(t *testing.T) {
	root := t.TempDir()
	req := newRequest(t)
	req.Output = filepath.Join(root, "site", "media", "bundle")

	fake := &fakeTranscoder{frames: 1, failOn: "subtitle"}
	_, err := newOrchestrator(t, fake, WithAtomic(true)).Run(context.Background(), req)
	if !errors.Is(err, errFakeTool) {
		t.Fatalf("expected tool error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "site")); !os.IsNotExist(statErr) {
		t.Fatalf("expected created parent folders removed, stat err = %v", statErr)
	}
	entries, readErr := os.ReadDir(root)
	if readErr != nil {
		t.Fatalf("read root: %v", readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("expected nothing left under %s, got %d entries", root, len(entries))
	}
}

func TestRunAtomicSuccessCreatesMissingParents(t *testing.T) {
	root := t.TempDir()
	req := newRequest(t)
	req.Output = filepath.Join(root, "site", "media", "bundle")

	fake := &fakeTranscoder{frames: 1}
	if _, err := newOrchestrator(t, fake, WithAtomic(true)).Run(context.Background(), req); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	assertLayout(t, req.Output)
}
