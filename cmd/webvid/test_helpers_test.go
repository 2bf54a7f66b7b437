package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"webvid/internal/config"
	"webvid/internal/testsupport"
)

// stubFFmpeg writes every requested output. Frame patterns get three copies
// of the fixture frame named by WEBVID_TEST_FRAME.
const stubFFmpeg = `#!/bin/sh
for last; do :; done
case "$last" in
  *%06d*)
    i=1
    while [ $i -le 3 ]; do
      cp "$WEBVID_TEST_FRAME" "$(printf "$last" $i)"
      i=$((i + 1))
    done
    ;;
  *)
    echo stub > "$last"
    ;;
esac
`

const failingFFmpeg = `#!/bin/sh
echo "Conversion failed!" >&2
exit 1
`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	video      string
	subtitle   string
}

func setupCLITestEnv(t *testing.T, ffmpegScript string) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("WEBVID_FFMPEG", "")
	t.Setenv("WEBVID_FFPROBE", "")

	binary := filepath.Join(base, "bin", "ffmpeg")
	if err := os.MkdirAll(filepath.Dir(binary), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(binary, []byte(ffmpegScript), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	frames := testsupport.WriteFrames(t, filepath.Join(base, "fixture", "frame%06d.png"), 1, 427, 240)
	t.Setenv("WEBVID_TEST_FRAME", frames[0])

	cfg.FFmpeg.Binary = binary
	cfg.FFmpeg.FFprobeBinary = filepath.Join(base, "bin", "ffprobe")
	cfg.Pipeline.ProbeSource = false
	cfg.Logging.Level = "error"

	configPath := filepath.Join(base, "webvid.toml")
	writeTestConfig(t, configPath, cfg)

	env := &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		video:      filepath.Join(base, "input", "talk.mp4"),
		subtitle:   filepath.Join(base, "input", "talk.srt"),
	}
	testsupport.WriteFile(t, env.video, 64)
	testsupport.WriteFile(t, env.subtitle, 64)
	return env
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
