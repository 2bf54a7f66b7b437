package deps

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// CheckFFmpeg reports the ffmpeg binary every transcode will execute.
func CheckFFmpeg(ffmpegCommand string) Status {
	result := Status{
		Name:        "FFmpeg",
		Description: "Required for transcoding, frame extraction, and subtitles",
	}
	name := strings.TrimSpace(ffmpegCommand)
	if name == "" {
		name = "ffmpeg"
	}
	if resolved, err := exec.LookPath(name); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}
	result.Command = name
	result.Detail = fmt.Sprintf("binary %q not found", name)
	return result
}

// CheckFFprobe reports the ffprobe binary used for source inspection.
//
// Static ffmpeg builds ship ffprobe in the same directory, so when ffprobe is
// configured by bare name a sibling of the resolved ffmpeg binary wins over
// whatever PATH yields.
func CheckFFprobe(ffmpegCommand, ffprobeCommand string) Status {
	result := Status{
		Name:        "FFprobe",
		Description: "Used to inspect the source before building",
		Optional:    true,
	}

	probeName := strings.TrimSpace(ffprobeCommand)
	if probeName == "" {
		probeName = "ffprobe"
	}

	if !strings.ContainsAny(probeName, `/\`) {
		if resolved, err := exec.LookPath(strings.TrimSpace(ffmpegCommand)); err == nil && strings.TrimSpace(ffmpegCommand) != "" {
			if candidate, ok := siblingCandidate(resolved, probeName); ok {
				if info, statErr := os.Stat(candidate); statErr == nil && isExecutable(info) {
					result.Command = candidate
					result.Available = true
					return result
				}
			}
		}
	}

	if resolved, err := exec.LookPath(probeName); err == nil {
		result.Command = resolved
		result.Available = true
		return result
	}

	result.Command = probeName
	result.Available = false
	result.Detail = fmt.Sprintf("binary %q not found", probeName)
	return result
}

func siblingCandidate(binaryPath, name string) (string, bool) {
	if binaryPath == "" {
		return "", false
	}
	dir := filepath.Dir(binaryPath)
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		name += ".exe"
	}
	return filepath.Join(dir, name), true
}

func isExecutable(info os.FileInfo) bool {
	if info == nil {
		return false
	}
	if info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
