package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"webvid/internal/config"
	"webvid/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputParent verifies a build could create or populate output: the
// nearest existing ancestor must be a writable directory.
func CheckOutputParent(output string) Result {
	const name = "Output location"
	dir := output
	for {
		if info, err := os.Stat(dir); err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", dir)}
			}
			break
		}
		parent := parentDir(dir)
		if parent == dir {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no existing ancestor)", output)}
		}
		dir = parent
	}
	if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not writable: %v)", dir, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", dir)}
}

// CheckSystemDeps evaluates the external binaries a build needs for the given
// config. Both the build command and "webvid check" use it.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	ffmpeg := deps.CheckFFmpeg(cfg.FFmpegBinary())
	ffprobe := deps.CheckFFprobe(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	if !cfg.Pipeline.ProbeSource {
		ffprobe.Detail = "source probing disabled"
	}
	return []deps.Status{ffmpeg, ffprobe}
}
