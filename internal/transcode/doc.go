// Package transcode defines the port through which the build pipeline asks an
// external media tool for derivative artifacts, and the ffmpeg adapter that
// satisfies it.
//
// The adapter separates argument construction from execution: the *Args
// helpers are pure functions over paths and heights, and FFmpeg.run is the
// single place a process is spawned. Failures are tagged with
// services.ErrExternalTool and carry the tail of ffmpeg's stderr.
package transcode
