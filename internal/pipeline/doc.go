// Package pipeline turns one validated source video and subtitle into a
// bundle of web derivatives.
//
// An Orchestrator owns the output layout:
//
//	1080p.mp4, 720p.mp4, 576p.mp4
//	240p/240p-thumbs.vtt, 240p/240p-NNN.jpg
//	100p/100p-thumbs.vtt, 100p/100p-NNN.jpg
//	poster.jpg
//	subtitles.vtt
//
// Each artifact is produced by an independent step. Steps run one after the
// other by default; WithParallel runs them concurrently and the first
// failure cancels the rest. WithAtomic stages the bundle in a hidden sibling
// directory and renames it into place only after every step succeeded.
// A per-output file lock keeps two runs from writing the same bundle.
package pipeline
