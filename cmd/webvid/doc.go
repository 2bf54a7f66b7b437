// Command webvid builds web-ready derivative bundles from a source video and
// its subtitles: a rendition ladder, a poster frame, storyboard sprite sheets
// with WebVTT indexes, and a WebVTT subtitle track.
//
// Exit status is 0 on success, 2 when the inputs fail validation, and 1 for
// every other failure.
package main
