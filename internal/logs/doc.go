// Package logs reads the webvid log file for `webvid logs`.
//
// Tail returns the last N lines together with the byte offset they end at;
// passing that offset back with Follow set blocks until new lines arrive or
// the wait expires. Memory stays bounded to the requested line count.
package logs
