// Package config loads, normalizes, and validates webvid configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// WEBVID_FFMPEG. The Config type centralizes every knob the CLI and the build
// pipeline need, so the ffmpeg binaries, pipeline switches, and the state
// directory holding run history and output locks are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
