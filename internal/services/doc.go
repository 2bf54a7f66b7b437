// Package services defines shared utilities consumed by the build pipeline
// and its external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and stage names for logging.
//   - Structured error markers plus the Wrap helper that let the CLI tell
//     invalid input apart from external tool failures.
//
// Use these helpers when wiring new pipeline steps so error classification and
// log fields stay uniform across the build.
package services
