// Package history records build runs in a small SQLite database under the
// state directory.
//
// Each build inserts a running row when it starts and updates it with the
// final status, error text, artifact count, and finish time. The database
// carries a schema_version table; a version mismatch is reported rather
// than migrated. Callers treat history as best effort: a failure to record a
// run is logged and never fails the build.
package history
