// Package deps resolves the external binaries webvid shells out to and reports
// whether they are available.
package deps
