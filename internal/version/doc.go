// Package version exposes build metadata of the alert binaries.
//
// Variables Version, Commit and BuildTime are injected at build time via
// Go ldflags. Named labels store connections with the binary and version.
package version
