// Package buildinfo holds the compile-time version string printed by
// -v/--version.
package buildinfo

// Version is overridden at link time via -ldflags "-X ...Version=...".
var Version = "0.0.0-dev"
