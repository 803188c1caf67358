// Package version holds the build version of the kbc binary.
package version

// Version is overridden at build time with
// -ldflags "-X github.com/keboola/kbcstorage-go/internal/version.Version=...".
var Version = "0.1.0-dev"
