// Package version holds the build version, set with
// -ldflags "-X github.com/bnema/poolwallet-cli/internal/version.Version=...".
package version

var Version = "dev"
