// Package buildinfo holds the spdb build metadata printed by `spdb version`.
package buildinfo

// Set with -ldflags "-X github.com/go-ports/spaccount/internal/buildinfo.Version=...".
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)
