package app

// Set with -ldflags "-X github.com/hyperifyio/goprofile/internal/app.BuildVersion=...".
// BuildVersion is also written into every run manifest.
var (
	BuildVersion = "0.0.0-dev"
	BuildCommit  = "unknown"
	BuildDate    = "unknown"
)
