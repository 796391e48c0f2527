package env

const AppName = "ctrimage"

// Set via -ldflags at build time.
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)
