package config

// Linker-injected build metadata, set at compile time via -ldflags:
//
//	go build -ldflags "-X floatdeck/internal/config.version=1.2.3 \
//	    -X floatdeck/internal/config.commit=$(git rev-parse --short HEAD) \
//	    -X floatdeck/internal/config.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// The defaults apply during local development when ldflags are not set.
var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

// NewBuildInfo constructs a BuildInfo from the linker-injected variables.
func NewBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	}
}
