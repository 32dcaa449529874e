// Package version holds build-time version metadata, set via
// -ldflags at build time; defaults cover a plain `go build`.
package version

import "runtime"

var (
	// BuildVersion is set via -ldflags "-X .../pkg/version.BuildVersion=...".
	BuildVersion = "dev"
	// Commit is set via -ldflags; the VCS commit the binary was built from.
	Commit = "unknown"
	// BuildDate is set via -ldflags; RFC3339 build timestamp.
	BuildDate = "unknown"
)

// Info is the structured form of the same fields, for logging or a
// --version flag.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

// Get returns the current build's version info.
func Get() Info {
	return Info{
		Version:   BuildVersion,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}
