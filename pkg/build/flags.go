// SPDX-License-Identifier: MIT
//
// Package build carries build metadata (name, version, commit, build
// time) injected at compile time via -ldflags. Unset values fall back
// to development defaults so test binaries work without link flags.
package build

// Populated by -ldflags at compile time.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
)

// Info holds the resolved build metadata.
type Info struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Get returns the build metadata, substituting development defaults for
// any flag the linker did not set.
func Get() Info {
	info := Info{
		Name:    buildName,
		Time:    buildTime,
		Commit:  buildCommit,
		Version: buildVersion,
	}
	if info.Name == "" {
		info.Name = "symphonic-joules"
	}
	if info.Time == "" {
		info.Time = "unknown"
	}
	if info.Commit == "" {
		info.Commit = "unknown"
	}
	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}
