// SPDX-License-Identifier: MIT
//
// Package build carries the metadata stamped into the binary with linker
// flags: application name, build timestamp, Git commit and semantic version.
// Development builds fall back to placeholder values.
//
//	go build -ldflags "-X specmon/pkg/build.buildName=specmon -X specmon/pkg/build.buildVersion=0.3.0 ..."
package build

import "fmt"

// Description is the one-line summary shown by the CLI.
const Description = "Terminal spectrum monitor for audio output and capture devices"

type ldFlags struct {
	Name    string
	Time    string
	Commit  string
	Version string
}

// Package-level variables for build information. These are populated by -ldflags
// during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = defaultFlags()
)

func defaultFlags() *ldFlags {
	return &ldFlags{
		Name:    "specmon",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
}

// Initialize validates and copies build information from ldflags variables
// into the buildFlags struct. On error the development defaults stay in place.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// String renders the version line printed by --version.
func (f *ldFlags) String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}
