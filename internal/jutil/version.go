package jutil

import (
	"fmt"
	"runtime/debug"
	"strconv"
)

// Version is set at build time via
// -ldflags "-X 'github.com/samoyed-labs/jesd204core/internal/jutil.Version=X'".
var Version string

func getBuildSettingOrDefault(bi *debug.BuildInfo, key, defaultValue string) string {
	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}
	return defaultValue
}

// PrintVersion prints the binary's version and, in verbose mode, the
// full Go build info (module versions, build flags, VCS state).
func PrintVersion(verbose bool) {
	buildInfo, _ := debug.ReadBuildInfo()

	buildTimeStr := getBuildSettingOrDefault(buildInfo, "vcs.time", "UNKNOWN")

	var (
		buildCommit               = getBuildSettingOrDefault(buildInfo, "vcs.revision", "UNKNOWN")
		buildDirtyStr             = getBuildSettingOrDefault(buildInfo, "vcs.modified", "INVALID")
		buildDirty, buildDirtyErr = strconv.ParseBool(buildDirtyStr)
	)

	if buildDirty {
		buildCommit += "-DIRTY"
	} else if buildDirtyErr != nil {
		fmt.Printf("Error parsing vcs.modified, got %s, %s\n", buildDirtyStr, buildDirtyErr)
		buildCommit += "-UNKNOWNDIRTY"
	}

	version := Version
	if version == "" {
		version = "!UNKNOWN!"
	}

	fmt.Printf("jesd204core - Version %s (revision %s, built at %s)\n", version, buildCommit, buildTimeStr)

	if verbose {
		fmt.Printf("\nBuildInfo: %+v\n", buildInfo)
	}
}
