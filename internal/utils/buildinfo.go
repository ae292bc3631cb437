// Package utils provides logging, naming constants and version retrieval for kiwixctl.
package utils

import (
	"runtime/debug"
)

const (
	unknownVersion = "unknown"
	develVersion   = "(devel)"
)

// Version may be set at build time with -ldflags "-X .../internal/utils.Version=v1.2.3".
var Version = EmptyString

// GetApplicationVersion reports the linker-provided version, then the module version from build info.
func GetApplicationVersion() string {
	if Version != EmptyString {
		return Version
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != EmptyString && buildInfo.Main.Version != develVersion {
		return buildInfo.Main.Version
	}
	for _, setting := range applicationBuildSettings(buildInfo, buildInfoAvailable) {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			return setting.Value[:12]
		}
	}
	return unknownVersion
}

func applicationBuildSettings(buildInfo *debug.BuildInfo, available bool) []debug.BuildSetting {
	if !available || buildInfo == nil {
		return nil
	}
	return buildInfo.Settings
}
