// Package version reports the studyroom build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version. It is set at build time:
// -ldflags="-X github.com/wethinkt/go-studyroom/internal/version.Version=v1.0.0"
var Version = ""

// Info describes the running build. The mock backend reports it from
// /api/health and `studyroom version --json` prints it.
type Info struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	Modified  bool   `json:"modified,omitempty"` // built from a dirty tree
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo collects build metadata for the named binary.
func GetInfo(name string) Info {
	info := Info{
		Name:      name,
		Version:   Get(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				info.Revision = setting.Value
			case "vcs.modified":
				info.Modified = setting.Value == "true"
			}
		}
	}

	return info
}

// Get returns the version string: the ldflags value, the module version,
// dev-<short revision>, or "dev".
func Get() string {
	if Version != "" {
		return Version
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" && len(setting.Value) >= 7 {
				return "dev-" + setting.Value[:7]
			}
		}
	}

	return "dev"
}

// String returns a one-line summary such as
// "studyroom version v1.2.0 (go1.24.2 linux/amd64)".
func String(name string) string {
	i := GetInfo(name)
	s := fmt.Sprintf("%s version %s (%s %s)", i.Name, i.Version, i.GoVersion, i.Platform)
	if i.Modified {
		s += " +dirty"
	}
	return s
}
