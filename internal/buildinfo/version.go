// Package buildinfo reports which verse build is running, derived from Go
// build metadata.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

// Info describes the running binary.
type Info struct {
	Version   string    `json:"version"`
	Revision  string    `json:"revision,omitempty"`
	Modified  bool      `json:"modified,omitempty"`
	BuildTime time.Time `json:"build_time,omitzero"`
	GoVersion string    `json:"go_version"`
}

// Version returns the version string for the current build.
//
// Tagged installs (go install ...@v0.2.0) report the tag. Development
// builds report "dev-<hash>" or "dev-<hash>-dirty", or plain "dev" without
// VCS info. "unknown" means build info could not be read at all.
func Version() string {
	return Read().Version
}

// Read returns the full build description.
func Read() Info {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{Version: "unknown", GoVersion: runtime.Version()}
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) Info {
	out := Info{GoVersion: info.GoVersion}
	if out.GoVersion == "" {
		out.GoVersion = runtime.Version()
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			out.Revision = setting.Value
		case "vcs.modified":
			out.Modified = setting.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				out.BuildTime = t
			}
		}
	}

	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Version = info.Main.Version
		return out
	}
	out.Version = devVersion(out.Revision, out.Modified)
	return out
}

func devVersion(revision string, modified bool) string {
	if revision == "" {
		return "dev"
	}

	// Git short hash length
	if len(revision) > 12 {
		revision = revision[:12]
	}

	version := fmt.Sprintf("dev-%s", revision)
	if modified {
		version += "-dirty"
	}
	return version
}
