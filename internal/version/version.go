// Package version reports how the running proxyconf binary was built.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/rennerdo30/proxyconf/internal/version.Version=v1.2.0".
// Empty values are filled from the module build info embedded by the Go
// toolchain.
var (
	Version   string
	GitCommit string
	BuildTime string
)

const shortCommit = 12

// Info is the build description served by GET /api/v1/version.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

var readBuildInfo = debug.ReadBuildInfo

// GetInfo merges the ldflags values with the embedded VCS stamp.
func GetInfo() Info {
	info := Info{
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}

	if bi, ok := readBuildInfo(); ok {
		if info.Version == "" && bi.Main.Version != "(devel)" {
			info.Version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "" {
					info.Commit = s.Value
					if len(info.Commit) > shortCommit {
						info.Commit = info.Commit[:shortCommit]
					}
				}
			case "vcs.time":
				if info.BuildTime == "" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}

	if info.Version == "" {
		info.Version = "dev"
	}
	return info
}

// String renders "proxyconf <version> (<commit>[-dirty]) built <time>",
// leaving out the parts that are unknown.
func (i Info) String() string {
	s := "proxyconf " + i.Version
	if i.Commit != "" {
		s += " (" + i.Commit
		if i.Modified {
			s += "-dirty"
		}
		s += ")"
	}
	if i.BuildTime != "" {
		s += " built " + i.BuildTime
	}
	return s
}

// String describes the running binary.
func String() string {
	return GetInfo().String()
}

// Full appends the Go toolchain and platform to String.
func Full() string {
	i := GetInfo()
	return fmt.Sprintf("%s, %s %s", i, i.GoVersion, i.Platform)
}
