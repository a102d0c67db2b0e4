package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Set at build time:
//
//	go build -ldflags "-X github.com/kbukum/todoapi/version.Version=v1.2.0"
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the build metadata served by /version.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version"`
	IsRelease bool   `json:"is_release"`
	IsDirty   bool   `json:"is_dirty"`
}

// GetVersionInfo merges the linker-set variables with the binary's build info.
func GetVersionInfo() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		applySettings(&info, bi.Settings)
	}
	info.IsRelease = info.Version != "dev" && !info.IsDirty
	return info
}

func applySettings(info *Info, settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = shortCommit(s.Value)
			}
		case "vcs.modified":
			info.IsDirty = s.Value == "true"
		case "vcs.time":
			if info.BuildTime == "" {
				if _, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildTime = s.Value
				}
			}
		}
	}
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// String returns "version-commit[-dirty]".
func (i Info) String() string {
	if i.GitCommit == "" {
		return i.Version
	}
	s := fmt.Sprintf("%s-%s", i.Version, i.GitCommit)
	if i.IsDirty {
		s += "-dirty"
	}
	return s
}
