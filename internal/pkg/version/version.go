package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// 这些变量将在构建时通过 ldflags 注入
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo 包含构建信息
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// readBuildInfo 可在测试中替换
var readBuildInfo = debug.ReadBuildInfo

// GetBuildInfo 返回详细的构建信息，ldflags 未注入的字段从 debug.BuildInfo 补齐
func GetBuildInfo() BuildInfo {
	info := BuildInfo{Version: Version, Commit: Commit, Date: Date, GoVersion: GoVersion}

	bi, ok := readBuildInfo()
	if !ok {
		return info
	}
	if info.Version == "dev" || info.Version == "" {
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		} else {
			info.Version = "dev"
		}
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "unknown" || info.Commit == "" {
				info.Commit = shortCommit(setting.Value)
			}
		case "vcs.time":
			if info.Date == "unknown" || info.Date == "" {
				info.Date = formatBuildTime(setting.Value)
			}
		}
	}
	return info
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func formatBuildTime(value string) string {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.Format("2006-01-02 15:04:05")
	}
	return value
}

// String 返回形如 "v1.2.0, commit abc1234, built at 2026-10-19 10:00:00" 的版本字符串
func (b BuildInfo) String() string {
	parts := []string{b.Version}
	if b.Commit != "unknown" && b.Commit != "" {
		parts = append(parts, fmt.Sprintf("commit %s", b.Commit))
	}
	if b.Date != "unknown" && b.Date != "" {
		parts = append(parts, fmt.Sprintf("built at %s", b.Date))
	}
	return strings.Join(parts, ", ")
}
