package config

import (
	"os"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// =========================================================================
// 编译时注入变量 (Build-Time Variables)
// 通过 -ldflags -X 修改
// =========================================================================

var (
	// Version 软件版本
	Version string = "0.0.0-dev"

	// CommitID Git 提交哈希
	CommitID string = "HEAD"

	// BuildTime 编译时间
	BuildTime string = "Unknown"
)

// Identity 执行扫描的主机信息，写入扫描历史
type Identity struct {
	Hostname string
	OS       string
	Platform string
}

// HostIdentity 采集本机信息
// gopsutil 失败时（容器、受限环境）回退到 os.Hostname 与 runtime.GOOS
func HostIdentity() Identity {
	info, err := host.Info()
	if err == nil && info != nil {
		id := Identity{
			Hostname: strings.TrimSpace(info.Hostname),
			OS:       info.OS,
			Platform: strings.TrimSpace(info.Platform + " " + info.PlatformVersion),
		}
		if id.Hostname == "" {
			id.Hostname = fallbackHostname()
		}
		if id.OS == "" {
			id.OS = runtime.GOOS
		}
		return id
	}

	return Identity{
		Hostname: fallbackHostname(),
		OS:       runtime.GOOS,
	}
}

func fallbackHostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}
