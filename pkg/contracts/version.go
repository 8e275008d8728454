package contracts

import (
	"fmt"
	"runtime"
)

// Version is the release of the flightstats binaries.
const Version = "0.3.0"

// APIVersion is the version of the HTTP and WebSocket contracts. It is the
// last path element of the API base path.
const APIVersion = "v1"

// Set with -ldflags "-X flightstats/pkg/contracts.GitCommit=..." at build time.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version      string `json:"version"`
	APIVersion   string `json:"api_version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
}

// GetVersionInfo returns the build information of the running binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		APIVersion:   APIVersion,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
	}
}

// GetFullVersionString is the one-line form printed by -version.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("flightstats v%s (api %s, commit %s, built %s, %s %s/%s)",
		info.Version, info.APIVersion, info.GitCommit, info.BuildTime,
		info.GoVersion, info.OS, info.Architecture)
}
