package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo) {
	t.Helper()
	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
	t.Cleanup(func() { readBuildInfo = orig })
}

func withLinkerValues(t *testing.T, v, commit, built string) {
	t.Helper()
	ov, oc, ob := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = v, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = ov, oc, ob })
}

func TestGetInfo_FromVCSStamp(t *testing.T) {
	withLinkerValues(t, "", "", "")
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	info := GetInfo()
	assert.Equal(t, "v0.3.1", info.Version)
	assert.Equal(t, "0123456789ab", info.Commit)
	assert.True(t, info.Modified)
	assert.Equal(t, "2026-10-01T12:00:00Z", info.BuildTime)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	assert.Equal(t, "proxyconf v0.3.1 (0123456789ab-dirty) built 2026-10-01T12:00:00Z", info.String())
}

func TestGetInfo_LinkerValuesWin(t *testing.T) {
	withLinkerValues(t, "v1.0.0", "deadbeef", "today")
	withBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789abcdef"}},
	})

	assert.Equal(t, "proxyconf v1.0.0 (deadbeef) built today", String())
}

func TestGetInfo_DevelBuild(t *testing.T) {
	withLinkerValues(t, "", "", "")
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	assert.Equal(t, "proxyconf dev", String())
}

func TestGetInfo_NoBuildInfo(t *testing.T) {
	withLinkerValues(t, "", "", "")
	withBuildInfo(t, nil)

	assert.Equal(t, "dev", GetInfo().Version)
}

func TestFull(t *testing.T) {
	withLinkerValues(t, "v1.0.0", "", "")
	withBuildInfo(t, nil)

	assert.Equal(t, "proxyconf v1.0.0, "+runtime.Version()+" "+runtime.GOOS+"/"+runtime.GOARCH, Full())
}
