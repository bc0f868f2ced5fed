package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescribeWithoutBuildInfo(t *testing.T) {
	b := describe(nil)
	assert.Equal(t, Version, b.Version)
	assert.Equal(t, Version+"-"+GitCommit, b.ID)
	assert.Empty(t, b.GoVersion)
	assert.Equal(t, "disposeflow "+Version+" (commit: "+GitCommit+", built: "+BuildDate+")", b.String())
}

func TestDescribeFromVCSStamps(t *testing.T) {
	info := &debug.BuildInfo{
		GoVersion: "go1.24.0",
		Main:      debug.Module{Path: "github.com/standardbeagle/disposeflow", Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "4f1c2a9"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "GOOS", Value: "linux"},
		},
	}

	b := describe(info)
	assert.Equal(t, "go1.24.0", b.GoVersion)
	assert.Equal(t, "4f1c2a9", b.Commit)
	assert.Equal(t, "2026-10-01T12:00:00Z", b.Date)
	assert.True(t, b.Modified)
	assert.Len(t, b.ID, 16)
	assert.Contains(t, b.String(), ", modified)")
	assert.Equal(t, Version+"+"+b.ID, b.Short())

	// settings outside the VCS stamps do not change the fingerprint
	info.Settings[3].Value = "darwin"
	assert.Equal(t, b.ID, describe(info).ID)

	info.Settings[2].Value = "false"
	assert.NotEqual(t, b.ID, describe(info).ID)
}

func TestDescribePrefersLinkedValues(t *testing.T) {
	commit := GitCommit
	GitCommit = "abc1234"
	t.Cleanup(func() { GitCommit = commit })

	b := describe(&debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "4f1c2a9"}}})
	assert.Equal(t, "abc1234", b.Commit)
}

func TestCurrentIsStable(t *testing.T) {
	b := Current()
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, b, Current())
}
