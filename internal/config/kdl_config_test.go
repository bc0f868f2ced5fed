package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL("")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "recursive", cfg.Analysis.Scope)
	assert.Equal(t, DefaultMaxIdleWalkers, cfg.Analysis.MaxIdleWalkers)
	assert.True(t, cfg.Analysis.SkipGenerated)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.Analysis.MaxFileSize)
	assert.Equal(t, []string{"**/*.cs"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "**/obj/**")
	assert.Empty(t, cfg.Rules.Disabled)
}

func TestParseKDL_FullConfig(t *testing.T) {
	content := `
version 1
project {
    root "src"
    name "shop"
}
analysis {
    scope "type"
    max_idle_walkers 8
    debug_pool true
    skip_generated false
    max_file_size "2MB"
}
rules {
    disable "IDISP004" "IDISP008"
    severity "idisp001" "error"
}
performance {
    workers 3
    timeout_sec 60
}
watch {
    debounce_ms 150
}
include "**/*.cs" "**/*.csx"
exclude {
    "**/Migrations/**"
}
`
	cfg, err := parseKDL(content)
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Project.Root)
	assert.Equal(t, "shop", cfg.Project.Name)
	assert.Equal(t, "type", cfg.Analysis.Scope)
	assert.Equal(t, 8, cfg.Analysis.MaxIdleWalkers)
	assert.True(t, cfg.Analysis.DebugPool)
	assert.False(t, cfg.Analysis.SkipGenerated)
	assert.Equal(t, int64(2*1024*1024), cfg.Analysis.MaxFileSize)
	assert.Equal(t, []string{"IDISP004", "IDISP008"}, cfg.Rules.Disabled)
	assert.Equal(t, "error", cfg.Rules.Severities["IDISP001"])
	assert.Equal(t, 3, cfg.Performance.Workers)
	assert.Equal(t, 60, cfg.Performance.TimeoutSec)
	assert.Equal(t, 150, cfg.Watch.DebounceMs)
	assert.Equal(t, []string{"**/*.cs", "**/*.csx"}, cfg.Include)
	assert.Contains(t, cfg.Exclude, "**/Migrations/**")
	assert.Contains(t, cfg.Exclude, "**/bin/**", "defaults are kept")
}

func TestParseKDL_Errors(t *testing.T) {
	_, err := parseKDL(`analysis { max_file_size "lots" }`)
	assert.Error(t, err)

	_, err = parseKDL(`rules { severity "IDISP001" }`)
	assert.Error(t, err)

	_, err = parseKDL(`project {`)
	assert.Error(t, err)
}

func TestLoadKDL_ResolvesRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, KDLFileName), []byte("project {\n    root \"src\"\n}\n"), 0644))

	cfg, err := LoadKDL(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, filepath.Join(dir, "src"), cfg.Project.Root)
	assert.Equal(t, "src", cfg.Project.Name)

	missing, err := LoadKDL(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"10", 10},
		{"10B", 10},
		{"4kb", 4096},
		{"2MB", 2 << 20},
		{" 1 GB ", 1 << 30},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	_, err := parseSize("MB")
	assert.Error(t, err)
}
