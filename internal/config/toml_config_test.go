package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTOML_SizeForms(t *testing.T) {
	cfg, err := parseTOML([]byte("[analysis]\nmax_file_size = \"2MB\"\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(2<<20), cfg.Analysis.MaxFileSize)

	cfg, err = parseTOML([]byte("[analysis]\nmax_file_size = 4096\n"))
	require.NoError(t, err)
	assert.Equal(t, int64(4096), cfg.Analysis.MaxFileSize)

	_, err = parseTOML([]byte("[analysis]\nmax_file_size = true\n"))
	assert.Error(t, err)
}

func TestMarshalTOML_RoundTrip(t *testing.T) {
	cfg := Default("/repo")
	cfg.Analysis.Scope = "type"
	cfg.Analysis.MaxFileSize = 1 << 20
	cfg.Rules.Disabled = []string{"IDISP004"}
	cfg.Rules.Severities["IDISP001"] = "error"
	cfg.Performance.Workers = 2
	cfg.Include = []string{"src/**/*.cs"}

	data, err := MarshalTOML(cfg)
	require.NoError(t, err)

	back, err := parseTOML(data)
	require.NoError(t, err)
	assert.Equal(t, cfg.Project, back.Project)
	assert.Equal(t, cfg.Analysis, back.Analysis)
	assert.Equal(t, cfg.Rules, back.Rules)
	assert.Equal(t, cfg.Performance, back.Performance)
	assert.Equal(t, cfg.Include, back.Include)
	assert.Equal(t, cfg.Exclude, back.Exclude)
}
