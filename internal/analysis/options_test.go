package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/config"
	"github.com/standardbeagle/disposeflow/internal/walkers"
)

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default("/repo")
	cfg.Analysis.Scope = "type"
	cfg.Performance.Workers = 3
	cfg.Rules.Disabled = []string{"IDISP004"}
	require.NoError(t, config.ValidateConfig(cfg))

	opts := OptionsFromConfig(cfg)
	assert.Equal(t, "/repo", opts.Root)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, walkers.Type, opts.Scope)
	assert.True(t, opts.SkipGenerated)
	assert.Equal(t, int64(config.DefaultMaxFileSize), opts.MaxFileSize)
	assert.Len(t, opts.Checker, 1)
}
