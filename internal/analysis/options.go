package analysis

import (
	"github.com/standardbeagle/disposeflow/internal/config"
)

// OptionsFromConfig maps a validated configuration onto runner options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Root:           cfg.Project.Root,
		Workers:        cfg.Performance.Workers,
		Scope:          cfg.SearchScope(),
		MaxIdleWalkers: cfg.Analysis.MaxIdleWalkers,
		DebugPool:      cfg.Analysis.DebugPool,
		SkipGenerated:  cfg.Analysis.SkipGenerated,
		MaxFileSize:    cfg.Analysis.MaxFileSize,
		Checker:        cfg.CheckerOptions(),
	}
}
