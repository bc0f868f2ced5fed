package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// tomlConfig mirrors the KDL layout:
//
//	[analysis]
//	scope = "type"
//
//	[rules]
//	disable = ["IDISP004"]
//	severity = { IDISP001 = "error" }
type tomlConfig struct {
	Version int `toml:"version"`
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Analysis struct {
		Scope            *string `toml:"scope"`
		MaxIdleWalkers   *int    `toml:"max_idle_walkers"`
		DebugPool        *bool   `toml:"debug_pool"`
		SkipGenerated    *bool   `toml:"skip_generated"`
		RespectGitignore *bool   `toml:"respect_gitignore"`
		MaxFileSize      any     `toml:"max_file_size"`
	} `toml:"analysis"`
	Rules struct {
		Disable  []string          `toml:"disable"`
		Severity map[string]string `toml:"severity"`
	} `toml:"rules"`
	Performance struct {
		Workers    *int `toml:"workers"`
		TimeoutSec *int `toml:"timeout_sec"`
	} `toml:"performance"`
	Watch struct {
		DebounceMs *int `toml:"debounce_ms"`
	} `toml:"watch"`
	Include []string `toml:"include"`
	Exclude []string `toml:"exclude"`
}

// LoadTOML loads disposeflow.toml from dir. It returns nil, nil when the
// file does not exist.
func LoadTOML(dir string) (*Config, error) {
	path := filepath.Join(dir, TOMLFileName)
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TOMLFileName, err)
	}
	cfg, err := parseTOML(content)
	if err != nil {
		return nil, err
	}
	resolveRoot(cfg, dir)
	return cfg, nil
}

func parseTOML(content []byte) (*Config, error) {
	var tc tomlConfig
	if err := toml.Unmarshal(content, &tc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := Default("")
	cfg.Project = Project{Root: tc.Project.Root, Name: tc.Project.Name}
	if tc.Version != 0 {
		cfg.Version = tc.Version
	}

	a := tc.Analysis
	setIf(&cfg.Analysis.Scope, a.Scope)
	setIf(&cfg.Analysis.MaxIdleWalkers, a.MaxIdleWalkers)
	setIf(&cfg.Analysis.DebugPool, a.DebugPool)
	setIf(&cfg.Analysis.SkipGenerated, a.SkipGenerated)
	setIf(&cfg.Analysis.RespectGitignore, a.RespectGitignore)
	switch v := a.MaxFileSize.(type) {
	case nil:
	case int64:
		cfg.Analysis.MaxFileSize = v
	case string:
		sz, err := parseSize(v)
		if err != nil {
			return nil, fmt.Errorf("analysis.max_file_size: %w", err)
		}
		cfg.Analysis.MaxFileSize = sz
	default:
		return nil, fmt.Errorf("analysis.max_file_size: expected a number or size string, got %T", v)
	}

	cfg.Rules.Disabled = tc.Rules.Disable
	for id, s := range tc.Rules.Severity {
		cfg.Rules.Severities[strings.ToUpper(id)] = s
	}

	setIf(&cfg.Performance.Workers, tc.Performance.Workers)
	setIf(&cfg.Performance.TimeoutSec, tc.Performance.TimeoutSec)
	setIf(&cfg.Watch.DebounceMs, tc.Watch.DebounceMs)

	if len(tc.Include) > 0 {
		cfg.Include = tc.Include
	}
	cfg.Exclude = DeduplicatePatterns(append(cfg.Exclude, tc.Exclude...))
	return cfg, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// MarshalTOML renders cfg in the disposeflow.toml layout
func MarshalTOML(cfg *Config) ([]byte, error) {
	var tc tomlConfig
	tc.Version = cfg.Version
	tc.Project.Root = cfg.Project.Root
	tc.Project.Name = cfg.Project.Name

	a := cfg.Analysis
	tc.Analysis.Scope = &a.Scope
	tc.Analysis.MaxIdleWalkers = &a.MaxIdleWalkers
	tc.Analysis.DebugPool = &a.DebugPool
	tc.Analysis.SkipGenerated = &a.SkipGenerated
	tc.Analysis.RespectGitignore = &a.RespectGitignore
	tc.Analysis.MaxFileSize = a.MaxFileSize

	tc.Rules.Disable = cfg.Rules.Disabled
	tc.Rules.Severity = cfg.Rules.Severities
	tc.Performance.Workers = &cfg.Performance.Workers
	tc.Performance.TimeoutSec = &cfg.Performance.TimeoutSec
	tc.Watch.DebounceMs = &cfg.Watch.DebounceMs
	tc.Include = cfg.Include
	tc.Exclude = cfg.Exclude

	return toml.Marshal(tc)
}
