package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
)

const (
	// KDLFileName is the project and global configuration file
	KDLFileName = ".disposeflow.kdl"
	// TOMLFileName is read when no KDL file exists in a directory
	TOMLFileName = "disposeflow.toml"

	DefaultMaxFileSize    = 4 * 1024 * 1024 // 4MB; larger .cs files are almost always generated
	DefaultMaxIdleWalkers = 64
	DefaultDebounceMs     = 300
	DefaultTimeoutSec     = 300
)

type Config struct {
	Version     int
	Project     Project
	Analysis    Analysis
	Rules       Rules
	Performance Performance
	Watch       Watch
	Include     []string
	Exclude     []string
}

type Project struct {
	Root string
	Name string
}

type Analysis struct {
	Scope            string // "recursive", "type" or "toplevel"
	MaxIdleWalkers   int    // idle walkers kept per kind between queries
	DebugPool        bool   // panic on walker double release or use after release
	SkipGenerated    bool   // skip files with generated-code markers
	RespectGitignore bool
	MaxFileSize      int64
}

// Rules enables, disables and re-grades disposal rules by ID
type Rules struct {
	Disabled   []string
	Severities map[string]string
}

type Performance struct {
	Workers    int // 0 = NumCPU
	TimeoutSec int // 0 = no timeout
}

type Watch struct {
	DebounceMs int
}

// Load reads the configuration for the current directory
func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot reads the configuration for rootDir. An explicit path names a
// KDL or TOML file to use instead of the project file. The global file in the
// home directory is merged under the project one.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := LoadKDL(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	var projectConfig *Config
	var err error
	if path != "" {
		projectConfig, err = LoadFile(path)
		if err == nil && projectConfig != nil && rootDir != "" {
			projectConfig.Project.Root = absPath(rootDir)
		}
	} else {
		projectConfig, err = LoadDir(searchDir)
	}
	if err != nil {
		return nil, err
	}

	var cfg *Config
	switch {
	case baseConfig != nil && projectConfig != nil:
		cfg = mergeConfigs(baseConfig, projectConfig)
	case projectConfig != nil:
		cfg = projectConfig
	case baseConfig != nil:
		cfg = baseConfig
		cfg.Project.Root = absPath(searchDir)
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	default:
		cfg = Default(absPath(searchDir))
	}
	cfg.EnrichExclusionsWithBuildArtifacts()
	return cfg, nil
}

// LoadDir reads the KDL file of dir, falling back to its TOML file. It
// returns nil, nil when dir has neither.
func LoadDir(dir string) (*Config, error) {
	cfg, err := LoadKDL(dir)
	if err != nil || cfg != nil {
		return cfg, err
	}
	return LoadTOML(dir)
}

// LoadFile reads one configuration file, choosing the format by extension
func LoadFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg *Config
	if filepath.Ext(path) == ".toml" {
		cfg, err = parseTOML(content)
	} else {
		cfg, err = parseKDL(string(content))
	}
	if err != nil {
		return nil, err
	}
	resolveRoot(cfg, filepath.Dir(path))
	return cfg, nil
}

// Default returns the built-in configuration rooted at root
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Analysis: Analysis{
			Scope:            "recursive",
			MaxIdleWalkers:   DefaultMaxIdleWalkers,
			SkipGenerated:    true,
			RespectGitignore: true,
			MaxFileSize:      DefaultMaxFileSize,
		},
		Rules: Rules{
			Severities: map[string]string{},
		},
		Performance: Performance{
			Workers:    runtime.NumCPU(),
			TimeoutSec: DefaultTimeoutSec,
		},
		Watch: Watch{
			DebounceMs: DefaultDebounceMs,
		},
		Include: []string{"**/*.cs"},
		Exclude: getDefaultExclusions(),
	}
}

// resolveRoot makes the configured root absolute, relative to dir, the
// directory holding the configuration file
func resolveRoot(cfg *Config, dir string) {
	if cfg == nil {
		return
	}
	switch {
	case cfg.Project.Root == "":
		cfg.Project.Root = absPath(dir)
	case !filepath.IsAbs(cfg.Project.Root):
		cfg.Project.Root = filepath.Clean(filepath.Join(absPath(dir), cfg.Project.Root))
	default:
		cfg.Project.Root = filepath.Clean(cfg.Project.Root)
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}
}

func absPath(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// mergeConfigs merges a base config with a project config.
// Project config takes precedence, but base exclusions and disabled rules
// are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	merged.Exclude = DeduplicatePatterns(append(slices.Clone(base.Exclude), project.Exclude...))
	merged.Rules.Disabled = DeduplicatePatterns(append(slices.Clone(base.Rules.Disabled), project.Rules.Disabled...))

	merged.Rules.Severities = make(map[string]string, len(base.Rules.Severities)+len(project.Rules.Severities))
	for id, s := range base.Rules.Severities {
		merged.Rules.Severities[id] = s
	}
	for id, s := range project.Rules.Severities {
		merged.Rules.Severities[id] = s
	}

	if len(project.Include) == 0 && len(base.Include) > 0 {
		merged.Include = base.Include
	}
	return &merged
}

// EnrichExclusionsWithBuildArtifacts detects build output directories
// declared by the project files under the root and excludes them
func (c *Config) EnrichExclusionsWithBuildArtifacts() {
	if c.Project.Root == "" {
		return
	}
	detected := NewBuildArtifactDetector(c.Project.Root).DetectOutputDirectories()
	if c.Analysis.RespectGitignore {
		gp := NewGitignoreParser()
		if err := gp.LoadGitignore(c.Project.Root); err == nil {
			detected = append(detected, gp.GetExclusionPatterns()...)
		}
	}
	if len(detected) > 0 {
		c.Exclude = DeduplicatePatterns(append(c.Exclude, detected...))
	}
}

func getDefaultExclusions() []string {
	return []string{
		"**/.git/**",
		"**/.*/**", // hidden directories: .vs, .idea, .vscode

		// .NET build output and package caches
		"**/bin/**",
		"**/obj/**",
		"**/packages/**",
		"**/TestResults/**",
		"**/artifacts/**",

		// generated sources that never carry hand-written ownership
		"**/*.g.cs",
		"**/*.g.i.cs",
		"**/*.designer.cs",
		"**/*.Designer.cs",
		"**/*.AssemblyInfo.cs",
		"**/*.AssemblyAttributes.cs",

		// other ecosystems found in mixed repositories
		"**/node_modules/**",
		"**/vendor/**",
	}
}
