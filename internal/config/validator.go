package config

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/disposeflow/internal/disposal"
	dferrors "github.com/standardbeagle/disposeflow/internal/errors"
	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/internal/walkers"
)

// Validator validates configuration and sets smart defaults
type Validator struct{}

func NewValidator() *Validator {
	return &Validator{}
}

// ValidateAndSetDefaults validates configuration and applies smart defaults
func (v *Validator) ValidateAndSetDefaults(cfg *Config) error {
	if err := v.validateProjectConfig(&cfg.Project); err != nil {
		return dferrors.NewConfigError("project", "", err)
	}
	if err := v.validateAnalysisConfig(&cfg.Analysis); err != nil {
		return dferrors.NewConfigError("analysis", cfg.Analysis.Scope, err)
	}
	if err := v.validateRulesConfig(&cfg.Rules); err != nil {
		return dferrors.NewConfigError("rules", "", err)
	}
	if err := v.validatePerformanceConfig(&cfg.Performance); err != nil {
		return dferrors.NewConfigError("performance", "", err)
	}
	if cfg.Watch.DebounceMs < 0 {
		return dferrors.NewConfigError("watch", fmt.Sprint(cfg.Watch.DebounceMs), errors.New("debounce_ms cannot be negative"))
	}
	for _, p := range append(append([]string{}, cfg.Include...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return dferrors.NewConfigError("patterns", p, errors.New("invalid glob pattern"))
		}
	}

	v.setSmartDefaults(cfg)
	return nil
}

func (v *Validator) validateProjectConfig(project *Project) error {
	if project.Root == "" {
		return errors.New("project root cannot be empty")
	}
	return nil
}

func (v *Validator) validateAnalysisConfig(a *Analysis) error {
	if a.Scope != "" {
		if _, err := walkers.ParseSearchScope(a.Scope); err != nil {
			return err
		}
	}
	if a.MaxIdleWalkers < 0 {
		return fmt.Errorf("max_idle_walkers cannot be negative, got %d", a.MaxIdleWalkers)
	}
	if a.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size cannot be negative, got %d", a.MaxFileSize)
	}
	if a.MaxFileSize > 100*1024*1024 {
		return fmt.Errorf("max_file_size should not exceed 100MB, got %d", a.MaxFileSize)
	}
	return nil
}

func (v *Validator) validateRulesConfig(r *Rules) error {
	var errs []error
	for _, id := range r.Disabled {
		if _, ok := disposal.RuleByID(id); !ok {
			errs = append(errs, fmt.Errorf("unknown rule %q", id))
		}
	}
	for id, s := range r.Severities {
		if _, ok := disposal.RuleByID(id); !ok {
			errs = append(errs, fmt.Errorf("unknown rule %q", id))
		}
		if _, err := types.ParseSeverity(s); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return dferrors.NewMultiError(errs).ErrOrNil()
}

func (v *Validator) validatePerformanceConfig(perf *Performance) error {
	// 0 means auto-detect
	if perf.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", perf.Workers)
	}
	if perf.TimeoutSec < 0 {
		return fmt.Errorf("timeout_sec cannot be negative, got %d", perf.TimeoutSec)
	}
	return nil
}

// setSmartDefaults applies defaults based on system capabilities
func (v *Validator) setSmartDefaults(cfg *Config) {
	if cfg.Performance.Workers == 0 {
		cfg.Performance.Workers = max(1, runtime.NumCPU()-1)
	}
	if cfg.Analysis.Scope == "" {
		cfg.Analysis.Scope = walkers.Recursive.String()
	}
	if cfg.Analysis.MaxFileSize == 0 {
		cfg.Analysis.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = "project"
	}
	if len(cfg.Include) == 0 {
		cfg.Include = []string{"**/*.cs"}
	}
}

// CheckerOptions converts the rule settings. The configuration must have
// been validated.
func (c *Config) CheckerOptions() []disposal.Option {
	opts := []disposal.Option{disposal.WithDisabled(c.Rules.Disabled...)}
	for id, s := range c.Rules.Severities {
		if sev, err := types.ParseSeverity(s); err == nil {
			opts = append(opts, disposal.WithSeverity(id, sev))
		}
	}
	return opts
}

// SearchScope returns the configured walker scope, Recursive when unset
func (c *Config) SearchScope() walkers.SearchScope {
	s, err := walkers.ParseSearchScope(c.Analysis.Scope)
	if err != nil {
		return walkers.Recursive
	}
	return s
}

// ValidateConfig is a convenience function for quick validation
func ValidateConfig(cfg *Config) error {
	return NewValidator().ValidateAndSetDefaults(cfg)
}
