package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"

	"github.com/standardbeagle/disposeflow/internal/debug"
)

// LoadKDL loads .disposeflow.kdl from dir. It returns nil, nil when the file
// does not exist.
func LoadKDL(dir string) (*Config, error) {
	kdlPath := filepath.Join(dir, KDLFileName)
	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(kdlPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", KDLFileName, err)
	}

	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}
	resolveRoot(cfg, dir)
	return cfg, nil
}

// parseKDL reads a configuration such as
//
//	project { root "src"; name "shop" }
//	analysis { scope "type"; max_file_size "2MB" }
//	rules {
//	    disable "IDISP004"
//	    severity "IDISP001" "error"
//	}
//	exclude "**/Migrations/**"
//
// Unknown nodes are ignored. Exclusions add to the defaults; include
// replaces them.
func parseKDL(content string) (*Config, error) {
	cfg := Default("")
	cfg.Project = Project{}

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	var include []string
	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children {
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "analysis":
			for _, cn := range n.Children {
				if err := parseAnalysisNode(cfg, cn); err != nil {
					return nil, err
				}
			}
		case "rules":
			for _, cn := range n.Children {
				if err := parseRulesNode(cfg, cn); err != nil {
					return nil, err
				}
			}
		case "performance":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.Workers = v
					}
				case "timeout_sec":
					if v, ok := firstIntArg(cn); ok {
						cfg.Performance.TimeoutSec = v
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				if nodeName(cn) == "debounce_ms" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "include":
			include = append(include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = append(cfg.Exclude, collectStringArgs(n)...)
		default:
			debug.LogConfig("ignoring unknown KDL node %q\n", nodeName(n))
		}
	}

	if len(include) > 0 {
		cfg.Include = include
	}
	cfg.Exclude = DeduplicatePatterns(cfg.Exclude)
	return cfg, nil
}

func parseAnalysisNode(cfg *Config, cn *document.Node) error {
	switch name := nodeName(cn); name {
	case "scope":
		assignSimpleString(cn, name, func(v string) { cfg.Analysis.Scope = v })
	case "max_idle_walkers":
		if v, ok := firstIntArg(cn); ok {
			cfg.Analysis.MaxIdleWalkers = v
		}
	case "debug_pool":
		if v, ok := boolArg(cn); ok {
			cfg.Analysis.DebugPool = v
		}
	case "skip_generated":
		if v, ok := boolArg(cn); ok {
			cfg.Analysis.SkipGenerated = v
		}
	case "respect_gitignore":
		if v, ok := boolArg(cn); ok {
			cfg.Analysis.RespectGitignore = v
		}
	case "max_file_size":
		if v, ok := firstIntArg(cn); ok {
			cfg.Analysis.MaxFileSize = int64(v)
		}
		if s, ok := firstStringArg(cn); ok {
			sz, err := parseSize(s)
			if err != nil {
				return fmt.Errorf("analysis.max_file_size: %w", err)
			}
			cfg.Analysis.MaxFileSize = sz
		}
	}
	return nil
}

func parseRulesNode(cfg *Config, cn *document.Node) error {
	switch nodeName(cn) {
	case "disable":
		cfg.Rules.Disabled = append(cfg.Rules.Disabled, collectStringArgs(cn)...)
	case "severity":
		args := collectStringArgs(cn)
		if len(args) != 2 {
			return fmt.Errorf("rules.severity expects a rule ID and a severity, got %d arguments", len(args))
		}
		cfg.Rules.Severities[strings.ToUpper(args[0])] = args[1]
	}
	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}

// boolArg accepts KDL booleans as well as "yes", "on" and friends
func boolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case bool:
		return v, true
	case string:
		return parseBool(v), true
	}
	return false, false
}

// collectStringArgs reads inline arguments, or block children when there are
// none, as in exclude { "a/**"; "b/**" }
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, child := range n.Children {
		if s, ok := firstStringArg(child); ok {
			out = append(out, s)
		} else if child.Name != nil {
			// bare string children name themselves
			if s, ok := child.Name.Value.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	numStr := s
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	} {
		if strings.HasSuffix(s, unit.suffix) {
			multiplier = unit.mult
			numStr = strings.TrimSpace(strings.TrimSuffix(s, unit.suffix))
			break
		}
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return num * multiplier, nil
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "yes" || s == "1" || s == "on"
}
