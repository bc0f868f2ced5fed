// Package debug writes component-tagged diagnostics for the analyzer itself.
//
// Output is off unless enabled by build flag, the DEBUG environment variable
// or SetEnabled, and goes nowhere until a writer or log file is configured.
// In MCP mode stdio carries the protocol, so only the log file is written.
package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// EnableDebug can be set at build time:
// go build -ldflags "-X github.com/standardbeagle/disposeflow/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// Rotation limits for the debug log file
const (
	logMaxSizeMB  = 10
	logMaxBackups = 3
	logMaxAgeDays = 7
)

// Component tags
const (
	ComponentParser   = "PARSER"
	ComponentBind     = "BIND"
	ComponentWalker   = "WALKER"
	ComponentAnalysis = "ANALYSIS"
	ComponentIndexing = "INDEXING"
	ComponentConfig   = "CONFIG"
	ComponentMCP      = "MCP"
)

type logState struct {
	mu      sync.Mutex
	mcpMode bool
	enabled bool
	out     io.Writer
	file    *lumberjack.Logger
}

var state logState

// SetMCPMode restricts output to the log file
func SetMCPMode(on bool) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.mcpMode = on
}

// MCPMode reports whether SetMCPMode(true) is in effect
func MCPMode() bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.mcpMode
}

// SetEnabled turns debug output on at runtime, as the --debug-log flag does
func SetEnabled(on bool) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.enabled = on
}

// SetDebugOutput sets the writer for debug output; nil discards it
func SetDebugOutput(w io.Writer) {
	state.mu.Lock()
	defer state.mu.Unlock()
	state.out = w
}

// InitDebugLogFile opens a size-rotated debug.log under the temp directory and
// returns its path. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	return InitDebugLogFileIn(filepath.Join(os.TempDir(), "disposeflow-debug-logs"))
}

// InitDebugLogFileIn is InitDebugLogFile with an explicit directory
func InitDebugLogFileIn(logDir string) (string, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "debug.log")
	logger := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}
	// lumberjack opens lazily
	if _, err := fmt.Fprintf(logger, "%s [DEBUG] log opened (pid %d)\n", stamp(), os.Getpid()); err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.file != nil {
		_ = state.file.Close()
	}
	state.file = logger
	state.out = logger
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open
func CloseDebugLog() error {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.file == nil {
		return nil
	}
	err := state.file.Close()
	state.file = nil
	state.out = nil
	return err
}

// IsDebugEnabled reports whether Log calls produce output
func IsDebugEnabled() bool {
	state.mu.Lock()
	toFile, mcp, on := state.file != nil, state.mcpMode, state.enabled
	state.mu.Unlock()

	if mcp && !toFile {
		return false
	}
	if EnableDebug == "true" || on {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

// writer returns the configured output and whether lines should be stamped
func writer() (io.Writer, bool) {
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.out, state.file != nil
}

func stamp() string {
	return time.Now().Format("15:04:05.000")
}

// Log writes one component-tagged line. format should end in a newline.
func Log(component, format string, args ...any) {
	if !IsDebugEnabled() {
		return
	}
	w, toFile := writer()
	if w == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if toFile {
		fmt.Fprintf(w, "%s [DEBUG:%s] %s", stamp(), component, msg)
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] %s", component, msg)
}

// LogAnalysis logs file scheduling and rule evaluation
func LogAnalysis(format string, args ...any) { Log(ComponentAnalysis, format, args...) }

// LogWalker logs value-flow walks
func LogWalker(format string, args ...any) { Log(ComponentWalker, format, args...) }

// LogIndexing logs file discovery and watching
func LogIndexing(format string, args ...any) { Log(ComponentIndexing, format, args...) }

// LogConfig logs configuration loading
func LogConfig(format string, args ...any) { Log(ComponentConfig, format, args...) }

// LogMCP logs MCP tool calls
func LogMCP(format string, args ...any) { Log(ComponentMCP, format, args...) }

// Fatal records a fatal error in the debug output and returns it for the
// caller to handle. Nothing is written to stdio in MCP mode.
func Fatal(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if w, toFile := writer(); w != nil && (toFile || !MCPMode()) {
		fmt.Fprintf(w, "[FATAL] %s", msg)
	}
	return fmt.Errorf("fatal error: %s", msg)
}
