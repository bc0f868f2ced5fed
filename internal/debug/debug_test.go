package debug

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate resets the package state for one test and restores it afterwards
func isolate(t *testing.T) *bytes.Buffer {
	t.Helper()
	t.Setenv("DEBUG", "")

	state.mu.Lock()
	mcp, on, out, file := state.mcpMode, state.enabled, state.out, state.file
	state.mcpMode, state.enabled, state.out, state.file = false, false, nil, nil
	state.mu.Unlock()
	build := EnableDebug
	EnableDebug = "false"

	t.Cleanup(func() {
		_ = CloseDebugLog()
		state.mu.Lock()
		state.mcpMode, state.enabled, state.out, state.file = mcp, on, out, file
		state.mu.Unlock()
		EnableDebug = build
	})

	var buf bytes.Buffer
	SetDebugOutput(&buf)
	return &buf
}

func TestIsDebugEnabled(t *testing.T) {
	tests := []struct {
		name    string
		build   string
		env     string
		enabled bool
		mcp     bool
		want    bool
	}{
		{"off by default", "false", "", false, false, false},
		{"build flag", "true", "", false, false, true},
		{"unrecognised build flag", "yes", "", false, false, false},
		{"environment 1", "false", "1", false, false, true},
		{"environment true", "false", "true", false, false, true},
		{"runtime switch", "false", "", true, false, true},
		{"mcp mode without a log file", "true", "", true, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			EnableDebug = tt.build
			t.Setenv("DEBUG", tt.env)
			SetEnabled(tt.enabled)
			SetMCPMode(tt.mcp)
			assert.Equal(t, tt.want, IsDebugEnabled())
		})
	}
}

func TestLogComponents(t *testing.T) {
	tests := []struct {
		log    func(string, ...any)
		prefix string
	}{
		{LogAnalysis, "[DEBUG:ANALYSIS] "},
		{LogWalker, "[DEBUG:WALKER] "},
		{LogIndexing, "[DEBUG:INDEXING] "},
		{LogConfig, "[DEBUG:CONFIG] "},
		{LogMCP, "[DEBUG:MCP] "},
		{func(f string, a ...any) { Log(ComponentParser, f, a...) }, "[DEBUG:PARSER] "},
	}
	for _, tt := range tests {
		t.Run(strings.Trim(tt.prefix, "[] "), func(t *testing.T) {
			buf := isolate(t)
			SetEnabled(true)
			tt.log("assigned values of %s: %d\n", "Service.stream", 2)
			assert.Equal(t, tt.prefix+"assigned values of Service.stream: 2\n", buf.String())
		})
	}
}

func TestLogDisabledOrWithoutWriter(t *testing.T) {
	buf := isolate(t)
	LogWalker("dropped\n")
	assert.Empty(t, buf.String())

	SetEnabled(true)
	SetDebugOutput(nil)
	assert.NotPanics(t, func() {
		LogWalker("dropped\n")
		_ = Fatal("nowhere to write\n")
	})
}

func TestMCPMode(t *testing.T) {
	buf := isolate(t)
	SetEnabled(true)
	SetMCPMode(true)
	assert.True(t, MCPMode())

	LogMCP("must not reach stdio\n")
	assert.Empty(t, buf.String())

	SetMCPMode(false)
	assert.False(t, MCPMode())
}

func TestFatal(t *testing.T) {
	buf := isolate(t)

	err := Fatal("failed to load config: %s\n", "bad scope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fatal error: failed to load config: bad scope")
	assert.Equal(t, "[FATAL] failed to load config: bad scope\n", buf.String())

	buf.Reset()
	SetMCPMode(true)
	err = Fatal("failed to create MCP server\n")
	assert.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestConcurrentLogging(t *testing.T) {
	buf := isolate(t)
	SetEnabled(true)
	var safe lockedBuffer
	SetDebugOutput(&safe)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			LogWalker("walk %d\n", id)
			LogAnalysis("file %d\n", id)
		}(i)
	}
	wg.Wait()

	assert.Empty(t, buf.String())
	assert.Equal(t, 20, strings.Count(safe.String(), "\n"))
}

func TestInitDebugLogFile(t *testing.T) {
	isolate(t)

	logPath, err := InitDebugLogFileIn(t.TempDir())
	require.NoError(t, err)
	_, err = os.Stat(logPath)
	require.NoError(t, err, "the file exists before the first message")

	SetEnabled(true)
	LogAnalysis("checked %d files\n", 3)
	require.NoError(t, CloseDebugLog())
	assert.NoError(t, CloseDebugLog(), "closing twice is a no-op")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "log opened")
	assert.Regexp(t, `\d\d:\d\d:\d\d\.\d{3} \[DEBUG:ANALYSIS\] checked 3 files`, string(content))
}

func TestLogMCPModeToFile(t *testing.T) {
	isolate(t)

	logPath, err := InitDebugLogFileIn(t.TempDir())
	require.NoError(t, err)

	SetMCPMode(true)
	SetEnabled(true)
	assert.True(t, IsDebugEnabled())
	LogMCP("served %d tools\n", 4)
	_ = Fatal("server stopped: %v\n", fmt.Errorf("eof"))

	require.NoError(t, CloseDebugLog())
	assert.False(t, IsDebugEnabled(), "stdio stays quiet once the file is closed")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[DEBUG:MCP] served 4 tools")
	assert.Contains(t, string(content), "[FATAL] server stopped: eof")
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
