package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/disposeflow/internal/config"
	"github.com/standardbeagle/disposeflow/internal/version"
)

const readerSource = `using System.IO;

public class Reader
{
    public string Read(string path)
    {
        var stream = File.OpenRead(path);
        return path;
    }
}
`

const factorySource = `using System.IO;

public class Factory
{
    private Stream current;

    public Stream Create(bool memory)
    {
        if (memory)
        {
            return new MemoryStream();
        }
        return File.OpenRead("a");
    }

    public void Swap(Stream next)
    {
        this.current = next;
    }
}
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"src/Reader.cs":  readerSource,
		"src/Factory.cs": factorySource,
	} {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	cfg := config.Default(root)
	cfg.Analysis.RespectGitignore = false
	require.NoError(t, config.ValidateConfig(cfg))

	s, err := NewServer(cfg)
	require.NoError(t, err)
	return s
}

func call(t *testing.T, handler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error), args string) (*mcp.CallToolResult, map[string]any) {
	t.Helper()
	req := &mcp.CallToolRequest{Params: &mcp.CallToolParamsRaw{Arguments: json.RawMessage(args)}}
	result, err := handler(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Content, 1)
	text := result.Content[0].(*mcp.TextContent).Text

	var data map[string]any
	if json.Unmarshal([]byte(text), &data) != nil {
		data = map[string]any{"text": text}
	}
	return result, data
}

func TestNewServerRequiresConfig(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)
}

func TestCheckDisposal(t *testing.T) {
	s := newTestServer(t)

	result, data := call(t, s.handleCheckDisposal, `{}`)
	assert.False(t, result.IsError)
	assert.Equal(t, float64(2), data["files"])
	diags := data["diagnostics"].([]any)
	require.Len(t, diags, 1)
	d := diags[0].(map[string]any)
	assert.Equal(t, "IDISP001", d["rule"])
	assert.Equal(t, "src/Reader.cs", d["location"].(map[string]any)["path"])
	assert.Contains(t, data["summary"], "1 warning")
}

func TestCheckDisposalPathsAndFilters(t *testing.T) {
	s := newTestServer(t)

	_, data := call(t, s.handleCheckDisposal, `{"path": "src/Factory.cs"}`)
	assert.Equal(t, float64(1), data["files"])
	assert.Empty(t, data["diagnostics"])

	_, data = call(t, s.handleCheckDisposal, `{"min_severity": "error", "colour": "blue"}`)
	assert.Empty(t, data["diagnostics"])
	assert.Equal(t, []any{`unknown parameter "colour" ignored`}, data["warnings"])

	_, data = call(t, s.handleCheckDisposal, `{"format": "compact"}`)
	assert.Contains(t, data["text"], "src/Reader.cs:7:")
	assert.Contains(t, data["text"], "IDISP001")

	result, data := call(t, s.handleCheckDisposal, `{"min_severity": "loud"}`)
	assert.True(t, result.IsError)
	assert.Contains(t, data["error"], "unknown severity")
}

func TestReturnValues(t *testing.T) {
	s := newTestServer(t)

	result, data := call(t, s.handleReturnValues, `{"method": "Factory.Create"}`)
	require.False(t, result.IsError, "%v", data)
	assert.Equal(t, "return", data["kind"])
	values := data["values"].([]any)
	require.Len(t, values, 2)
	first := values[0].(map[string]any)
	assert.Equal(t, "new MemoryStream()", first["expr"])
	assert.Equal(t, "src/Factory.cs", first["location"].(map[string]any)["path"])

	result, data = call(t, s.handleReturnValues, `{"method": "Factory.Craete"}`)
	assert.True(t, result.IsError)
	assert.Contains(t, data["suggestions"], "Factory.Create")

	result, data = call(t, s.handleReturnValues, `{}`)
	assert.True(t, result.IsError)
	assert.Equal(t, "method is required", data["error"])
}

func TestAssignedValues(t *testing.T) {
	s := newTestServer(t)

	result, data := call(t, s.handleAssignedValues, `{"symbol": "Factory.current"}`)
	require.False(t, result.IsError, "%v", data)
	values := data["values"].([]any)
	require.Len(t, values, 1)
	assert.Equal(t, "next", values[0].(map[string]any)["expr"])

	result, _ = call(t, s.handleAssignedValues, `{"symbol": ""}`)
	assert.True(t, result.IsError)

	result, _ = call(t, s.handleAssignedValues, `not json`)
	assert.True(t, result.IsError)
}

func TestInfo(t *testing.T) {
	s := newTestServer(t)
	s.cfg.Rules.Disabled = []string{"idisp004"}

	_, data := call(t, s.handleInfo, `{}`)
	assert.Equal(t, "recursive", data["scope"])
	build := data["build"].(map[string]any)
	assert.Equal(t, version.Current().ID, build["id"])
	assert.NotEmpty(t, build["go_version"])
	assert.Equal(t, version.Current().String(), data["server_version"])
	rules := data["rules"].([]any)
	require.NotEmpty(t, rules)
	for _, r := range rules {
		rule := r.(map[string]any)
		assert.Equal(t, rule["id"] != "IDISP004", rule["enabled"], rule["id"])
	}
}

func TestServerOverInMemoryTransport(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.Connect(ctx, serverTransport)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	tools, err := session.ListTools(ctx, nil)
	require.NoError(t, err)
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"check_disposal", "assigned_values", "return_values", "info"}, names)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "return_values",
		Arguments: map[string]any{"method": "Factory.Create"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Content[0].(*mcp.TextContent).Text, "MemoryStream")

	require.NoError(t, session.Close())
	_ = serverSession.Wait()
}
