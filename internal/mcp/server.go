// Package mcp exposes disposal checks and value queries as Model Context
// Protocol tools over stdio.
package mcp

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/disposeflow/internal/analysis"
	"github.com/standardbeagle/disposeflow/internal/config"
	dfdebug "github.com/standardbeagle/disposeflow/internal/debug"
	"github.com/standardbeagle/disposeflow/internal/indexing"
	"github.com/standardbeagle/disposeflow/internal/types"
	"github.com/standardbeagle/disposeflow/internal/version"
)

// Server owns one Runner for the configured project. Tool calls share its
// tree cache, so repeated queries only reparse edited files.
type Server struct {
	cfg     *config.Config
	scanner *indexing.FileScanner
	runner  *analysis.Runner
	server  *mcp.Server
	timeout time.Duration
}

// NewServer creates a server for a validated configuration
func NewServer(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("mcp server requires a configuration")
	}
	s := &Server{
		cfg:     cfg,
		scanner: indexing.NewFileScanner(cfg),
		runner:  analysis.NewRunner(analysis.OptionsFromConfig(cfg)),
		timeout: time.Duration(cfg.Performance.TimeoutSec) * time.Second,
	}
	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "disposeflow",
		Version: version.Current().Short(),
	}, nil)
	s.registerTools()
	dfdebug.LogMCP("server created for %s\n", cfg.Project.Root)
	return s, nil
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "check_disposal",
		Description: "Run the IDisposable rules (IDISP001-IDISP008) over C# files and report diagnostics with suggested fixes.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"paths": {
					Type:        "array",
					Description: "Files or directories relative to the project root. Empty checks the whole project.",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"min_severity": {
					Type:        "string",
					Description: "Drop diagnostics below this severity: hidden, info, warning, error",
					Enum:        []any{"hidden", "info", "warning", "error"},
				},
				"format": {
					Type:        "string",
					Description: "json (default) or compact, one line per diagnostic",
					Enum:        []any{"json", "compact"},
				},
			},
		},
	}, s.handleCheckDisposal)

	s.server.AddTool(&mcp.Tool{
		Name:        "assigned_values",
		Description: "List every expression that may be assigned to a field, property, local or parameter, following calls according to the configured scope.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"symbol": {
					Type:        "string",
					Description: "Type.member for fields and properties, or a local/parameter name together with 'at'",
				},
				"at": {
					Type:        "string",
					Description: "path:line of a statement; only assignments before it count",
				},
			},
			Required: []string{"symbol"},
		},
	}, s.handleAssignedValues)

	s.server.AddTool(&mcp.Tool{
		Name:        "return_values",
		Description: "List every expression a method or property getter may return, following calls according to the configured scope.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"method": {
					Type:        "string",
					Description: "Type.Method or Type.Property",
				},
			},
			Required: []string{"method"},
		},
	}, s.handleReturnValues)

	s.server.AddTool(&mcp.Tool{
		Name:        "info",
		Description: "Server version, configured scope and the list of disposal rules.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, s.handleInfo)
}

// analyse runs the project, or only paths when given
func (s *Server) analyse(ctx context.Context, paths []string) (*types.Report, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var files []string
	var err error
	if len(paths) == 0 {
		files, err = s.scanner.Scan(ctx)
	} else {
		files, err = s.scanner.ScanPaths(ctx, s.resolve(paths))
	}
	if err != nil {
		return nil, err
	}
	return s.runner.Run(ctx, files)
}

// snapshot analyses the whole project and returns its compilation
func (s *Server) snapshot(ctx context.Context) (*analysis.Snapshot, error) {
	if _, err := s.analyse(ctx, nil); err != nil {
		return nil, err
	}
	return s.runner.Last(), nil
}

// recoverFromPanic turns a panic inside a tool into an error result
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			dfdebug.LogMCP("PANIC RECOVERED in %s: %v\n%s\n", operation, r, debug.Stack())
			result, err = createErrorResponse(operation, fmt.Errorf("internal error: %v", r))
		}
	}()
	return handler()
}

// Start serves over stdio until ctx is cancelled or the client disconnects
func (s *Server) Start(ctx context.Context) error {
	dfdebug.LogMCP("starting MCP server with stdio transport\n")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves one session over transport
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, transport, nil)
}

// Runner exposes the shared runner, mostly for watch mode
func (s *Server) Runner() *analysis.Runner { return s.runner }
