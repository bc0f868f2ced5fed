package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	dferrors "github.com/standardbeagle/disposeflow/internal/errors"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data any) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createTextResponse wraps preformatted text
func createTextResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// createErrorResponse reports a tool failure inside the result with IsError
// set, so the client model sees the error and can correct its call.
// Query errors carry their symbol suggestions.
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	errorData := map[string]any{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	var qerr *dferrors.QueryError
	if errors.As(err, &qerr) && len(qerr.Suggestions) > 0 {
		errorData["suggestions"] = qerr.Suggestions
	}
	if help := getOperationHelp(operation); help != "" {
		errorData["help"] = help
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

func getOperationHelp(operation string) string {
	switch operation {
	case "check_disposal":
		return `{"paths": ["src/Services"], "min_severity": "warning"}`
	case "assigned_values":
		return `{"symbol": "Foo.stream"} or {"symbol": "local", "at": "src/Foo.cs:42"}`
	case "return_values":
		return `{"method": "Foo.Create"}`
	}
	return ""
}

// withWarnings adds a "warnings" field to a JSON object response
func withWarnings(data map[string]any, fields []UnknownField) map[string]any {
	if len(fields) > 0 {
		data["warnings"] = warningMessages(fields)
	}
	return data
}
