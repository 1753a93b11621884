package mcpserver

import (
	"context"
	"fmt"

	"ai-arena/internal/arena"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

// toolError uses the error codes the HTTP API returns.
func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{"error": map[string]any{"code": code, "message": message}},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func invalidRequest(message string) *mcp.CallToolResult {
	return toolError("invalid_request", message)
}

// snapshotResult turns an engine call's return values into a tool result.
func snapshotResult(snap arena.Snapshot, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		_, code := arena.MapError(err)
		return toolError(code, err.Error()), nil
	}
	return toolResult(snap), nil
}

// sessionTool adapts an engine command that only needs the session id.
func sessionTool(fn func(ctx context.Context, id string) (arena.Snapshot, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil {
			return invalidRequest(err.Error()), nil
		}
		return snapshotResult(fn(ctx, id))
	}
}
