package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSpectatorTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"add_spectator",
			mcp.WithDescription("Register a viewer; a paused session resumes when its first viewer arrives."),
			mcp.WithString("session_id", mcp.Required()),
			mcp.WithString("viewer_id", mcp.Required()),
		),
		s.handleAddSpectator,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"remove_spectator",
			mcp.WithDescription("Drop a viewer; the last one leaving pauses the session after a grace period."),
			mcp.WithString("session_id", mcp.Required()),
			mcp.WithString("viewer_id", mcp.Required()),
		),
		s.handleRemoveSpectator,
	)
}

func (s *Server) handleAddSpectator(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, viewer, errResp := sessionAndViewer(request)
	if errResp != nil {
		return errResp, nil
	}
	return snapshotResult(s.eng.AddSpectator(ctx, id, viewer))
}

func (s *Server) handleRemoveSpectator(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, viewer, errResp := sessionAndViewer(request)
	if errResp != nil {
		return errResp, nil
	}
	return snapshotResult(s.eng.RemoveSpectator(ctx, id, viewer))
}

func sessionAndViewer(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return "", "", invalidRequest(err.Error())
	}
	viewer, err := request.RequireString("viewer_id")
	if err != nil {
		return "", "", invalidRequest(err.Error())
	}
	return id, viewer, nil
}
