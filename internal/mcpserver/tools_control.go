package mcpserver

import (
	"context"
	"strings"

	"ai-arena/internal/arena"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerControlTools() {
	lifecycle := []struct {
		name string
		desc string
		fn   func(ctx context.Context, id string) (arena.Snapshot, error)
	}{
		{"start_session", "Move a waiting session to active and start its turn loop.", s.eng.StartSession},
		{"pause_session", "Pause an active session; in-flight decisions are discarded.", s.eng.PauseSession},
		{"resume_session", "Resume a paused session.", s.eng.ResumeSession},
		{"signal_ready", "Tell the session its clients are ready so the first turn can run.", s.eng.SignalReady},
	}
	for _, tool := range lifecycle {
		s.mcpServer.AddTool(
			mcp.NewTool(tool.name, mcp.WithDescription(tool.desc), mcp.WithString("session_id", mcp.Required())),
			sessionTool(tool.fn),
		)
	}

	s.mcpServer.AddTool(
		mcp.NewTool(
			"set_speed",
			mcp.WithDescription("Set the pause between decisions."),
			mcp.WithString("session_id", mcp.Required()),
			mcp.WithString("speed", mcp.Required(), mcp.Enum(string(arena.SpeedFast), string(arena.SpeedNormal), string(arena.SpeedThinking))),
		),
		s.handleSetSpeed,
	)
}

func (s *Server) handleSetSpeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return invalidRequest(err.Error()), nil
	}
	raw, err := request.RequireString("speed")
	if err != nil {
		return invalidRequest(err.Error()), nil
	}
	speed, err := arena.ParseSpeed(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return snapshotResult(arena.Snapshot{}, err)
	}
	return snapshotResult(s.eng.SetSpeed(ctx, id, speed))
}
