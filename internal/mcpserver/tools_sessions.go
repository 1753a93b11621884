package mcpserver

import (
	"context"
	"strings"

	"ai-arena/internal/arena"
	"ai-arena/internal/game"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_session",
			mcp.WithDescription("Create a game session in waiting status."),
			mcp.WithString("game_type", mcp.Required(), mcp.Enum(string(game.KindHoldem), string(game.KindConnect4), string(game.KindBattleship), string(game.KindWordGuess))),
			mcp.WithArray("players", mcp.Required(),
				mcp.Description("Seats in turn order: [{id, controller: ai|human, name}]"),
				mcp.Items(map[string]any{"type": "object"}),
			),
			mcp.WithString("session_id", mcp.Description("Optional id; generated when empty")),
			mcp.WithObject("options", mcp.Description("Game options such as starting_chips, rows, columns, target")),
			mcp.WithObject("initial_state", mcp.Description("Optional pre-built game state")),
		),
		s.handleCreateSession,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_session",
			mcp.WithDescription("Snapshot of one session, loaded from storage when needed."),
			mcp.WithString("session_id", mcp.Required()),
		),
		sessionTool(s.eng.GetSession),
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_sessions",
			mcp.WithDescription("Sessions held by this process, oldest first."),
			mcp.WithString("status", mcp.Description("waiting|active|paused|completed")),
			mcp.WithString("game_type", mcp.Description("Filter by game type")),
			mcp.WithNumber("limit", mcp.Description("Page size, default 50")),
			mcp.WithNumber("offset", mcp.Description("Page offset")),
		),
		s.handleListSessions,
	)
	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_action",
			mcp.WithDescription("Play a move for a human-controlled seat whose turn it is."),
			mcp.WithString("session_id", mcp.Required()),
			mcp.WithString("seat", mcp.Required()),
			mcp.WithObject("action", mcp.Required(), mcp.Description("{type, amount, row, column, text}")),
		),
		s.handleSubmitAction,
	)
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gameType, err := request.RequireString("game_type")
	if err != nil {
		return invalidRequest(err.Error()), nil
	}
	req := arena.CreateRequest{
		ID:       request.GetString("session_id", ""),
		GameType: game.Kind(strings.ToLower(strings.TrimSpace(gameType))),
	}
	if ok, err := decodeArg(request, "players", &req.Players); err != nil || !ok {
		return invalidRequest("players must be a list of seats"), nil
	}
	if _, err := decodeArg(request, "options", &req.Options); err != nil {
		return invalidRequest(err.Error()), nil
	}
	if _, err := decodeArg(request, "initial_state", &req.InitialState); err != nil {
		return invalidRequest(err.Error()), nil
	}
	return snapshotResult(s.eng.CreateSession(ctx, req))
}

func (s *Server) handleListSessions(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(s.eng.QuerySessions(arena.ListQuery{
		Status:   arena.Status(request.GetString("status", "")),
		GameType: game.Kind(request.GetString("game_type", "")),
		Limit:    request.GetInt("limit", arena.DefaultPageLimit),
		Offset:   request.GetInt("offset", 0),
	})), nil
}

func (s *Server) handleSubmitAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("session_id")
	if err != nil {
		return invalidRequest(err.Error()), nil
	}
	seat, err := request.RequireString("seat")
	if err != nil {
		return invalidRequest(err.Error()), nil
	}
	var act game.Action
	if ok, err := decodeArg(request, "action", &act); err != nil || !ok || act.Type == "" {
		return invalidRequest("action with a type is required"), nil
	}
	return snapshotResult(s.eng.SubmitAction(ctx, id, seat, act))
}
