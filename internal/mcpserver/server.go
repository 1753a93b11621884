package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ai-arena/internal/arena"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes the session commands as MCP tools over streamable HTTP.
type Server struct {
	eng *arena.Engine

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(eng *arena.Engine) *Server {
	mcpSrv := server.NewMCPServer(
		"ai-arena",
		"0.1.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		eng:        eng,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerSessionTools()
	s.registerControlTools()
	s.registerSpectatorTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"session://{session_id}/state",
			"session_state",
			mcp.WithTemplateDescription("Public snapshot of a session by id"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			raw := request.Params.URI
			if !strings.HasPrefix(raw, "session://") || !strings.HasSuffix(raw, "/state") {
				return nil, fmt.Errorf("unsupported resource %q", raw)
			}
			id := strings.TrimSuffix(strings.TrimPrefix(raw, "session://"), "/state")
			snap, err := s.eng.GetSession(ctx, id)
			if err != nil {
				return nil, err
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{
				mcp.TextResourceContents{
					URI:      raw,
					MIMEType: "application/json",
					Text:     string(payload),
				},
			}, nil
		},
	)
}

// decodeArg re-encodes a structured tool argument into out.
func decodeArg(request mcp.CallToolRequest, key string, out any) (bool, error) {
	v, ok := request.GetArguments()[key]
	if !ok || v == nil {
		return false, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return true, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return true, fmt.Errorf("%s: %w", key, err)
	}
	return true, nil
}
