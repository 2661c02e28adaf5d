package mcp

import (
	"context"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"evolens/internal/engine"
)

// Server exposes the engine as MCP tools. The engine is single threaded, so
// every handler holds mu for the whole call.
type Server struct {
	mu     sync.Mutex
	engine *engine.Engine
	mcp    *sdk.Server
}

func NewServer(eng *engine.Engine, version string) *Server {
	s := &Server{
		engine: eng,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "evolens",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
