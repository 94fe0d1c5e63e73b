package mcp

import (
	"context"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/machinecraft-tech/vectorpenter/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Server registers the Vectorpenter tools on an MCP server and serves
// them over the chosen transport.
type Server struct {
	ports *Ports
	impl  *mcp.Server
}

// NewServer builds an MCP server around the given ports.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		ports: ports,
		impl: mcp.NewServer(&mcp.Implementation{
			Name:    "vectorpenter",
			Version: Version,
		}, nil),
	}
	s.registerTools()

	return s, nil
}

// Run serves over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.impl.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves over streamable HTTP until the context is cancelled,
// then shuts down gracefully.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return s.impl
		}, nil),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("MCP server listening on %s", addr)
	err := httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
