package mcpserver

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/nerrad567/xgparam-core/internal/snapshot"
	"github.com/nerrad567/xgparam-core/internal/xgparam"
)

// DefaultName is the server name reported to MCP clients.
const DefaultName = "xgparam"

// Logger is the logging interface used by the server.
type Logger interface {
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Server.
type Options struct {
	Name    string
	Version string
	Logger  Logger

	// ErrorLog receives transport errors. Nil discards them.
	ErrorLog *log.Logger
}

// Server holds the registry tools.
type Server struct {
	reg       *xgparam.Registry
	snapshots snapshot.Repository
	mcp       *server.MCPServer
	logger    Logger
	errorLog  *log.Logger
}

// New creates a server with every tool registered.
//
// Parameters:
//   - reg: the registry the tools read and edit
//   - snaps: snapshot storage for the save and load tools
//   - opts: name, version and logging
//
// Returns:
//   - *Server: ready to Serve
//   - error: if a required dependency is missing
func New(reg *xgparam.Registry, snaps snapshot.Repository, opts Options) (*Server, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if snaps == nil {
		return nil, fmt.Errorf("snapshot repository is required")
	}
	name := opts.Name
	if name == "" {
		name = DefaultName
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	errorLog := opts.ErrorLog
	if errorLog == nil {
		errorLog = log.New(io.Discard, "", 0)
	}

	s := &Server{
		reg:       reg,
		snapshots: snaps,
		mcp:       server.NewMCPServer(name, opts.Version, server.WithToolCapabilities(false)),
		logger:    logger,
		errorLog:  errorLog,
	}
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve runs the stdio transport on in and out until ctx is cancelled or
// in reaches EOF.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(s.errorLog)

	s.logger.Info("mcp server listening on stdio")
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}
