// Package mcpserver serves a toolbox over the Model Context Protocol, either
// on standard input/output or as a server-sent-event stream over HTTP.
package mcpserver

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/chats/content"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg/tools", "mcpserver")

const shutdownTimeout = 5 * time.Second

// MCPServer serves tools over MCP using the official MCP Go SDK.
type MCPServer struct {
	name   string
	server *mcp.Server
	tools  *toolbox.ToolBox
}

// New creates a new MCPServer with the given name and version.
func New(name, version string) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &MCPServer{
		name:   name,
		server: server,
		tools:  toolbox.New(),
	}
}

// Register validates and adds tools to the server.
func (s *MCPServer) Register(tools ...toolbox.Tool) error {
	for _, t := range tools {
		if err := t.Validate(); err != nil {
			return err
		}
	}

	s.tools.Register(tools...)
	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), s.handle)
	}

	return nil
}

// ServeStdio serves MCP requests on the process's standard input and output.
// It blocks until ctx is cancelled or the peer closes the stream.
func (s *MCPServer) ServeStdio(ctx context.Context) error {
	logger.KV(xlog.INFO, "status", "serving", "server", s.name, "transport", "stdio", "tools", s.tools.Len())
	return s.Run(ctx, &mcp.StdioTransport{})
}

// Serve reads requests from in and writes responses to out. It blocks until
// ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.Run(ctx, transport)
}

// SSEHandler returns an HTTP handler that speaks the MCP server-sent-event
// transport. GET opens the event stream; POST delivers client messages.
func (s *MCPServer) SSEHandler() http.Handler {
	return mcp.NewSSEHandler(func(*http.Request) *mcp.Server { return s.server }, nil)
}

// ListenAndServeSSE mounts SSEHandler at path and serves HTTP on addr until
// ctx is cancelled.
func (s *MCPServer) ListenAndServeSSE(ctx context.Context, addr, path string) error {
	mux := http.NewServeMux()
	mux.Handle(path, s.SSEHandler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.KV(xlog.INFO, "status", "serving", "server", s.name, "transport", "sse", "addr", addr, "path", path, "tools", s.tools.Len())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "mcpserver: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Event streams stay open until the client leaves, so a graceful shutdown
	// may not finish in time.
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.KV(xlog.WARNING, "status", "forced_shutdown", "server", s.name, "err", err.Error())
		return srv.Close()
	}

	return nil
}

// Run serves on an arbitrary transport, such as one half of
// mcp.NewInMemoryTransports.
func (s *MCPServer) Run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// handle routes an SDK tool call through the toolbox so every call yields a
// result. Handler failures become IsError results instead of protocol errors.
func (s *MCPServer) handle(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.Params.Arguments
	if len(args) == 0 {
		args = []byte("{}")
	}

	result := s.tools.Call(ctx, content.ToolCall{
		Name:      req.Params.Name,
		Arguments: string(args),
	})

	if result.IsError {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_failed",
			"tool", req.Params.Name,
			"err", result.Content)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: result.Content}},
		IsError: result.IsError,
	}, nil
}

func toSDKTool(t toolbox.Tool) *mcp.Tool {
	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
