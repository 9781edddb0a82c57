// Package arith is the arithmetic tool service: integer addition and
// multiplication exposed as MCP tools.
package arith

import (
	"context"
	"strconv"

	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/tools/mcpserver"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg", "arith")

// ServerName is the MCP implementation name the service reports.
const ServerName = "Math"

// Add returns a + b with Go's wrap-around int64 semantics.
func Add(a, b int64) int64 {
	return a + b
}

// Multiply returns a * b with Go's wrap-around int64 semantics.
func Multiply(a, b int64) int64 {
	return a * b
}

type operands struct {
	A *int64 `json:"a" validate:"required"`
	B *int64 `json:"b" validate:"required"`
}

// Tools returns the validated registry of arithmetic tools.
func Tools() (*toolbox.ToolBox, error) {
	return toolbox.NewRegistry(
		toolbox.NewTool("add",
			"Add two numbers. The request should contain two numbers and output the sum.",
			func(ctx context.Context, in operands) (string, error) {
				logger.ContextKV(ctx, xlog.DEBUG, "tool", "add", "a", *in.A, "b", *in.B)
				return strconv.FormatInt(Add(*in.A, *in.B), 10), nil
			}),
		toolbox.NewTool("multiply",
			"Multiply two numbers",
			func(ctx context.Context, in operands) (string, error) {
				logger.ContextKV(ctx, xlog.DEBUG, "tool", "multiply", "a", *in.A, "b", *in.B)
				return strconv.FormatInt(Multiply(*in.A, *in.B), 10), nil
			}),
	)
}

// NewServer returns an MCP server exposing the arithmetic tools.
func NewServer(version string) (*mcpserver.MCPServer, error) {
	tb, err := Tools()
	if err != nil {
		return nil, err
	}

	s := mcpserver.New(ServerName, version)
	if err := s.Register(tb.Tools()...); err != nil {
		return nil, err
	}
	return s, nil
}
