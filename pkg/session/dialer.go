package session

import (
	"context"

	"github.com/germanamz/toolmesh/pkg/tools/mcpclient"
)

// Dialer opens a connection to one tool service. mcpclient.Endpoint
// implements it.
type Dialer interface {
	Dial(ctx context.Context) (*mcpclient.MCPClient, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context) (*mcpclient.MCPClient, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context) (*mcpclient.MCPClient, error) { return f(ctx) }

var _ Dialer = mcpclient.Endpoint{}
