// Package middleware provides composable middleware for agents.Agent.
// Each middleware wraps an Agent's Run method, and the wrapped value is itself
// an Agent, so middleware composes via Chain or Apply.
//
// If the inner agent implements agents.Named, every wrapper reports the same
// AgentName.
package middleware

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/agents"
	"github.com/germanamz/toolmesh/pkg/chats/message"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg/agents", "middleware")

// ErrPanic marks the error Recovery returns for a panicking agent.
var ErrPanic = errors.New("agent panicked")

// Middleware wraps an Agent, returning a new Agent with added behaviour.
type Middleware func(next agents.Agent) agents.Agent

// Chain composes multiple middleware into a single Middleware.
// The first middleware in the list is the outermost (runs first).
func Chain(mws ...Middleware) Middleware {
	return func(next agents.Agent) agents.Agent {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Apply wraps an agent with the given middleware. The first middleware
// in the list is the outermost (runs first).
func Apply(agent agents.Agent, mws ...Middleware) agents.Agent {
	return Chain(mws...)(agent)
}

// named delegates AgentName to the wrapped agent.
type named struct {
	next agents.Agent
}

func (n *named) AgentName() string {
	if na, ok := n.next.(agents.Named); ok {
		return na.AgentName()
	}
	return ""
}

// --- Timeout middleware ---

type timeoutAgent struct {
	named
	timeout time.Duration
}

func (a *timeoutAgent) Run(ctx context.Context) (message.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	return a.next.Run(ctx)
}

// Timeout returns a Middleware that wraps the agent's context with a deadline.
func Timeout(d time.Duration) Middleware {
	return func(next agents.Agent) agents.Agent {
		return &timeoutAgent{named: named{next: next}, timeout: d}
	}
}

// --- Recovery middleware ---

type recoveryAgent struct {
	named
}

func (a *recoveryAgent) Run(ctx context.Context) (msg message.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg = message.Message{}
			err = errors.Wrapf(ErrPanic, "%s: %v", a.AgentName(), r)
		}
	}()

	return a.next.Run(ctx)
}

// Recovery returns a Middleware that catches panics in the agent, including
// panics raised by its completer or tool handlers, and returns them as errors
// matching ErrPanic.
func Recovery() Middleware {
	return func(next agents.Agent) agents.Agent {
		return &recoveryAgent{named: named{next: next}}
	}
}

// --- Logger middleware ---

type loggerAgent struct {
	named
}

func (a *loggerAgent) Run(ctx context.Context) (message.Message, error) {
	name := a.AgentName()
	logger.ContextKV(ctx, xlog.DEBUG, "status", "agent_started", "agent", name)

	start := time.Now()
	msg, err := a.next.Run(ctx)
	duration := time.Since(start)

	if err != nil {
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "agent_failed",
			"agent", name,
			"duration", duration,
			"err", err.Error())
	} else {
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "agent_finished",
			"agent", name,
			"duration", duration)
	}

	return msg, err
}

// Logger returns a Middleware that logs agent start, duration and error.
func Logger() Middleware {
	return func(next agents.Agent) agents.Agent {
		return &loggerAgent{named: named{next: next}}
	}
}
