// Package react implements the ReAct (Reason + Act) loop: completion and
// tool execution alternate until the model answers without tool calls.
package react

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/germanamz/toolmesh/pkg/agents"
	"github.com/germanamz/toolmesh/pkg/chats/message"
)

var _ agents.Agent = (*Agent)(nil)

// ErrMaxIterations is returned when the loop exceeds MaxIterations without a
// final answer.
var ErrMaxIterations = errors.New("react: max iterations reached")

// DefaultMaxIterations bounds a loop whose Options leave the limit unset.
const DefaultMaxIterations = 10

// Options configures the loop.
type Options struct {
	// MaxIterations limits reason-act cycles. Zero selects
	// DefaultMaxIterations and a negative value removes the limit.
	MaxIterations int
}

func (o Options) limit() int {
	if o.MaxIterations == 0 {
		return DefaultMaxIterations
	}
	return o.MaxIterations
}

// Agent runs the ReAct loop over an embedded agents.Base.
type Agent struct {
	agents.Base
	Options Options
}

// New creates an Agent.
func New(base agents.Base, opts Options) *Agent {
	return &Agent{Base: base, Options: opts}
}

// Run alternates Complete and CallTools until a reply carries no tool calls
// and returns that reply. Tool calls within one reply run sequentially.
func (a *Agent) Run(ctx context.Context) (message.Message, error) {
	limit := a.Options.limit()

	for i := 0; limit < 0 || i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return message.Message{}, err
		}

		reply, err := a.Complete(ctx)
		if err != nil {
			return message.Message{}, err
		}

		if len(reply.ToolCalls()) == 0 {
			return reply, nil
		}

		a.CallTools(ctx, reply)
	}

	return message.Message{}, errors.Wrapf(ErrMaxIterations, "after %d iterations", limit)
}
