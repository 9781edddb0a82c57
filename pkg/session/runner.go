package session

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/agents"
	"github.com/germanamz/toolmesh/pkg/agents/middleware"
	"github.com/germanamz/toolmesh/pkg/agents/react"
	"github.com/germanamz/toolmesh/pkg/chats/chat"
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/chats/role"
	"github.com/germanamz/toolmesh/pkg/modeladapter"
	"github.com/germanamz/toolmesh/pkg/tools/mcpclient"
	"github.com/germanamz/toolmesh/pkg/tools/toolbox"
	"github.com/google/uuid"
)

var logger = xlog.NewPackageLogger("github.com/germanamz/toolmesh/pkg", "session")

// Defaults applied to zero-valued Runner fields.
const (
	DefaultProbeTimeout = 5 * time.Second
	DefaultTimeout      = 60 * time.Second
	DefaultPace         = time.Second
	agentName           = "assistant"
)

// Outcome is the result of one session. Answer always holds text to show the
// user; Err is non-nil unless State is StateCompleted.
type Outcome struct {
	ID       string
	Question string
	State    State
	Answer   string
	Err      error
}

// Runner executes sessions. Fields are read-only once Ask is called, so a
// Runner may serve concurrent sessions.
type Runner struct {
	Prober       Prober
	ProbeTimeout time.Duration
	Dialers      []Dialer
	Completer    modeladapter.Completer
	SystemPrompt string
	// Timeout bounds the reasoning loop of one session.
	Timeout       time.Duration
	MaxIterations int
	// Pace is the pause between sessions in AskAll. Negative disables it.
	Pace   time.Duration
	Events *EventBus
}

// Ask runs one session for question. Every connection opened for the session
// is closed before Ask returns.
func (r *Runner) Ask(ctx context.Context, question string) Outcome {
	out := Outcome{ID: uuid.NewString(), Question: question}
	logger.ContextKV(ctx, xlog.DEBUG, "session", out.ID, "question", question)

	r.enter(&out, StateIdle)
	r.enter(&out, StateProbingAvailability)

	if err := r.probe(ctx); err != nil {
		return r.finish(ctx, out, "", classify(err, ErrUnavailable))
	}

	r.enter(&out, StateConnectingTools)

	clients, err := r.connect(ctx)
	defer closeAll(clients)
	if err != nil {
		return r.finish(ctx, out, "", classify(err, ErrFailed))
	}

	boxes := make([]*toolbox.ToolBox, 0, len(clients))
	names := []string{}
	for _, c := range clients {
		tb, err := c.ToolBox(ctx)
		if err != nil {
			return r.finish(ctx, out, "", classify(err, ErrFailed))
		}
		boxes = append(boxes, tb)
		for _, t := range tb.Tools() {
			names = append(names, t.Name)
		}
	}
	r.publish(out, EventToolsListed, names)

	r.enter(&out, StateReasoning)

	answer, err := r.reason(ctx, question, boxes)
	return r.finish(ctx, out, answer, err)
}

// AskAll runs questions one after another, pausing Pace between sessions.
// It stops early when ctx is cancelled, returning the outcomes so far.
func (r *Runner) AskAll(ctx context.Context, questions []string) []Outcome {
	outcomes := make([]Outcome, 0, len(questions))

	for i, q := range questions {
		if i > 0 && r.pace() > 0 {
			select {
			case <-ctx.Done():
				return outcomes
			case <-time.After(r.pace()):
			}
		}
		outcomes = append(outcomes, r.Ask(ctx, q))
	}

	return outcomes
}

func (r *Runner) probe(ctx context.Context) error {
	if r.Prober == nil {
		return errors.New("no model service probe configured")
	}

	timeout := r.ProbeTimeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return r.Prober.Ping(pctx)
}

// connect dials every tool service. On error the clients connected so far are
// still returned so the caller can close them.
func (r *Runner) connect(ctx context.Context) ([]*mcpclient.MCPClient, error) {
	clients := make([]*mcpclient.MCPClient, 0, len(r.Dialers))

	for _, d := range r.Dialers {
		c, err := d.Dial(ctx)
		if err != nil {
			return clients, err
		}
		clients = append(clients, c)
	}

	return clients, nil
}

type result struct {
	answer string
	err    error
}

// reason runs a fresh ReAct agent in its own goroutine, wrapped so that a
// panic becomes an error and the agent's context carries the deadline. When
// the deadline expires first the goroutine is abandoned and its output
// discarded.
func (r *Runner) reason(ctx context.Context, question string, boxes []*toolbox.ToolBox) (string, error) {
	if r.Completer == nil {
		return "", classify(errors.New("no completer configured"), ErrFailed)
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := chat.New()
	if r.SystemPrompt != "" {
		c.Append(message.NewText("", role.System, r.SystemPrompt))
	}
	c.Append(message.NewText("user", role.User, question))

	agent := middleware.Apply(
		react.New(
			agents.NewBase(agentName, r.Completer, c, boxes...),
			react.Options{MaxIterations: r.MaxIterations},
		),
		middleware.Recovery(),
		middleware.Logger(),
		middleware.Timeout(timeout),
	)

	start := time.Now()
	done := make(chan result, 1)
	go func() {
		if _, err := agent.Run(ctx); err != nil {
			done <- result{err: err}
			return
		}
		answer, ok := c.Answer()
		if !ok {
			done <- result{err: errors.New("agent stopped without an answer")}
			return
		}
		done <- result{answer: answer}
	}()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, context.DeadlineExceeded) || time.Since(start) >= timeout {
				return "", classify(errors.Wrapf(res.err, "no answer within %s", timeout), ErrTimeout)
			}
			return "", classify(res.err, ErrFailed)
		}
		return res.answer, nil
	case <-deadline.C:
		return "", classify(errors.Errorf("no answer within %s", timeout), ErrTimeout)
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", classify(errors.Wrap(ctx.Err(), "caller deadline"), ErrTimeout)
		}
		return "", classify(ctx.Err(), ErrFailed)
	}
}

func (r *Runner) finish(ctx context.Context, out Outcome, answer string, err error) Outcome {
	out.Err = err

	if err != nil {
		out.Answer = Message(err)
		logger.ContextKV(ctx, xlog.ERROR, "session", out.ID, "state", stateFor(err), "err", err.Error())
		logger.ContextKV(ctx, xlog.DEBUG, "session", out.ID, "detail", fmt.Sprintf("%+v", err))
	} else {
		out.Answer = answer
		logger.ContextKV(ctx, xlog.DEBUG, "session", out.ID, "answer", answer)
	}

	r.enter(&out, stateFor(err))
	r.publish(out, EventAnswerReady, out.Answer)

	return out
}

func (r *Runner) enter(out *Outcome, s State) {
	out.State = s
	r.publish(*out, EventStateChanged, nil)
}

func (r *Runner) publish(out Outcome, kind EventKind, data any) {
	r.Events.Publish(Event{
		Kind:      kind,
		SessionID: out.ID,
		State:     out.State,
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (r *Runner) pace() time.Duration {
	if r.Pace == 0 {
		return DefaultPace
	}
	return r.Pace
}

func closeAll(clients []*mcpclient.MCPClient) {
	for _, c := range clients {
		if err := c.Close(); err != nil {
			logger.KV(xlog.DEBUG, "status", "close", "server", c.Name(), "err", err)
		}
	}
}
