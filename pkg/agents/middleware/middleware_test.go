package middleware

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/germanamz/toolmesh/pkg/agents"
	"github.com/germanamz/toolmesh/pkg/chats/message"
	"github.com/germanamz/toolmesh/pkg/chats/role"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- test helpers ---

type stubAgent struct {
	msg message.Message
	err error
}

func (s *stubAgent) Run(_ context.Context) (message.Message, error) {
	return s.msg, s.err
}

type namedStubAgent struct {
	stubAgent
	name string
}

func (n *namedStubAgent) AgentName() string { return n.name }

type panicAgent struct{}

func (p *panicAgent) Run(_ context.Context) (message.Message, error) {
	var m map[string]int
	m["boom"] = 1
	return message.Message{}, nil
}

type slowAgent struct {
	delay time.Duration
}

func (s *slowAgent) Run(ctx context.Context) (message.Message, error) {
	select {
	case <-time.After(s.delay):
		return message.NewText("bot", role.Assistant, "done"), nil
	case <-ctx.Done():
		return message.Message{}, ctx.Err()
	}
}

type orderTracker struct {
	order []string
}

func (o *orderTracker) middleware(name string) Middleware {
	return func(next agents.Agent) agents.Agent {
		return &orderAgent{named: named{next: next}, tracker: o, name: name}
	}
}

type orderAgent struct {
	named
	tracker *orderTracker
	name    string
}

func (o *orderAgent) Run(ctx context.Context) (message.Message, error) {
	o.tracker.order = append(o.tracker.order, o.name+":before")
	msg, err := o.next.Run(ctx)
	o.tracker.order = append(o.tracker.order, o.name+":after")
	return msg, err
}

var (
	_ agents.Agent = (*stubAgent)(nil)
	_ agents.Named = (*namedStubAgent)(nil)
)

// --- Timeout tests ---

func TestTimeout(t *testing.T) {
	inner := &stubAgent{msg: message.NewText("bot", role.Assistant, "done")}

	msg, err := Timeout(time.Second)(inner).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "done", msg.TextContent())
}

func TestTimeoutExpires(t *testing.T) {
	wrapped := Timeout(20 * time.Millisecond)(&slowAgent{delay: time.Second})

	_, err := wrapped.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- Recovery tests ---

func TestRecovery(t *testing.T) {
	inner := &stubAgent{msg: message.NewText("bot", role.Assistant, "ok")}

	msg, err := Recovery()(inner).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "ok", msg.TextContent())
}

func TestRecoveryCatchesPanic(t *testing.T) {
	msg, err := Recovery()(&panicAgent{}).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPanic))
	assert.Contains(t, err.Error(), "assignment to entry in nil map")
	assert.Equal(t, message.Message{}, msg)
}

func TestRecoveryPassesErrors(t *testing.T) {
	inner := &stubAgent{err: errors.New("boom")}

	_, err := Recovery()(inner).Run(context.Background())

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrPanic))
	assert.Equal(t, "boom", err.Error())
}

// --- Logger tests ---

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	prev := xlog.GetFormatter()
	xlog.SetFormatter(xlog.NewStringFormatter(&buf))
	xlog.SetGlobalLogLevel(xlog.DEBUG)
	t.Cleanup(func() {
		xlog.SetFormatter(prev)
		xlog.SetGlobalLogLevel(xlog.INFO)
	})

	return &buf
}

func TestLogger(t *testing.T) {
	buf := captureLogs(t)

	inner := &namedStubAgent{
		stubAgent: stubAgent{msg: message.NewText("bot", role.Assistant, "reply")},
		name:      "test-agent",
	}

	msg, err := Logger()(inner).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "reply", msg.TextContent())

	output := buf.String()
	assert.Contains(t, output, "agent_started")
	assert.Contains(t, output, "agent_finished")
	assert.Contains(t, output, "test-agent")
}

func TestLoggerWithError(t *testing.T) {
	buf := captureLogs(t)

	_, err := Logger()(&stubAgent{err: errors.New("boom")}).Run(context.Background())

	require.Error(t, err)
	output := buf.String()
	assert.Contains(t, output, "agent_failed")
	assert.Contains(t, output, "boom")
}

// --- Chain / Apply tests ---

func TestChainOrder(t *testing.T) {
	tracker := &orderTracker{}
	inner := &stubAgent{msg: message.NewText("bot", role.Assistant, "done")}

	wrapped := Chain(
		tracker.middleware("A"),
		tracker.middleware("B"),
		tracker.middleware("C"),
	)(inner)

	_, err := wrapped.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"A:before", "B:before", "C:before",
		"C:after", "B:after", "A:after",
	}, tracker.order)
}

func TestApply(t *testing.T) {
	tracker := &orderTracker{}
	inner := &stubAgent{msg: message.NewText("bot", role.Assistant, "done")}

	wrapped := Apply(inner, tracker.middleware("first"), tracker.middleware("second"))

	_, err := wrapped.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"first:before", "second:before",
		"second:after", "first:after",
	}, tracker.order)
}

func TestChainEmpty(t *testing.T) {
	inner := &stubAgent{msg: message.NewText("bot", role.Assistant, "unchanged")}

	msg, err := Chain()(inner).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "unchanged", msg.TextContent())
}

// --- Named preservation ---

func TestNamePreservedThroughMiddleware(t *testing.T) {
	inner := &namedStubAgent{name: "my-agent"}

	wrapped := Apply(inner, Logger(), Recovery(), Timeout(time.Second))

	na, ok := wrapped.(agents.Named)
	require.True(t, ok)
	assert.Equal(t, "my-agent", na.AgentName())
}

func TestNameEmptyOnPlainAgent(t *testing.T) {
	wrapped := Timeout(time.Second)(&stubAgent{})

	na, ok := wrapped.(agents.Named)
	require.True(t, ok)
	assert.Empty(t, na.AgentName())
}

func TestRecoveryOutermostCatchesPanicUnderTimeout(t *testing.T) {
	wrapped := Apply(&panicAgent{}, Recovery(), Logger(), Timeout(time.Second))

	_, err := wrapped.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPanic))
}
