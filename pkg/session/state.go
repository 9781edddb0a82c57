package session

// State is a step of the session state machine.
type State string

const (
	StateIdle                State = "idle"
	StateProbingAvailability State = "probing_availability"
	StateUnavailable         State = "unavailable"
	StateConnectingTools     State = "connecting_tools"
	StateReasoning           State = "reasoning"
	StateCompleted           State = "completed"
	StateTimedOut            State = "timed_out"
	StateFailed              State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateUnavailable, StateCompleted, StateTimedOut, StateFailed:
		return true
	}
	return false
}

func (s State) String() string { return string(s) }
