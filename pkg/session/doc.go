// Package session runs one Agent Client question end to end: it probes the
// model service, connects every configured tool service, drives the ReAct
// loop under a single deadline and reduces the result to an Outcome whose
// Answer is either the model's text or one of the fixed fallback messages.
//
// Each transition of the session state machine
//
//	Idle → ProbingAvailability → Unavailable
//	                           → ConnectingTools → Reasoning → Completed | TimedOut | Failed
//
// is published on an optional EventBus.
package session
