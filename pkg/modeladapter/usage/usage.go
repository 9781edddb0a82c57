// Package usage accumulates token counts reported by model providers.
package usage

import "sync"

// TokenCount holds input and output token counts for a single LLM call.
type TokenCount struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (tc TokenCount) Total() int {
	return tc.InputTokens + tc.OutputTokens
}

// Tracker keeps running totals across LLM calls. The zero value is ready to
// use and it is safe for concurrent use.
type Tracker struct {
	mu    sync.Mutex
	total TokenCount
	calls int
}

// Add records one call.
func (t *Tracker) Add(tc TokenCount) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.total.InputTokens += tc.InputTokens
	t.total.OutputTokens += tc.OutputTokens
	t.calls++
}

// Total returns the aggregate token count.
func (t *Tracker) Total() TokenCount {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.total
}

// Calls returns the number of recorded calls.
func (t *Tracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.calls
}
