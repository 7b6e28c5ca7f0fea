// Package fake provides a scriptable execution backend for testing.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/voice-control/vcc/internal/backend"
)

// Backend implements backend.Backend with scriptable outcomes and call
// recording.
type Backend struct {
	mu sync.Mutex

	// Scripted behavior, checked in order: Err, Panic, then Result.
	Err     error
	Panic   interface{}
	Result  backend.Result
	Latency time.Duration

	calls []Call
}

// Call records one Execute invocation.
type Call struct {
	Text   string
	CmdCtx map[string]string
}

// Compile-time assertion that Backend implements backend.Backend
var _ backend.Backend = (*Backend)(nil)

// New creates a fake backend that reports success.
func New() *Backend {
	return &Backend{Result: backend.Result{Success: true, Message: "ok"}}
}

// NewFailing creates a fake backend that reports failure.
func NewFailing(message string) *Backend {
	return &Backend{Result: backend.Result{Success: false, Message: message}}
}

// NewErroring creates a fake backend whose invocations error.
func NewErroring(err error) *Backend {
	return &Backend{Err: err}
}

// Execute applies the scripted behavior and records the call.
func (b *Backend) Execute(ctx context.Context, text string, cmdCtx map[string]string) (*backend.Result, error) {
	b.mu.Lock()
	b.calls = append(b.calls, Call{Text: text, CmdCtx: cmdCtx})
	b.mu.Unlock()

	if b.Latency > 0 {
		select {
		case <-time.After(b.Latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if b.Panic != nil {
		panic(b.Panic)
	}

	if b.Err != nil {
		return nil, b.Err
	}

	result := b.Result
	return &result, nil
}

// Calls returns a copy of the recorded invocations.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	calls := make([]Call, len(b.calls))
	copy(calls, b.calls)
	return calls
}

// CallCount returns the number of recorded invocations.
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}
