// Package static implements the tertiary execution backend: a fixed table of
// best-effort handlers keyed by normalized phrase.
//
// The table is assembled at construction and never mutated afterward, so
// lookups are lock-free. A miss is a reported failure, not an error; the
// tertiary tier is terminal either way.
package static

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/dictionary"
)

// HandlerFunc performs one static command.
type HandlerFunc func(ctx context.Context, cmdCtx map[string]string) error

// Backend is the static handler-table backend.
type Backend struct {
	handlers map[string]HandlerFunc

	mu      sync.Mutex
	handled []string // normalized phrases executed, for diagnostics
}

// Compile-time assertion that Backend implements backend.Backend
var _ backend.Backend = (*Backend)(nil)

// New creates a static backend from a phrase-to-handler table. Phrases are
// normalized with the shared rules so the table matches the orchestrator's
// normalized text.
func New(handlers map[string]HandlerFunc) *Backend {
	normalized := make(map[string]HandlerFunc, len(handlers))
	for phrase, handler := range handlers {
		normalized[dictionary.Normalize(phrase)] = handler
	}
	return &Backend{handlers: normalized}
}

// Execute looks up the normalized text and runs its handler.
func (b *Backend) Execute(ctx context.Context, text string, cmdCtx map[string]string) (*backend.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	handler, ok := b.handlers[dictionary.Normalize(text)]
	if !ok {
		return &backend.Result{
			Success: false,
			Message: fmt.Sprintf("no static handler for %q", text),
		}, nil
	}

	if err := handler(ctx, cmdCtx); err != nil {
		return &backend.Result{
			Success: false,
			Message: err.Error(),
		}, nil
	}

	b.mu.Lock()
	b.handled = append(b.handled, dictionary.Normalize(text))
	b.mu.Unlock()

	return &backend.Result{Success: true, Message: "handled"}, nil
}

// Phrases returns the sorted set of phrases the table covers.
func (b *Backend) Phrases() []string {
	phrases := make([]string, 0, len(b.handlers))
	for phrase := range b.handlers {
		phrases = append(phrases, phrase)
	}
	sort.Strings(phrases)
	return phrases
}

// Handled returns a copy of the phrases executed so far.
func (b *Backend) Handled() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	handled := make([]string, len(b.handled))
	copy(handled, b.handled)
	return handled
}
