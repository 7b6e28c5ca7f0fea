// Package dictionarycmd implements the primary execution backend: a
// database-driven command engine that resolves the utterance against the
// command dictionary and dispatches the matched definition to a performer.
package dictionarycmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/dictionary"
	"github.com/voice-control/vcc/internal/resolver"
)

// LocaleKey is the context key carrying the request's locale.
const LocaleKey = "locale"

// ErrNoMatch indicates the utterance resolved to nothing in the dictionary.
var ErrNoMatch = errors.New("COMMAND_NOT_HANDLED")

// Performer executes a resolved command definition against the platform.
type Performer interface {
	Perform(ctx context.Context, def *dictionary.CommandDefinition, cmdCtx map[string]string) error
}

// Backend resolves utterances via the dictionary store and dispatches them
// to the performer.
type Backend struct {
	resolver  *resolver.Resolver
	performer Performer
	locale    string // default when the context carries none
}

// Compile-time assertion that Backend implements backend.Backend
var _ backend.Backend = (*Backend)(nil)

// New creates a dictionary-driven backend. defaultLocale is used when the
// command context does not carry a locale.
func New(store dictionary.Store, performer Performer, defaultLocale string) *Backend {
	return &Backend{
		resolver:  resolver.New(store),
		performer: performer,
		locale:    defaultLocale,
	}
}

// Execute resolves the text and performs the matched command.
func (b *Backend) Execute(ctx context.Context, text string, cmdCtx map[string]string) (*backend.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	locale := b.locale
	if cmdCtx != nil && cmdCtx[LocaleKey] != "" {
		locale = cmdCtx[LocaleKey]
	}

	res := b.resolver.Resolve(text, locale)
	if !res.Found {
		return nil, fmt.Errorf("%w: %q in locale %s", ErrNoMatch, text, locale)
	}

	if b.performer == nil {
		return nil, backend.ErrUnavailable
	}

	if err := b.performer.Perform(ctx, res.Definition, cmdCtx); err != nil {
		return &backend.Result{
			Success: false,
			Message: fmt.Sprintf("perform %s: %v", res.Definition.ID, err),
		}, nil
	}

	message := fmt.Sprintf("%s (%s match, %s)", res.Definition.ID, res.MatchType, res.MatchedLocale)
	return &backend.Result{Success: true, Message: message}, nil
}
