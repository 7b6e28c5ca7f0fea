package backend

import (
	"context"
	"fmt"
)

// Tier identifies one stage of the ordered fallback chain.
type Tier int

const (
	// TierPrimary is the database-driven dynamic command engine.
	TierPrimary Tier = 1
	// TierSecondary is the context/app-specific command processor.
	TierSecondary Tier = 2
	// TierTertiary is the static best-effort handler table.
	TierTertiary Tier = 3
)

// String returns the tier's wire name.
func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Valid reports whether t is one of the three defined tiers.
func (t Tier) Valid() bool {
	return t >= TierPrimary && t <= TierTertiary
}

// Result is a backend's verdict on one execution attempt.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Backend is the stable execution contract implemented by every tier.
type Backend interface {
	// Execute runs the normalized command text with the request context
	// map. A nil error with Success=false is a reported failure; a non-nil
	// error is an invocation failure. The orchestrator treats both as
	// grounds for falling through to the next tier.
	Execute(ctx context.Context, text string, cmdCtx map[string]string) (*Result, error)
}
