package command

import "errors"

// Configuration errors, returned directly to the caller and never retried.
var (
	// ErrInvalidState indicates an operation invoked outside a valid
	// lifecycle state.
	ErrInvalidState = errors.New("INVALID_STATE")

	// ErrInvalidTier indicates a backend registration for an undefined tier.
	ErrInvalidTier = errors.New("INVALID_TIER")

	// ErrNoTerminalBackend indicates the chain reached the tertiary tier
	// with no backend registered there. The tertiary tier is mandatory;
	// its absence is a configuration defect, not an execution failure.
	ErrNoTerminalBackend = errors.New("NO_TERMINAL_BACKEND")

	// ErrNoDispatcher indicates a global action was requested with no
	// platform dispatcher registered.
	ErrNoDispatcher = errors.New("NO_DISPATCHER")

	// ErrUnknownAction indicates a global action outside the fixed set.
	ErrUnknownAction = errors.New("UNKNOWN_ACTION")
)
