package command

// State is the orchestrator lifecycle state, exclusively owned by the
// orchestrator and changed only through explicit API calls.
type State int32

const (
	StateUninitialized State = iota
	StateReady
	StatePaused
	StateFallbackActive
	StateClosed
)

// String returns the state's wire name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StateFallbackActive:
		return "fallbackModeActive"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// executable reports whether mutating operations are permitted in s.
func (s State) executable() bool {
	return s == StateReady || s == StateFallbackActive
}
