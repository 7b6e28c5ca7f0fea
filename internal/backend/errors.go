package backend

import (
	"errors"
	"fmt"
	"strings"
)

// Normalized backend error codes.
var (
	ErrUnavailable = errors.New("UNAVAILABLE")
	ErrFailure     = errors.New("FAILURE")
	ErrTimeout     = errors.New("TIMEOUT")
	ErrInternal    = errors.New("INTERNAL")
)

// TokenMap defines the error token mapping for a backend family.
type TokenMap struct {
	Unavailable []string // Tokens that map to UNAVAILABLE
	Failure     []string // Tokens that map to FAILURE
	Timeout     []string // Tokens that map to TIMEOUT
}

// ErrorMappings contains the deterministic error mapping tables for known
// backend families. Unknown tokens map to INTERNAL; unknown families fall
// back to the "generic" table.
var ErrorMappings = map[string]TokenMap{
	"accessibility": {
		Unavailable: []string{
			"SERVICE_DISCONNECTED",
			"SERVICE_NOT_BOUND",
			"ENGINE_NOT_READY",
			"DATABASE_LOCKED",
			"DATABASE_CLOSED",
			"NOT_INITIALIZED",
			"OFFLINE",
		},
		Failure: []string{
			"NODE_NOT_FOUND",
			"ACTION_FAILED",
			"GESTURE_REJECTED",
			"NO_FOCUSED_NODE",
			"WINDOW_GONE",
			"COMMAND_NOT_HANDLED",
		},
		Timeout: []string{
			"TIMEOUT",
			"DEADLINE_EXCEEDED",
			"ANR",
		},
	},
	"generic": {
		Unavailable: []string{
			"UNAVAILABLE",
			"NOT_READY",
			"DISCONNECTED",
			"OFFLINE",
			"UNREACHABLE",
		},
		Failure: []string{
			"FAILURE",
			"FAILED",
			"REJECTED",
			"NOT_HANDLED",
			"NOT_FOUND",
		},
		Timeout: []string{
			"TIMEOUT",
			"DEADLINE",
			"TOO_SLOW",
		},
	},
}

// Error wraps a backend error with its normalized code and the original
// diagnostic, preserved for the audit trail and the event stream.
type Error struct {
	Code     error       // Normalized code
	Original error       // Backend error
	Details  interface{} // Backend payload (opaque)
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v (backend: %v)", e.Code, e.Original)
}

func (e *Error) Unwrap() error {
	return e.Code
}

// NormalizeError maps a backend error to a normalized code using the
// generic token table.
func NormalizeError(backendErr error, payload interface{}) error {
	return NormalizeErrorWithFamily(backendErr, payload, "generic")
}

// NormalizeErrorWithFamily maps a backend error using a specific family's
// token table.
func NormalizeErrorWithFamily(backendErr error, payload interface{}, family string) error {
	if backendErr == nil {
		return nil
	}

	code := mapErrorToCode(backendErr.Error(), family)

	return &Error{
		Code:     code,
		Original: backendErr,
		Details:  payload,
	}
}

// mapErrorToCode maps an error message to a normalized code using
// table-driven token matching.
func mapErrorToCode(msg string, family string) error {
	tokens, exists := ErrorMappings[family]
	if !exists {
		tokens = ErrorMappings["generic"]
	}

	upperMsg := strings.ToUpper(msg)

	for _, token := range tokens.Timeout {
		if strings.Contains(upperMsg, strings.ToUpper(token)) {
			return ErrTimeout
		}
	}

	for _, token := range tokens.Unavailable {
		if strings.Contains(upperMsg, strings.ToUpper(token)) {
			return ErrUnavailable
		}
	}

	for _, token := range tokens.Failure {
		if strings.Contains(upperMsg, strings.ToUpper(token)) {
			return ErrFailure
		}
	}

	// Unknown token maps to INTERNAL
	return ErrInternal
}
