//
//
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/command"
)

// APIError represents an API-layer error with HTTP status code.
type APIError struct {
	Code       string
	Message    string
	Details    interface{}
	StatusCode int
}

// API error codes for transport/security/lookup conditions
var (
	ErrBadRequest        = errors.New("BAD_REQUEST")
	ErrUnauthorizedError = errors.New("UNAUTHORIZED")
	ErrForbiddenError    = errors.New("FORBIDDEN")
	ErrNotFoundError     = errors.New("NOT_FOUND")
)

// ToAPIError converts an error to an API error with HTTP status code and JSON body.
func ToAPIError(err error) (int, []byte) {
	if err == nil {
		return http.StatusOK, nil
	}

	var apiErr *APIError
	var backendErr *backend.Error

	// Check if it's already an API error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, marshalErrorResponse(apiErr.Code, apiErr.Message, apiErr.Details)
	}

	// Check if it's a normalized backend error
	if errors.As(err, &backendErr) {
		code, statusCode := mapBackendError(backendErr.Code)
		message := getErrorMessage(backendErr.Code, backendErr.Original)
		return statusCode, marshalErrorResponse(code, message, backendErr.Details)
	}

	// Check for backend error codes
	if errors.Is(err, backend.ErrUnavailable) {
		return http.StatusServiceUnavailable, marshalErrorResponse("UNAVAILABLE", getErrorMessage(backend.ErrUnavailable, err), nil)
	}
	if errors.Is(err, backend.ErrTimeout) {
		return http.StatusGatewayTimeout, marshalErrorResponse("TIMEOUT", getErrorMessage(backend.ErrTimeout, err), nil)
	}
	if errors.Is(err, backend.ErrFailure) {
		return http.StatusBadGateway, marshalErrorResponse("FAILURE", getErrorMessage(backend.ErrFailure, err), nil)
	}
	if errors.Is(err, backend.ErrInternal) {
		return http.StatusInternalServerError, marshalErrorResponse("INTERNAL", getErrorMessage(backend.ErrInternal, err), nil)
	}

	// Check for orchestrator lifecycle and routing errors
	if errors.Is(err, command.ErrInvalidState) {
		return http.StatusConflict, marshalErrorResponse("INVALID_STATE", "Engine is not in an executable state", nil)
	}
	if errors.Is(err, command.ErrInvalidTier) {
		return http.StatusBadRequest, marshalErrorResponse("INVALID_TIER", "Tier is outside the known chain", nil)
	}
	if errors.Is(err, command.ErrNoTerminalBackend) {
		return http.StatusServiceUnavailable, marshalErrorResponse("NO_TERMINAL_BACKEND", "No terminal backend is registered", nil)
	}
	if errors.Is(err, command.ErrNoDispatcher) {
		return http.StatusServiceUnavailable, marshalErrorResponse("NO_DISPATCHER", "No action dispatcher is registered", nil)
	}
	if errors.Is(err, command.ErrUnknownAction) {
		return http.StatusNotFound, marshalErrorResponse("UNKNOWN_ACTION", "Global action is not recognized", nil)
	}

	// Check for API-layer errors
	if errors.Is(err, ErrBadRequest) {
		return http.StatusBadRequest, marshalErrorResponse("BAD_REQUEST", "Malformed or missing required parameter", nil)
	}
	if errors.Is(err, ErrUnauthorizedError) {
		return http.StatusUnauthorized, marshalErrorResponse("UNAUTHORIZED", "Authentication required", nil)
	}
	if errors.Is(err, ErrForbiddenError) {
		return http.StatusForbidden, marshalErrorResponse("FORBIDDEN", "Insufficient permissions", nil)
	}
	if errors.Is(err, ErrNotFoundError) {
		return http.StatusNotFound, marshalErrorResponse("NOT_FOUND", "Resource not found", nil)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError, marshalErrorResponse("INTERNAL", "Internal server error", map[string]interface{}{
		"original": err.Error(),
	})
}

// mapBackendError maps normalized backend error codes to API error codes and HTTP status codes.
func mapBackendError(backendErr error) (string, int) {
	switch {
	case errors.Is(backendErr, backend.ErrUnavailable):
		return "UNAVAILABLE", http.StatusServiceUnavailable
	case errors.Is(backendErr, backend.ErrTimeout):
		return "TIMEOUT", http.StatusGatewayTimeout
	case errors.Is(backendErr, backend.ErrFailure):
		return "FAILURE", http.StatusBadGateway
	case errors.Is(backendErr, backend.ErrInternal):
		return "INTERNAL", http.StatusInternalServerError
	default:
		return "INTERNAL", http.StatusInternalServerError
	}
}

// getErrorMessage returns a user-friendly error message for the given error.
func getErrorMessage(code error, original error) string {
	switch {
	case errors.Is(code, backend.ErrUnavailable):
		return "Backend is temporarily unavailable"
	case errors.Is(code, backend.ErrTimeout):
		return "Backend did not answer within its tier budget"
	case errors.Is(code, backend.ErrFailure):
		return "Backend reported a terminal failure"
	case errors.Is(code, backend.ErrInternal):
		return "Internal server error"
	case errors.Is(code, ErrUnauthorizedError):
		return "Authentication required"
	case errors.Is(code, ErrForbiddenError):
		return "Insufficient permissions"
	case errors.Is(code, ErrNotFoundError):
		return "Resource not found"
	default:
		if original != nil {
			return original.Error()
		}
		return "Unknown error"
	}
}

// marshalErrorResponse creates a JSON error response with correlation ID.
func marshalErrorResponse(code, message string, details interface{}) []byte {
	response := Response{
		Result:        "error",
		Code:          code,
		Message:       message,
		Details:       details,
		CorrelationID: generateCorrelationID(),
	}

	jsonBytes, err := json.Marshal(response)
	if err != nil {
		// Fallback error response if marshaling fails
		fallback := map[string]interface{}{
			"result":        "error",
			"code":          "INTERNAL",
			"message":       "Failed to marshal error response",
			"correlationId": generateCorrelationID(),
		}
		jsonBytes, _ := json.Marshal(fallback)
		return jsonBytes
	}

	return jsonBytes
}

// NewAPIError creates a new API error.
func NewAPIError(code string, message string, statusCode int, details interface{}) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		Details:    details,
		StatusCode: statusCode,
	}
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}
