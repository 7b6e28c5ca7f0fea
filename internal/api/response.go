package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// Response is the envelope every v1 endpoint returns. Result is "ok" or
// "error"; Code, Message and Details are set only on errors. Each envelope
// carries a correlation ID so a client report can be matched to audit logs.
type Response struct {
	Result        string      `json:"result"`
	Data          interface{} `json:"data,omitempty"`
	Code          string      `json:"code,omitempty"`
	Message       string      `json:"message,omitempty"`
	Details       interface{} `json:"details,omitempty"`
	CorrelationID string      `json:"correlationId"`
}

// SuccessResponse wraps data in an ok envelope.
func SuccessResponse(data interface{}) *Response {
	return &Response{
		Result:        "ok",
		Data:          data,
		CorrelationID: generateCorrelationID(),
	}
}

// ErrorResponse builds an error envelope.
func ErrorResponse(code, message string, details interface{}) *Response {
	return &Response{
		Result:        "error",
		Code:          code,
		Message:       message,
		Details:       details,
		CorrelationID: generateCorrelationID(),
	}
}

// WriteSuccess sends data as an ok envelope with status 200.
func WriteSuccess(w http.ResponseWriter, data interface{}) {
	writeResponse(w, http.StatusOK, SuccessResponse(data))
}

// WriteError sends an error envelope with the given status.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details interface{}) {
	writeResponse(w, statusCode, ErrorResponse(code, message, details))
}

// writeResponse marshals before touching the writer, so an encoding failure
// can still produce a clean 500 instead of a half-written body.
func writeResponse(w http.ResponseWriter, statusCode int, response *Response) {
	body, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "response encoding failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	w.Write(body)
}

func generateCorrelationID() string {
	return uuid.NewString()
}

// Shared envelopes for the common non-domain failures.
var (
	ErrUnauthorized = ErrorResponse("UNAUTHORIZED", "Authentication required", nil)
	ErrForbidden    = ErrorResponse("FORBIDDEN", "Insufficient permissions", nil)
	ErrNotFound     = ErrorResponse("NOT_FOUND", "Resource not found", nil)
	ErrUnavailable  = ErrorResponse("UNAVAILABLE", "Service unavailable", nil)
	ErrInternal     = ErrorResponse("INTERNAL", "Internal server error", nil)
)

// statusByCode maps envelope error codes to HTTP statuses for the shared
// envelopes. Unknown codes fall through to 500.
var statusByCode = map[string]int{
	"BAD_REQUEST":  http.StatusBadRequest,
	"UNAUTHORIZED": http.StatusUnauthorized,
	"FORBIDDEN":    http.StatusForbidden,
	"NOT_FOUND":    http.StatusNotFound,
	"UNAVAILABLE":  http.StatusServiceUnavailable,
	"INTERNAL":     http.StatusInternalServerError,
}

// WriteStandardError sends one of the shared envelopes, deriving the HTTP
// status from its code.
func WriteStandardError(w http.ResponseWriter, err *Response) {
	status, ok := statusByCode[err.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeResponse(w, status, err)
}
