package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/voice-control/vcc/internal/auth"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	Timestamp time.Time              `json:"ts"`
	User      string                 `json:"user"`
	RequestID string                 `json:"requestId"`
	Action    string                 `json:"action"`
	Params    map[string]interface{} `json:"params"`
	Outcome   string                 `json:"outcome"`
	Code      string                 `json:"code"`
	LatencyMs int64                  `json:"latencyMs"`
}

// Logger implements the audit logging functionality.
type Logger struct {
	mu       sync.Mutex
	filePath string
	file     *os.File
}

// NewLogger creates a new audit logger.
func NewLogger(logDir string) (*Logger, error) {
	// Ensure log directory exists
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Create audit log file path
	filePath := filepath.Join(logDir, "audit.jsonl")

	// Open file for append-only writing
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		filePath: filePath,
		file:     file,
	}, nil
}

// LogAction logs an audit record for an engine action.
func (l *Logger) LogAction(ctx context.Context, action, requestID, result string, latency time.Duration) {
	entry := AuditEntry{
		Timestamp: time.Now().UTC(),
		User:      l.getUserFromContext(ctx),
		RequestID: requestID,
		Action:    action,
		Params:    l.getParamsFromContext(ctx),
		Outcome:   result,
		Code:      l.getCodeFromResult(result),
		LatencyMs: latency.Milliseconds(),
	}

	l.writeEntry(entry)
}

// LogControlAction logs a control-surface action with detailed parameters.
func (l *Logger) LogControlAction(ctx context.Context, action, requestID string, params map[string]interface{}, outcome string, err error) {
	code := "SUCCESS"
	if err != nil {
		code = l.getCodeFromError(err)
	}

	entry := AuditEntry{
		Timestamp: time.Now().UTC(),
		User:      l.getUserFromContext(ctx),
		RequestID: requestID,
		Action:    action,
		Params:    params,
		Outcome:   outcome,
		Code:      code,
	}

	l.writeEntry(entry)
}

// writeEntry writes an audit entry to the log file.
func (l *Logger) writeEntry(entry AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	jsonData, err := json.Marshal(entry)
	if err != nil {
		// Log error to stderr if JSON marshaling fails
		fmt.Fprintf(os.Stderr, "Failed to marshal audit entry: %v\n", err)
		return
	}

	// Write JSON line to file
	if _, err := l.file.Write(append(jsonData, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write audit entry: %v\n", err)
		return
	}

	// Flush to ensure data is written to disk
	if err := l.file.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sync audit log: %v\n", err)
	}
}

// getUserFromContext extracts user information from the request context.
func (l *Logger) getUserFromContext(ctx context.Context) string {
	// Populated by the auth middleware
	if claims, ok := ctx.Value(auth.ClaimsKey).(*auth.Claims); ok && claims != nil {
		return claims.Subject
	}

	return "unknown"
}

// getParamsFromContext extracts parameters from the request context.
func (l *Logger) getParamsFromContext(ctx context.Context) map[string]interface{} {
	if params, ok := ctx.Value("params").(map[string]interface{}); ok {
		return params
	}

	return make(map[string]interface{})
}

// getCodeFromResult maps result strings to standardized codes.
func (l *Logger) getCodeFromResult(result string) string {
	switch result {
	case "SUCCESS":
		return "SUCCESS"
	case "REJECTED":
		return "REJECTED"
	case "FAILURE":
		return "FAILURE"
	case "NO_TERMINAL_BACKEND":
		return "NO_TERMINAL_BACKEND"
	case "NO_DISPATCHER":
		return "NO_DISPATCHER"
	case "ERROR":
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// getCodeFromError maps error types to standardized codes.
func (l *Logger) getCodeFromError(err error) string {
	if err == nil {
		return "SUCCESS"
	}

	errStr := err.Error()
	if strings.Contains(errStr, "UNAVAILABLE") {
		return "UNAVAILABLE"
	}
	if strings.Contains(errStr, "TIMEOUT") {
		return "TIMEOUT"
	}
	if strings.Contains(errStr, "INVALID_STATE") {
		return "INVALID_STATE"
	}
	if strings.Contains(errStr, "UNAUTHORIZED") {
		return "UNAUTHORIZED"
	}
	if strings.Contains(errStr, "FORBIDDEN") {
		return "FORBIDDEN"
	}

	return "ERROR"
}

// Close closes the audit logger and its file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// GetFilePath returns the path to the audit log file.
func (l *Logger) GetFilePath() string {
	return l.filePath
}

// Rotate rotates the audit log file.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	// Rename current file with timestamp suffix
	timestamp := time.Now().Format("20060102-150405")
	newFilePath := fmt.Sprintf("%s.%s", l.filePath, timestamp)

	if err := os.Rename(l.filePath, newFilePath); err != nil {
		return fmt.Errorf("failed to rename log file: %w", err)
	}

	file, err := os.OpenFile(l.filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open new log file: %w", err)
	}

	l.file = file
	return nil
}
