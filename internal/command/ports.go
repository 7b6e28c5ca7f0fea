package command

import (
	"context"
	"time"

	"github.com/voice-control/vcc/internal/telemetry"
)

// OrchestratorPort defines the minimal interface the API needs from the
// orchestrator.
type OrchestratorPort interface {
	ExecuteCommand(ctx context.Context, rawText string, confidence float64, cmdCtx map[string]string) (*ExecutionResult, error)
	ExecuteGlobalAction(ctx context.Context, actionID string) (bool, error)
	SetFallbackMode(enabled bool) error
	State() State
	MetricsSnapshot() MetricsSnapshot
	HistorySnapshot() []ExecutionRecord
}

// EventSink receives orchestrator events. Implemented by *telemetry.Hub.
type EventSink interface {
	Publish(event telemetry.Event) error
}

// AuditLogger interface for writing audit records.
type AuditLogger interface {
	LogAction(ctx context.Context, action, requestID, result string, latency time.Duration)
}

// ActionDispatcher performs system-level global actions on the platform,
// bypassing the tiered chain entirely.
type ActionDispatcher interface {
	DispatchGlobalAction(ctx context.Context, actionID string) (bool, error)
}
