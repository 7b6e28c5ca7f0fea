// Package api defines ports (interfaces) for API server dependencies.
package api

import (
	"context"
	"net/http"

	"github.com/voice-control/vcc/internal/command"
	"github.com/voice-control/vcc/internal/resolver"
	"github.com/voice-control/vcc/internal/telemetry"
)

// OrchestratorPort defines the minimal interface the API needs from the orchestrator.
type OrchestratorPort interface {
	ExecuteCommand(ctx context.Context, rawText string, confidence float64, cmdCtx map[string]string) (*command.ExecutionResult, error)
	ExecuteGlobalAction(ctx context.Context, actionID string) (bool, error)
	SetFallbackMode(enabled bool) error
	State() command.State
	MetricsSnapshot() command.MetricsSnapshot
	HistorySnapshot() []command.ExecutionRecord
}

// TelemetryPort defines the minimal interface the API needs from the event hub.
type TelemetryPort interface {
	Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// ResolverPort defines the minimal interface for dictionary resolution.
type ResolverPort interface {
	Resolve(rawText, requestedLocale string) resolver.Resolution
}

// Compile-time assertions for port conformance
var _ OrchestratorPort = (*command.Orchestrator)(nil)
var _ TelemetryPort = (*telemetry.Hub)(nil)
var _ ResolverPort = (*resolver.Resolver)(nil)
