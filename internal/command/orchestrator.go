package command

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/config"
	"github.com/voice-control/vcc/internal/dictionary"
	"github.com/voice-control/vcc/internal/telemetry"
)

// ConfidenceThreshold is the fixed recognition-confidence gate. Calls below
// it are rejected before any tier runs.
const ConfidenceThreshold = 0.5

// GlobalActions is the fixed set of system-level actions accepted by the
// global-action side channel.
var GlobalActions = map[string]bool{
	"back":           true,
	"home":           true,
	"notifications":  true,
	"recents":        true,
	"quick_settings": true,
}

// Outcome classifies the result of one ExecuteCommand call.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailure  Outcome = "failure"
)

// ExecutionResult is the structured result every call yields.
type ExecutionResult struct {
	RequestID     string       `json:"requestId"`
	Outcome       Outcome      `json:"outcome"`
	Tier          backend.Tier `json:"tierReached,omitempty"`
	Message       string       `json:"message,omitempty"`
	ElapsedMicros int64        `json:"elapsedMicros"`
}

// Orchestrator routes confidence-gated voice commands through the ordered
// backend chain. It is safe for many overlapping ExecuteCommand calls;
// within one call the tiers run strictly sequentially.
type Orchestrator struct {
	// Lifecycle state, read by every call's tier gates. Atomic so readers
	// always observe the most recently published value.
	state atomic.Int32

	// Registered backends by tier; written rarely via RegisterBackend.
	mu         sync.RWMutex
	backends   [3]backend.Backend
	dispatcher ActionDispatcher

	// Telemetry sink for event publishing
	events EventSink

	// Audit logger
	auditLogger AuditLogger

	// Configuration for tier timeouts and sizing
	config *config.EngineConfig

	// Bounded observability surfaces
	history *History
	metrics *Metrics
}

// Compile-time assertion that Orchestrator implements OrchestratorPort
var _ OrchestratorPort = (*Orchestrator)(nil)

// NewOrchestrator creates an uninitialized orchestrator. Backends are
// supplied post-construction via RegisterBackend, which avoids a
// construction-time dependency cycle with orchestrator-adjacent services.
func NewOrchestrator(events EventSink, engineConfig *config.EngineConfig) *Orchestrator {
	if engineConfig == nil {
		engineConfig = config.LoadBaseline()
	}
	o := &Orchestrator{
		events:  events,
		config:  engineConfig,
		history: NewHistory(engineConfig.HistoryCapacity),
		metrics: NewMetrics(),
	}
	o.state.Store(int32(StateUninitialized))
	return o
}

// SetAuditLogger sets the audit logger.
func (o *Orchestrator) SetAuditLogger(logger AuditLogger) {
	o.auditLogger = logger
}

// SetActionDispatcher sets the platform dispatcher for global actions.
func (o *Orchestrator) SetActionDispatcher(dispatcher ActionDispatcher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dispatcher = dispatcher
}

// RegisterBackend registers (or, with a nil backend, unregisters) the
// backend for a tier. Registration is permitted in any state except closed.
func (o *Orchestrator) RegisterBackend(tier backend.Tier, b backend.Backend) error {
	if !tier.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidTier, int(tier))
	}
	if o.State() == StateClosed {
		return fmt.Errorf("%w: orchestrator is closed", ErrInvalidState)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.backends[tier-1] = b
	return nil
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Initialize transitions Uninitialized -> Ready.
func (o *Orchestrator) Initialize() error {
	if !o.state.CompareAndSwap(int32(StateUninitialized), int32(StateReady)) {
		return fmt.Errorf("%w: initialize from %s", ErrInvalidState, o.State())
	}
	return nil
}

// Pause transitions Ready -> Paused.
func (o *Orchestrator) Pause() error {
	if !o.state.CompareAndSwap(int32(StateReady), int32(StatePaused)) {
		return fmt.Errorf("%w: pause from %s", ErrInvalidState, o.State())
	}
	return nil
}

// Resume transitions Paused -> Ready.
func (o *Orchestrator) Resume() error {
	if !o.state.CompareAndSwap(int32(StatePaused), int32(StateReady)) {
		return fmt.Errorf("%w: resume from %s", ErrInvalidState, o.State())
	}
	return nil
}

// EnableFallbackMode transitions Ready -> FallbackModeActive. While active,
// the primary tier is unconditionally skipped, which lets an external
// health monitor degrade gracefully without unregistering the backend.
func (o *Orchestrator) EnableFallbackMode() error {
	if !o.state.CompareAndSwap(int32(StateReady), int32(StateFallbackActive)) {
		return fmt.Errorf("%w: enable fallback mode from %s", ErrInvalidState, o.State())
	}
	o.publishFallbackModeChanged(true)
	return nil
}

// DisableFallbackMode transitions FallbackModeActive -> Ready.
func (o *Orchestrator) DisableFallbackMode() error {
	if !o.state.CompareAndSwap(int32(StateFallbackActive), int32(StateReady)) {
		return fmt.Errorf("%w: disable fallback mode from %s", ErrInvalidState, o.State())
	}
	o.publishFallbackModeChanged(false)
	return nil
}

// SetFallbackMode toggles fallback mode. Setting the mode it is already in
// is a no-op, not an error, so health monitors can level-trigger it.
func (o *Orchestrator) SetFallbackMode(enabled bool) error {
	current := o.State()
	if enabled {
		if current == StateFallbackActive {
			return nil
		}
		return o.EnableFallbackMode()
	}
	if current == StateReady {
		return nil
	}
	return o.DisableFallbackMode()
}

// Cleanup is terminal: it transitions any state to Closed and releases
// resources. There is no transition back.
func (o *Orchestrator) Cleanup() error {
	for {
		current := o.state.Load()
		if State(current) == StateClosed {
			return nil
		}
		if o.state.CompareAndSwap(current, int32(StateClosed)) {
			o.mu.Lock()
			o.backends = [3]backend.Backend{}
			o.dispatcher = nil
			o.mu.Unlock()
			return nil
		}
	}
}

// ExecuteCommand runs one recognized utterance through the tier chain.
// Tier 1/2 failures are recovered locally via fallthrough; only lifecycle
// misuse surfaces as an error. Every completed call returns a structured
// result.
func (o *Orchestrator) ExecuteCommand(ctx context.Context, rawText string, confidence float64, cmdCtx map[string]string) (*ExecutionResult, error) {
	start := time.Now()
	requestID := uuid.NewString()

	if !o.State().executable() {
		return nil, fmt.Errorf("%w: executeCommand from %s", ErrInvalidState, o.State())
	}

	// Confidence gate: reject before any side effect. No tier runs, no
	// history or tier metrics are written.
	normalized := dictionary.Normalize(rawText)
	if confidence < ConfidenceThreshold || normalized == "" {
		o.metrics.RecordRejection()
		reason := "empty utterance"
		if confidence < ConfidenceThreshold {
			reason = fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, ConfidenceThreshold)
		}
		o.publishValidationRejected(requestID, rawText, confidence, reason)
		o.logAudit(ctx, "executeCommand", requestID, "REJECTED", time.Since(start))
		return &ExecutionResult{
			RequestID:     requestID,
			Outcome:       OutcomeRejected,
			Message:       reason,
			ElapsedMicros: time.Since(start).Microseconds(),
		}, nil
	}

	o.publishExecutionStarted(requestID, normalized, confidence)

	// Tier 1 (primary): skipped entirely while fallback mode is active.
	if o.State() == StateFallbackActive {
		o.publishTierFallback(requestID, backend.TierPrimary, backend.TierSecondary, "fallback mode active")
	} else if primary := o.backendFor(backend.TierPrimary); primary == nil {
		o.publishTierFallback(requestID, backend.TierPrimary, backend.TierSecondary, "no primary backend")
	} else {
		result, err := o.invokeTier(ctx, backend.TierPrimary, primary, normalized, cmdCtx)
		if err == nil && result.Success {
			return o.finalize(ctx, requestID, backend.TierPrimary, result, start), nil
		}
		o.publishTierFallback(requestID, backend.TierPrimary, backend.TierSecondary, failureReason(result, err))
	}

	// Tier 2 (secondary): attempted whenever registered, independent of
	// fallback mode.
	if secondary := o.backendFor(backend.TierSecondary); secondary == nil {
		o.publishTierFallback(requestID, backend.TierSecondary, backend.TierTertiary, "no secondary backend")
	} else {
		result, err := o.invokeTier(ctx, backend.TierSecondary, secondary, normalized, cmdCtx)
		if err == nil && result.Success {
			return o.finalize(ctx, requestID, backend.TierSecondary, result, start), nil
		}
		o.publishTierFallback(requestID, backend.TierSecondary, backend.TierTertiary, failureReason(result, err))
	}

	// Tier 3 (tertiary): always terminal. Its absence is a configuration
	// defect, since the chain must never be exhausted.
	tertiary := o.backendFor(backend.TierTertiary)
	if tertiary == nil {
		o.logAudit(ctx, "executeCommand", requestID, "NO_TERMINAL_BACKEND", time.Since(start))
		return nil, fmt.Errorf("%w: tertiary tier is mandatory", ErrNoTerminalBackend)
	}

	result, err := o.invokeTier(ctx, backend.TierTertiary, tertiary, normalized, cmdCtx)
	if err != nil {
		// Converted to a caller-visible failure, never re-escalated.
		result = &backend.Result{Success: false, Message: err.Error()}
	}
	return o.finalize(ctx, requestID, backend.TierTertiary, result, start), nil
}

// ExecuteGlobalAction dispatches a system-level action directly to the
// platform, bypassing the tier chain. It writes no tier history or metrics.
func (o *Orchestrator) ExecuteGlobalAction(ctx context.Context, actionID string) (bool, error) {
	start := time.Now()

	if !o.State().executable() {
		return false, fmt.Errorf("%w: executeGlobalAction from %s", ErrInvalidState, o.State())
	}
	if !GlobalActions[actionID] {
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}

	o.mu.RLock()
	dispatcher := o.dispatcher
	o.mu.RUnlock()

	if dispatcher == nil {
		o.logAudit(ctx, "executeGlobalAction", actionID, "NO_DISPATCHER", time.Since(start))
		return false, fmt.Errorf("%w: no platform dispatcher registered", ErrNoDispatcher)
	}

	ctx, cancel := context.WithTimeout(ctx, o.config.GlobalActionTimeout)
	defer cancel()

	accepted, err := dispatcher.DispatchGlobalAction(ctx, actionID)
	latency := time.Since(start)

	if err != nil {
		o.logAudit(ctx, "executeGlobalAction", actionID, "ERROR", latency)
		return false, backend.NormalizeError(err, nil)
	}

	outcome := "REJECTED"
	if accepted {
		outcome = "SUCCESS"
	}
	o.logAudit(ctx, "executeGlobalAction", actionID, outcome, latency)

	return accepted, nil
}

// MetricsSnapshot returns a point-in-time view of the counters.
func (o *Orchestrator) MetricsSnapshot() MetricsSnapshot {
	return o.metrics.Snapshot()
}

// ResetMetrics zeroes the counters.
func (o *Orchestrator) ResetMetrics() {
	o.metrics.Reset()
}

// HistorySnapshot returns the bounded execution history, oldest first.
func (o *Orchestrator) HistorySnapshot() []ExecutionRecord {
	return o.history.Snapshot()
}

// backendFor reads the registered backend for a tier.
func (o *Orchestrator) backendFor(tier backend.Tier) backend.Backend {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.backends[tier-1]
}

// tierTimeout returns the configured timeout for a tier.
func (o *Orchestrator) tierTimeout(tier backend.Tier) time.Duration {
	switch tier {
	case backend.TierPrimary:
		return o.config.TierTimeoutPrimary
	case backend.TierSecondary:
		return o.config.TierTimeoutSecondary
	default:
		return o.config.TierTimeoutTertiary
	}
}

// invokeTier runs one backend with a bounded timeout. Panics are recovered
// and converted to invocation errors so a misbehaving backend can only fail
// its own tier.
func (o *Orchestrator) invokeTier(ctx context.Context, tier backend.Tier, b backend.Backend, text string, cmdCtx map[string]string) (result *backend.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, o.tierTimeout(tier))
	defer cancel()

	defer func() {
		if recovered := recover(); recovered != nil {
			result = nil
			err = fmt.Errorf("backend panic at tier %s: %v", tier, recovered)
		}
	}()

	result, err = b.Execute(ctx, text, cmdCtx)
	if err != nil {
		return nil, backend.NormalizeError(err, nil)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: backend returned no result", backend.ErrInternal)
	}
	return result, nil
}

// finalize records history and metrics for the terminating tier, publishes
// the completion event, and builds the caller-visible result.
func (o *Orchestrator) finalize(ctx context.Context, requestID string, tier backend.Tier, result *backend.Result, start time.Time) *ExecutionResult {
	elapsed := time.Since(start).Microseconds()

	o.history.Append(ExecutionRecord{
		RequestID:     requestID,
		Tier:          tier,
		Succeeded:     result.Success,
		ElapsedMicros: elapsed,
		Timestamp:     time.Now().UTC(),
	})
	o.metrics.Record(tier, result.Success, elapsed)

	outcome := OutcomeFailure
	auditResult := "FAILURE"
	if result.Success {
		outcome = OutcomeSuccess
		auditResult = "SUCCESS"
	}

	o.publishExecutionCompleted(requestID, tier, outcome, elapsed)
	o.logAudit(ctx, "executeCommand", requestID, auditResult, time.Duration(elapsed)*time.Microsecond)

	return &ExecutionResult{
		RequestID:     requestID,
		Outcome:       outcome,
		Tier:          tier,
		Message:       result.Message,
		ElapsedMicros: elapsed,
	}
}

// failureReason renders a tier outcome into a fallback reason string.
func failureReason(result *backend.Result, err error) string {
	if err != nil {
		return err.Error()
	}
	if result != nil && result.Message != "" {
		return result.Message
	}
	return "backend reported failure"
}

// publishExecutionStarted publishes an executionStarted event.
func (o *Orchestrator) publishExecutionStarted(requestID, text string, confidence float64) {
	o.publish(telemetry.Event{
		Type: "executionStarted",
		Data: map[string]interface{}{
			"requestId":  requestID,
			"text":       text,
			"confidence": confidence,
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// publishTierFallback publishes a tierFallback event.
func (o *Orchestrator) publishTierFallback(requestID string, from, to backend.Tier, reason string) {
	o.publish(telemetry.Event{
		Type: "tierFallback",
		Data: map[string]interface{}{
			"requestId": requestID,
			"from":      int(from),
			"to":        int(to),
			"reason":    reason,
			"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// publishExecutionCompleted publishes the terminal event for a call.
func (o *Orchestrator) publishExecutionCompleted(requestID string, tier backend.Tier, outcome Outcome, elapsedMicros int64) {
	o.publish(telemetry.Event{
		Type: "executionCompleted",
		Data: map[string]interface{}{
			"requestId":     requestID,
			"tier":          int(tier),
			"outcome":       string(outcome),
			"elapsedMicros": elapsedMicros,
			"ts":            time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// publishValidationRejected publishes a validationRejected event.
func (o *Orchestrator) publishValidationRejected(requestID, rawText string, confidence float64, reason string) {
	o.publish(telemetry.Event{
		Type: "validationRejected",
		Data: map[string]interface{}{
			"requestId":  requestID,
			"text":       rawText,
			"confidence": confidence,
			"reason":     reason,
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// publishFallbackModeChanged publishes a fallbackModeChanged event.
func (o *Orchestrator) publishFallbackModeChanged(enabled bool) {
	o.publish(telemetry.Event{
		Type: "fallbackModeChanged",
		Data: map[string]interface{}{
			"enabled": enabled,
			"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		},
	})
}

// publish sends an event to the sink, if one is attached. Event delivery is
// best-effort; a sink error never fails the call.
func (o *Orchestrator) publish(event telemetry.Event) {
	if o.events == nil {
		return
	}
	_ = o.events.Publish(event)
}

// logAudit logs an audit record for an orchestrator action.
func (o *Orchestrator) logAudit(ctx context.Context, action, requestID, result string, latency time.Duration) {
	if o.auditLogger != nil {
		o.auditLogger.LogAction(ctx, action, requestID, result, latency)
	}
}
