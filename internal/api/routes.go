//
//
package api

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/voice-control/vcc/internal/auth"
	"github.com/voice-control/vcc/internal/command"
)

// RegisterRoutes registers all v1 endpoints.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// API v1 base path
	apiV1 := "/api/v1"

	// Health endpoint (no auth required)
	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	// If no auth middleware, register routes without protection
	if s.authMiddleware == nil {
		mux.HandleFunc(apiV1+"/capabilities", s.handleCapabilities)
		mux.HandleFunc(apiV1+"/commands/execute", s.handleExecuteCommand)
		mux.HandleFunc(apiV1+"/commands/resolve", s.handleResolveCommand)
		mux.HandleFunc(apiV1+"/actions/execute", s.handleExecuteAction)
		mux.HandleFunc(apiV1+"/metrics", s.handleMetrics)
		mux.HandleFunc(apiV1+"/history", s.handleHistory)
		mux.HandleFunc(apiV1+"/fallback-mode", s.handleFallbackMode)
		mux.HandleFunc(apiV1+"/events", s.handleEvents)
		return
	}

	// Register routes with authentication and authorization.
	// Queries require the read scope, execution paths require execute,
	// lifecycle control requires admin.
	mux.HandleFunc(apiV1+"/capabilities", s.protect(auth.ScopeRead, s.handleCapabilities))
	mux.HandleFunc(apiV1+"/commands/execute", s.protect(auth.ScopeExecute, s.handleExecuteCommand))
	mux.HandleFunc(apiV1+"/commands/resolve", s.protect(auth.ScopeRead, s.handleResolveCommand))
	mux.HandleFunc(apiV1+"/actions/execute", s.protect(auth.ScopeExecute, s.handleExecuteAction))
	mux.HandleFunc(apiV1+"/metrics", s.protect(auth.ScopeRead, s.handleMetrics))
	mux.HandleFunc(apiV1+"/history", s.protect(auth.ScopeRead, s.handleHistory))
	mux.HandleFunc(apiV1+"/fallback-mode", s.protect(auth.ScopeAdmin, s.handleFallbackMode))
	mux.HandleFunc(apiV1+"/events", s.protect(auth.ScopeRead, s.handleEvents))
}

// protect wraps a handler with bearer auth and a scope requirement.
func (s *Server) protect(scope string, handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.RequireAuth(s.authMiddleware.RequireScope(scope)(handler))
}

// handleCapabilities handles GET /capabilities
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	capabilities := map[string]interface{}{
		"tiers":    []string{"primary", "secondary", "tertiary"},
		"events":   []string{"sse"},
		"commands": []string{"http-json"},
		"version":  "1.0.0",
	}

	WriteSuccess(w, capabilities)
}

// handleExecuteCommand handles POST /commands/execute
func (s *Server) handleExecuteCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	// Parse request (strict JSON)
	var req struct {
		Text       string            `json:"text"`
		Confidence float64           `json:"confidence"`
		Context    map[string]string `json:"context,omitempty"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	result, err := s.orchestrator.ExecuteCommand(r.Context(), req.Text, req.Confidence, req.Context)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	WriteSuccess(w, result)
}

// handleResolveCommand handles POST /commands/resolve
func (s *Server) handleResolveCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	// Parse request (strict JSON)
	var req struct {
		Text   string `json:"text"`
		Locale string `json:"locale"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if s.resolver == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	res := s.resolver.Resolve(req.Text, req.Locale)
	if !res.Found {
		WriteSuccess(w, map[string]interface{}{"found": false})
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"found":         true,
		"definition":    res.Definition,
		"matchType":     res.MatchType,
		"matchedLocale": res.MatchedLocale,
	})
}

// handleExecuteAction handles POST /actions/execute
func (s *Server) handleExecuteAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only POST method is allowed", nil)
		return
	}

	// Parse request (strict JSON)
	var req struct {
		ActionID string `json:"actionId"`
	}
	if !decodeStrict(w, r, &req) {
		return
	}

	if req.ActionID == "" {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "actionId is required", nil)
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	handled, err := s.orchestrator.ExecuteGlobalAction(r.Context(), req.ActionID)
	if err != nil {
		writeMappedError(w, err)
		return
	}

	WriteSuccess(w, map[string]interface{}{"actionId": req.ActionID, "handled": handled})
}

// handleMetrics handles GET /metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	WriteSuccess(w, s.orchestrator.MetricsSnapshot())
}

// handleHistory handles GET /history
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	records := s.orchestrator.HistorySnapshot()
	WriteSuccess(w, map[string]interface{}{"records": records, "count": len(records)})
}

// handleFallbackMode handles GET/PUT /fallback-mode
func (s *Server) handleFallbackMode(w http.ResponseWriter, r *http.Request) {
	if s.orchestrator == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Service not available", nil)
		return
	}

	switch r.Method {
	case http.MethodGet:
		enabled := s.orchestrator.State() == command.StateFallbackActive
		WriteSuccess(w, map[string]interface{}{"enabled": enabled})
	case http.MethodPut:
		var req struct {
			Enabled *bool `json:"enabled"`
		}
		if !decodeStrict(w, r, &req) {
			return
		}
		if req.Enabled == nil {
			WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "enabled is required", nil)
			return
		}
		if err := s.orchestrator.SetFallbackMode(*req.Enabled); err != nil {
			writeMappedError(w, err)
			return
		}
		WriteSuccess(w, map[string]interface{}{"enabled": *req.Enabled})
	default:
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET and PUT methods are allowed", nil)
	}
}

// handleEvents handles GET /events (SSE)
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	if s.telemetryHub == nil {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE",
			"Event service not available", nil)
		return
	}

	ctx := r.Context()
	if err := s.telemetryHub.Subscribe(ctx, w, r); err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL",
			"Failed to subscribe to event stream", nil)
		return
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Only GET method is allowed", nil)
		return
	}

	// Calculate uptime
	uptime := 0.0
	if !s.startTime.IsZero() {
		uptime = time.Since(s.startTime).Seconds()
	}

	// Check subsystem health
	subsystems := s.checkSubsystemHealth()

	// Determine overall health status
	overallStatus := "ok"
	if !subsystems["events"] || !subsystems["orchestrator"] || !subsystems["resolver"] {
		overallStatus = "degraded"
	}

	health := map[string]interface{}{
		"status":     overallStatus,
		"uptimeSec":  uptime,
		"version":    "1.0.0",
		"subsystems": subsystems,
	}
	if s.orchestrator != nil {
		health["engineState"] = s.orchestrator.State().String()
	}

	// Return appropriate HTTP status based on health
	if overallStatus == "ok" {
		WriteSuccess(w, health)
	} else {
		// Return 503 Service Unavailable for degraded health
		// Pass health data as details so it's available in the error response
		WriteError(w, http.StatusServiceUnavailable, "SERVICE_DEGRADED",
			"One or more subsystems are unavailable", health)
	}
}

// checkSubsystemHealth checks the health of all subsystems.
func (s *Server) checkSubsystemHealth() map[string]bool {
	subsystems := make(map[string]bool)

	subsystems["events"] = s.telemetryHub != nil
	subsystems["orchestrator"] = s.orchestrator != nil
	subsystems["resolver"] = s.resolver != nil

	// Auth is optional, so always considered healthy
	subsystems["auth"] = true

	return subsystems
}

// decodeStrict decodes a JSON request body rejecting unknown fields and
// trailing data. On failure it writes a BAD_REQUEST envelope and returns
// false.
func decodeStrict(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON or unknown fields", nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Trailing data after JSON object", nil)
		return false
	}
	return true
}

// writeMappedError maps a domain error to its HTTP status and envelope.
func writeMappedError(w http.ResponseWriter, err error) {
	status, body := ToAPIError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
