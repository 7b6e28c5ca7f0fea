package api

import (
	"context"
	"testing"

	"github.com/voice-control/vcc/internal/audit"
	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/backend/fake"
	"github.com/voice-control/vcc/internal/command"
	"github.com/voice-control/vcc/internal/config"
	"github.com/voice-control/vcc/internal/dictionary"
	"github.com/voice-control/vcc/internal/resolver"
	"github.com/voice-control/vcc/internal/telemetry"
)

// dispatcherFunc adapts a function to the ActionDispatcher port.
type dispatcherFunc func(ctx context.Context, actionID string) (bool, error)

func (f dispatcherFunc) DispatchGlobalAction(ctx context.Context, actionID string) (bool, error) {
	return f(ctx, actionID)
}

// setupAPITest creates a fully wired API test environment: seeded memory
// dictionary, fake primary and tertiary backends, accepting dispatcher.
func setupAPITest(t *testing.T) (*Server, *command.Orchestrator, *fake.Backend) {
	cfg := config.LoadBaseline()
	hub := telemetry.NewHub(cfg)
	t.Cleanup(func() { hub.Stop() })

	store := dictionary.NewMemoryStore("en-US")
	store.MustAdd(dictionary.CommandDefinition{
		ID:          "nav_back",
		Locale:      "en-US",
		PrimaryText: "go back",
		Synonyms:    []string{"navigate back", "back"},
	})
	store.MustAdd(dictionary.CommandDefinition{
		ID:          "open_settings",
		Locale:      "en-US",
		PrimaryText: "open settings",
	})
	res := resolver.New(store)

	orch := command.NewOrchestrator(hub, cfg)

	auditLogger, err := audit.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create audit logger: %v", err)
	}
	t.Cleanup(func() { auditLogger.Close() })
	orch.SetAuditLogger(auditLogger)

	primary := fake.New()
	if err := orch.RegisterBackend(backend.TierPrimary, primary); err != nil {
		t.Fatalf("RegisterBackend(primary) failed: %v", err)
	}
	if err := orch.RegisterBackend(backend.TierTertiary, fake.New()); err != nil {
		t.Fatalf("RegisterBackend(tertiary) failed: %v", err)
	}
	orch.SetActionDispatcher(dispatcherFunc(func(ctx context.Context, actionID string) (bool, error) {
		return true, nil
	}))

	if err := orch.Initialize(); err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	server := NewServer(hub, orch, res)

	return server, orch, primary
}
