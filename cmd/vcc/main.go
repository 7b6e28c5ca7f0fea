// Package main implements the voice control engine entry point.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voice-control/vcc/internal/api"
	"github.com/voice-control/vcc/internal/audit"
	"github.com/voice-control/vcc/internal/auth"
	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/backend/dictionarycmd"
	"github.com/voice-control/vcc/internal/backend/static"
	"github.com/voice-control/vcc/internal/command"
	"github.com/voice-control/vcc/internal/config"
	"github.com/voice-control/vcc/internal/dictionary"
	"github.com/voice-control/vcc/internal/resolver"
	"github.com/voice-control/vcc/internal/telemetry"
)

const (
	// Service configuration
	DefaultPort = "8000"
	DefaultAddr = ":" + DefaultPort
	Version     = "1.0.0"
)

func main() {
	log.Printf("Starting voice control engine v%s", Version)

	// Step 1: Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Println("Configuration loaded successfully")

	// Step 2: Initialize event hub
	hub := telemetry.NewHub(cfg)
	if hub == nil {
		log.Fatal("Failed to create event hub")
	}
	log.Println("Event hub initialized")

	// Step 3: Initialize audit logger
	auditLogger, err := audit.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}
	log.Println("Audit logger initialized")

	// Step 4: Open the command dictionary
	store, closeStore, err := openDictionary(cfg)
	if err != nil {
		log.Fatalf("Failed to open command dictionary: %v", err)
	}
	defer closeStore()
	log.Println("Command dictionary opened")

	res := resolver.New(store)

	// Step 5: Create and initialize the orchestrator with the backend chain
	orchestrator := command.NewOrchestrator(hub, cfg)
	orchestrator.SetAuditLogger(auditLogger)
	orchestrator.SetActionDispatcher(&loggingDispatcher{})

	primary := dictionarycmd.New(store, &loggingPerformer{}, cfg.FallbackLocale)
	if err := orchestrator.RegisterBackend(backend.TierPrimary, primary); err != nil {
		log.Fatalf("Failed to register primary backend: %v", err)
	}
	if err := orchestrator.RegisterBackend(backend.TierTertiary, static.New(staticHandlers())); err != nil {
		log.Fatalf("Failed to register tertiary backend: %v", err)
	}
	if err := orchestrator.Initialize(); err != nil {
		log.Fatalf("Failed to initialize orchestrator: %v", err)
	}
	log.Println("Orchestrator initialized")

	// Step 6: Create API server with all components
	server, err := buildServer(cfg, hub, orchestrator, res)
	if err != nil {
		log.Fatalf("Failed to create API server: %v", err)
	}
	log.Println("API server created")

	// Step 7: Start HTTP server
	addr := getServerAddress()
	log.Printf("Starting HTTP server on %s", addr)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(addr); err != nil {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	// Wait a moment for server to start
	time.Sleep(100 * time.Millisecond)

	// Log successful startup
	log.Printf("Voice control engine started successfully")
	log.Printf("Health endpoint: http://localhost%s/api/v1/health", addr)
	log.Printf("API base URL: http://localhost%s/api/v1", addr)

	// Set up graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal or server error
	select {
	case sig := <-shutdown:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop the orchestrator
	if err := orchestrator.Cleanup(); err != nil {
		log.Printf("Error cleaning up orchestrator: %v", err)
	}
	log.Println("Orchestrator stopped")

	// Stop event hub
	hub.Stop()
	log.Println("Event hub stopped")

	// Stop audit logger
	if err := auditLogger.Close(); err != nil {
		log.Printf("Error closing audit logger: %v", err)
	}
	log.Println("Audit logger closed")

	// Stop HTTP server
	if err := server.Stop(ctx); err != nil {
		log.Printf("Error stopping HTTP server: %v", err)
	} else {
		log.Println("HTTP server stopped gracefully")
	}

	log.Println("Voice control engine shutdown complete")
}

// buildServer creates the API server, with bearer auth when the config
// carries an HS256 secret or an RS256 public key.
func buildServer(cfg *config.EngineConfig, hub *telemetry.Hub, orchestrator *command.Orchestrator, res *resolver.Resolver) (*api.Server, error) {
	opts := []api.Option{
		api.WithTimeouts(cfg.HTTPReadTimeout, cfg.HTTPWriteTimeout, cfg.HTTPIdleTimeout),
	}

	if cfg.AuthSecret == "" && cfg.AuthPublicKeyPath == "" {
		log.Println("Auth disabled: no secret or public key configured")
		return api.NewServer(hub, orchestrator, res, opts...), nil
	}

	verifierCfg := auth.VerifierConfig{Algorithm: "HS256", SecretKey: cfg.AuthSecret}
	if cfg.AuthPublicKeyPath != "" {
		pem, err := os.ReadFile(cfg.AuthPublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read auth public key: %w", err)
		}
		verifierCfg = auth.VerifierConfig{Algorithm: "RS256", PublicKeyPEM: string(pem)}
	}

	verifier, err := auth.NewVerifier(verifierCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	log.Printf("Auth enabled (%s)", verifierCfg.Algorithm)
	opts = append(opts, api.WithAuth(auth.NewMiddlewareWithVerifier(verifier)))
	return api.NewServer(hub, orchestrator, res, opts...), nil
}

// openDictionary selects the SQLite store when a path is configured and the
// seeded in-memory store otherwise.
func openDictionary(cfg *config.EngineConfig) (dictionary.Store, func(), error) {
	if cfg.DictionaryPath != "" {
		store, err := dictionary.OpenSQLiteStore(cfg.DictionaryPath, cfg.FallbackLocale)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				log.Printf("Error closing dictionary store: %v", err)
			}
		}, nil
	}

	store := dictionary.NewMemoryStore(cfg.FallbackLocale)
	seedStore(store, cfg.FallbackLocale)
	return store, func() {}, nil
}

// seedStore loads the built-in command set into a fresh in-memory store.
func seedStore(store *dictionary.MemoryStore, locale string) {
	defs := []dictionary.CommandDefinition{
		{ID: "nav_back", PrimaryText: "go back", Synonyms: []string{"navigate back", "back"}, Category: "navigation"},
		{ID: "nav_home", PrimaryText: "go home", Synonyms: []string{"home screen"}, Category: "navigation"},
		{ID: "scroll_up", PrimaryText: "scroll up", Category: "navigation"},
		{ID: "scroll_down", PrimaryText: "scroll down", Category: "navigation"},
		{ID: "open_settings", PrimaryText: "open settings", Synonyms: []string{"settings"}, Category: "system"},
		{ID: "open_notifications", PrimaryText: "show notifications", Synonyms: []string{"notifications"}, Category: "system"},
		{ID: "volume_up", PrimaryText: "volume up", Synonyms: []string{"louder"}, Category: "media"},
		{ID: "volume_down", PrimaryText: "volume down", Synonyms: []string{"quieter"}, Category: "media"},
	}
	for _, def := range defs {
		def.Locale = locale
		def.IsFallbackLocale = true
		store.MustAdd(def)
	}
}

// staticHandlers builds the tertiary tier's fixed phrase table. Handlers
// log the dispatch; platform integration replaces them in deployment.
func staticHandlers() map[string]static.HandlerFunc {
	logHandler := func(name string) static.HandlerFunc {
		return func(ctx context.Context, cmdCtx map[string]string) error {
			log.Printf("static handler: %s", name)
			return nil
		}
	}
	return map[string]static.HandlerFunc{
		"go back":       logHandler("go back"),
		"go home":       logHandler("go home"),
		"scroll up":     logHandler("scroll up"),
		"scroll down":   logHandler("scroll down"),
		"open settings": logHandler("open settings"),
	}
}

// loggingPerformer is the default platform hookup for the primary backend.
type loggingPerformer struct{}

func (p *loggingPerformer) Perform(ctx context.Context, def *dictionary.CommandDefinition, cmdCtx map[string]string) error {
	log.Printf("performing command %s (%s)", def.ID, def.PrimaryText)
	return nil
}

// loggingDispatcher is the default platform hookup for global actions.
type loggingDispatcher struct{}

func (d *loggingDispatcher) DispatchGlobalAction(ctx context.Context, actionID string) (bool, error) {
	log.Printf("dispatching global action %s", actionID)
	return true, nil
}

// getServerAddress returns the server address from environment or default.
func getServerAddress() string {
	if addr := os.Getenv("VCC_ADDR"); addr != "" {
		return addr
	}
	return DefaultAddr
}
