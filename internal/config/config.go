package config

import "time"

// EngineConfig holds timing, buffering, and hosting parameters for the
// voice-command engine.
type EngineConfig struct {
	// Per-tier execution timeouts. Each tier invocation is wrapped in a
	// bounded timeout so a hung backend cannot starve the caller.
	TierTimeoutPrimary   time.Duration
	TierTimeoutSecondary time.Duration
	TierTimeoutTertiary  time.Duration

	// Timeout for the global-action side channel.
	GlobalActionTimeout time.Duration

	// Event stream heartbeat configuration.
	HeartbeatInterval time.Duration
	HeartbeatJitter   time.Duration

	// Event buffer configuration for SSE replay.
	EventBufferSize      int
	EventBufferRetention time.Duration

	// Execution history ring buffer capacity.
	HistoryCapacity int

	// Locale consulted when the requested locale yields no match.
	FallbackLocale string

	// Path to a SQLite command dictionary. Empty selects the seeded
	// in-memory store.
	DictionaryPath string

	// Directory for audit logs.
	LogDir string

	// Bearer auth settings. AuthSecret enables HS256; AuthPublicKeyPath
	// points at an RS256 PEM public key. Both empty disables auth.
	AuthSecret        string
	AuthPublicKeyPath string

	// HTTP server timeouts.
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadBaseline returns the built-in default configuration.
func LoadBaseline() *EngineConfig {
	return &EngineConfig{
		// Primary and secondary tiers are expected to answer quickly;
		// the tertiary static table gets more room since it is terminal.
		TierTimeoutPrimary:   5 * time.Second,
		TierTimeoutSecondary: 5 * time.Second,
		TierTimeoutTertiary:  10 * time.Second,

		GlobalActionTimeout: 3 * time.Second,

		HeartbeatInterval: 15 * time.Second,
		HeartbeatJitter:   2 * time.Second,

		EventBufferSize:      256,
		EventBufferRetention: 1 * time.Hour,

		HistoryCapacity: 100,

		FallbackLocale: "en-US",

		DictionaryPath: "",
		LogDir:         "logs",

		HTTPReadTimeout:  30 * time.Second,
		HTTPWriteTimeout: 30 * time.Second,
		HTTPIdleTimeout:  120 * time.Second,
	}
}
