package config

import (
	"fmt"
	"strings"
)

// Validate enforces configuration invariants on the merged config.
func Validate(config *EngineConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateTierTimeouts(config); err != nil {
		return fmt.Errorf("tier timeout validation failed: %w", err)
	}

	if err := validateHeartbeat(config); err != nil {
		return fmt.Errorf("heartbeat validation failed: %w", err)
	}

	if err := validateBuffers(config); err != nil {
		return fmt.Errorf("buffer validation failed: %w", err)
	}

	if err := validateLocale(config); err != nil {
		return fmt.Errorf("locale validation failed: %w", err)
	}

	return nil
}

// validateTierTimeouts validates per-tier and global-action timeouts.
func validateTierTimeouts(config *EngineConfig) error {
	if config.TierTimeoutPrimary <= 0 {
		return fmt.Errorf("primary tier timeout must be positive, got %v", config.TierTimeoutPrimary)
	}
	if config.TierTimeoutSecondary <= 0 {
		return fmt.Errorf("secondary tier timeout must be positive, got %v", config.TierTimeoutSecondary)
	}
	if config.TierTimeoutTertiary <= 0 {
		return fmt.Errorf("tertiary tier timeout must be positive, got %v", config.TierTimeoutTertiary)
	}
	if config.GlobalActionTimeout <= 0 {
		return fmt.Errorf("global action timeout must be positive, got %v", config.GlobalActionTimeout)
	}
	return nil
}

// validateHeartbeat validates heartbeat timing parameters.
func validateHeartbeat(config *EngineConfig) error {
	if config.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %v", config.HeartbeatInterval)
	}

	// Jitter must be non-negative and at most 50% of interval
	maxJitter := config.HeartbeatInterval / 2
	if config.HeartbeatJitter < 0 {
		return fmt.Errorf("heartbeat jitter must be non-negative, got %v", config.HeartbeatJitter)
	}
	if config.HeartbeatJitter > maxJitter {
		return fmt.Errorf("heartbeat jitter %v exceeds 50%% of interval %v", config.HeartbeatJitter, config.HeartbeatInterval)
	}

	return nil
}

// validateBuffers validates event buffer and history sizing.
func validateBuffers(config *EngineConfig) error {
	if config.EventBufferSize <= 0 {
		return fmt.Errorf("event buffer size must be positive, got %d", config.EventBufferSize)
	}
	if config.EventBufferRetention <= 0 {
		return fmt.Errorf("event buffer retention must be positive, got %v", config.EventBufferRetention)
	}
	if config.HistoryCapacity <= 0 {
		return fmt.Errorf("history capacity must be positive, got %d", config.HistoryCapacity)
	}
	return nil
}

// validateLocale validates the fallback locale tag.
func validateLocale(config *EngineConfig) error {
	locale := strings.TrimSpace(config.FallbackLocale)
	if locale == "" {
		return fmt.Errorf("fallback locale must not be empty")
	}
	if locale != config.FallbackLocale {
		return fmt.Errorf("fallback locale must not contain surrounding whitespace, got %q", config.FallbackLocale)
	}
	return nil
}
