package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Load merges baseline defaults + env overrides (VCC_*) + optional config.json.
func Load() (*EngineConfig, error) {
	config := LoadBaseline()

	// Apply environment variable overrides
	applyEnvOverrides(config)

	// Try to load from config.json if it exists
	if _, err := os.Stat("config.json"); err == nil {
		fileConfig, err := loadFromFile("config.json")
		if err != nil {
			return nil, fmt.Errorf("failed to load config.json: %w", err)
		}
		config = mergeConfigs(config, fileConfig)
	}

	// Validate the final configuration
	if err := Validate(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies VCC_* environment variables to the config.
func applyEnvOverrides(config *EngineConfig) {
	// Tier timeouts
	if val := os.Getenv("VCC_TIER_TIMEOUT_PRIMARY"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.TierTimeoutPrimary = duration
		}
	}

	if val := os.Getenv("VCC_TIER_TIMEOUT_SECONDARY"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.TierTimeoutSecondary = duration
		}
	}

	if val := os.Getenv("VCC_TIER_TIMEOUT_TERTIARY"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.TierTimeoutTertiary = duration
		}
	}

	if val := os.Getenv("VCC_GLOBAL_ACTION_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.GlobalActionTimeout = duration
		}
	}

	// Heartbeat configuration
	if val := os.Getenv("VCC_HEARTBEAT_INTERVAL"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HeartbeatInterval = duration
		}
	}

	if val := os.Getenv("VCC_HEARTBEAT_JITTER"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HeartbeatJitter = duration
		}
	}

	// Event buffer configuration
	if val := os.Getenv("VCC_EVENT_BUFFER_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil {
			config.EventBufferSize = size
		}
	}

	if val := os.Getenv("VCC_EVENT_BUFFER_RETENTION"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.EventBufferRetention = duration
		}
	}

	// History configuration
	if val := os.Getenv("VCC_HISTORY_CAPACITY"); val != "" {
		if capacity, err := strconv.Atoi(val); err == nil {
			config.HistoryCapacity = capacity
		}
	}

	// Locale and storage
	if val := os.Getenv("VCC_FALLBACK_LOCALE"); val != "" {
		config.FallbackLocale = val
	}

	if val := os.Getenv("VCC_DICTIONARY_PATH"); val != "" {
		config.DictionaryPath = val
	}

	if val := os.Getenv("VCC_LOG_DIR"); val != "" {
		config.LogDir = val
	}

	// Bearer auth
	if val := os.Getenv("VCC_AUTH_SECRET"); val != "" {
		config.AuthSecret = val
	}

	if val := os.Getenv("VCC_AUTH_PUBLIC_KEY_PATH"); val != "" {
		config.AuthPublicKeyPath = val
	}

	// HTTP server timeouts
	if val := os.Getenv("VCC_HTTP_READ_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HTTPReadTimeout = duration
		}
	}

	if val := os.Getenv("VCC_HTTP_WRITE_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HTTPWriteTimeout = duration
		}
	}

	if val := os.Getenv("VCC_HTTP_IDLE_TIMEOUT"); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			config.HTTPIdleTimeout = duration
		}
	}
}

// loadFromFile loads engine configuration from a JSON file.
func loadFromFile(filename string) (*EngineConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	var config EngineConfig
	if err := json.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// mergeConfigs merges file configuration with current configuration.
// File values take precedence over current values.
func mergeConfigs(current, file *EngineConfig) *EngineConfig {
	merged := *current

	if file.TierTimeoutPrimary != 0 {
		merged.TierTimeoutPrimary = file.TierTimeoutPrimary
	}
	if file.TierTimeoutSecondary != 0 {
		merged.TierTimeoutSecondary = file.TierTimeoutSecondary
	}
	if file.TierTimeoutTertiary != 0 {
		merged.TierTimeoutTertiary = file.TierTimeoutTertiary
	}
	if file.GlobalActionTimeout != 0 {
		merged.GlobalActionTimeout = file.GlobalActionTimeout
	}
	if file.HeartbeatInterval != 0 {
		merged.HeartbeatInterval = file.HeartbeatInterval
	}
	if file.HeartbeatJitter != 0 {
		merged.HeartbeatJitter = file.HeartbeatJitter
	}
	if file.EventBufferSize != 0 {
		merged.EventBufferSize = file.EventBufferSize
	}
	if file.EventBufferRetention != 0 {
		merged.EventBufferRetention = file.EventBufferRetention
	}
	if file.HistoryCapacity != 0 {
		merged.HistoryCapacity = file.HistoryCapacity
	}
	if file.FallbackLocale != "" {
		merged.FallbackLocale = file.FallbackLocale
	}
	if file.DictionaryPath != "" {
		merged.DictionaryPath = file.DictionaryPath
	}
	if file.LogDir != "" {
		merged.LogDir = file.LogDir
	}
	if file.AuthSecret != "" {
		merged.AuthSecret = file.AuthSecret
	}
	if file.AuthPublicKeyPath != "" {
		merged.AuthPublicKeyPath = file.AuthPublicKeyPath
	}
	if file.HTTPReadTimeout != 0 {
		merged.HTTPReadTimeout = file.HTTPReadTimeout
	}
	if file.HTTPWriteTimeout != 0 {
		merged.HTTPWriteTimeout = file.HTTPWriteTimeout
	}
	if file.HTTPIdleTimeout != 0 {
		merged.HTTPIdleTimeout = file.HTTPIdleTimeout
	}

	return &merged
}
