// Package config loads and validates the Voice Control Core runtime
// configuration.
//
// Configuration is resolved in three layers: built-in baseline defaults,
// VCC_* environment variable overrides, and an optional config.json in the
// working directory. File values take precedence over environment values,
// and the merged result is validated before use.
package config
