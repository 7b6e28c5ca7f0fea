// Package fixtures provides shared command-definition fixtures for
// integration-style tests.
package fixtures

import (
	"github.com/voice-control/vcc/internal/dictionary"
)

// EnglishDefinitions returns the standard en-US command set used across
// the integration tests.
func EnglishDefinitions() []dictionary.CommandDefinition {
	return []dictionary.CommandDefinition{
		{
			ID:               "nav_back",
			Locale:           "en-US",
			PrimaryText:      "go back",
			Synonyms:         []string{"navigate back", "back"},
			Category:         "navigation",
			IsFallbackLocale: true,
		},
		{
			ID:               "nav_home",
			Locale:           "en-US",
			PrimaryText:      "go home",
			Synonyms:         []string{"home screen"},
			Category:         "navigation",
			IsFallbackLocale: true,
		},
		{
			ID:               "scroll_down",
			Locale:           "en-US",
			PrimaryText:      "scroll down",
			Category:         "navigation",
			IsFallbackLocale: true,
		},
		{
			ID:               "open_settings",
			Locale:           "en-US",
			PrimaryText:      "open settings",
			Synonyms:         []string{"settings"},
			Category:         "system",
			IsFallbackLocale: true,
		},
		{
			ID:               "volume_up",
			Locale:           "en-US",
			PrimaryText:      "volume up",
			Synonyms:         []string{"louder"},
			Category:         "media",
			IsFallbackLocale: true,
		},
	}
}

// GermanDefinitions returns a de-DE command set that overlaps the English
// IDs, for locale-fallback tests.
func GermanDefinitions() []dictionary.CommandDefinition {
	return []dictionary.CommandDefinition{
		{
			ID:          "nav_back",
			Locale:      "de-DE",
			PrimaryText: "geh zurück",
			Synonyms:    []string{"zurück"},
			Category:    "navigation",
		},
		{
			ID:          "open_settings",
			Locale:      "de-DE",
			PrimaryText: "einstellungen öffnen",
			Category:    "system",
		},
	}
}

// SeededStore returns an in-memory store loaded with the English and
// German command sets, with en-US as the fallback locale.
func SeededStore() *dictionary.MemoryStore {
	store := dictionary.NewMemoryStore("en-US")
	for _, def := range EnglishDefinitions() {
		store.MustAdd(def)
	}
	for _, def := range GermanDefinitions() {
		store.MustAdd(def)
	}
	return store
}
