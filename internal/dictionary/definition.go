package dictionary

import (
	"errors"
	"strings"
)

// CommandDefinition is one canonical voice command in a specific locale.
type CommandDefinition struct {
	ID               string   `json:"id"`
	Locale           string   `json:"locale"`
	PrimaryText      string   `json:"primaryText"`
	Synonyms         []string `json:"synonyms,omitempty"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	Priority         int      `json:"priority"`
	IsFallbackLocale bool     `json:"isFallbackLocale"`
}

// ErrDuplicateDefinition indicates a second definition with the same
// (id, locale) pair.
var ErrDuplicateDefinition = errors.New("DUPLICATE_DEFINITION")

// Store is the lookup contract the resolver consumes. Implementations must
// be safe for concurrent readers.
type Store interface {
	// LookupExact returns the definition whose primary text or one of
	// whose synonyms equals the given text, case-insensitively.
	LookupExact(text, locale string) (*CommandDefinition, bool)

	// LookupFuzzy returns the closest definition within maxDistance edits,
	// ranked by edit distance ascending, then priority descending, then
	// insertion order.
	LookupFuzzy(text, locale string, maxDistance int) (*CommandDefinition, bool)

	// FallbackLocale returns the locale always consulted when the
	// requested locale misses.
	FallbackLocale() string
}

// Normalize canonicalizes recognized speech text for matching: lowercase,
// trimmed, with internal whitespace runs collapsed to single spaces. The
// resolver and the orchestrator apply the same normalization so every tier
// sees identical text.
func Normalize(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// matchTexts returns every matchable surface form of a definition,
// normalized: the primary text followed by synonyms in declared order.
func matchTexts(def *CommandDefinition) []string {
	texts := make([]string, 0, len(def.Synonyms)+1)
	texts = append(texts, Normalize(def.PrimaryText))
	for _, synonym := range def.Synonyms {
		texts = append(texts, Normalize(synonym))
	}
	return texts
}
