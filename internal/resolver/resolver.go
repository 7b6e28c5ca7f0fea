package resolver

import (
	"github.com/voice-control/vcc/internal/dictionary"
)

// MaxFuzzyDistance bounds fuzzy matching: candidates must be strictly
// closer than 3 edits.
const MaxFuzzyDistance = 2

// MatchType distinguishes how a resolution matched.
type MatchType string

const (
	MatchExact MatchType = "exact"
	MatchFuzzy MatchType = "fuzzy"
)

// Resolution is the outcome of resolving recognized text. When Found is
// false the remaining fields are zero.
type Resolution struct {
	Found         bool
	Definition    *dictionary.CommandDefinition
	MatchType     MatchType
	MatchedLocale string
}

// NotFound is the zero resolution.
var NotFound = Resolution{}

// Resolver resolves normalized speech text against a dictionary store.
type Resolver struct {
	store dictionary.Store
}

// New creates a resolver backed by the given store.
func New(store dictionary.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve normalizes rawText and matches it against the requested locale,
// falling back to the store's fallback locale when the requested locale
// misses. It never returns an error; a miss is the NotFound resolution.
func (r *Resolver) Resolve(rawText, requestedLocale string) Resolution {
	normalized := dictionary.Normalize(rawText)
	if normalized == "" {
		return NotFound
	}

	if res := r.resolveLocale(normalized, requestedLocale); res.Found {
		return res
	}

	fallback := r.store.FallbackLocale()
	if requestedLocale != fallback {
		if res := r.resolveLocale(normalized, fallback); res.Found {
			return res
		}
	}

	return NotFound
}

// resolveLocale runs the exact-then-fuzzy ladder against a single locale.
func (r *Resolver) resolveLocale(normalized, locale string) Resolution {
	if def, ok := r.store.LookupExact(normalized, locale); ok {
		return Resolution{
			Found:         true,
			Definition:    def,
			MatchType:     MatchExact,
			MatchedLocale: locale,
		}
	}

	if def, ok := r.store.LookupFuzzy(normalized, locale, MaxFuzzyDistance); ok {
		return Resolution{
			Found:         true,
			Definition:    def,
			MatchType:     MatchFuzzy,
			MatchedLocale: locale,
		}
	}

	return NotFound
}
