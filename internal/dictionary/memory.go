package dictionary

import (
	"fmt"
	"sync"
)

// MemoryStore is an insertion-ordered, in-memory command dictionary. It
// backs tests and the default boot path when no SQLite dictionary is
// configured.
type MemoryStore struct {
	mu             sync.RWMutex
	fallbackLocale string
	byLocale       map[string][]*CommandDefinition
	seen           map[string]bool // "id\x00locale" uniqueness guard
}

// Compile-time assertion that MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store with the given fallback
// locale.
func NewMemoryStore(fallbackLocale string) *MemoryStore {
	return &MemoryStore{
		fallbackLocale: fallbackLocale,
		byLocale:       make(map[string][]*CommandDefinition),
		seen:           make(map[string]bool),
	}
}

// Add appends a definition, preserving insertion order within its locale.
func (s *MemoryStore) Add(def CommandDefinition) error {
	if def.ID == "" || def.Locale == "" {
		return fmt.Errorf("definition requires id and locale, got id=%q locale=%q", def.ID, def.Locale)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := def.ID + "\x00" + def.Locale
	if s.seen[key] {
		return fmt.Errorf("%w: id=%s locale=%s", ErrDuplicateDefinition, def.ID, def.Locale)
	}
	s.seen[key] = true

	def.IsFallbackLocale = def.Locale == s.fallbackLocale
	stored := def
	s.byLocale[def.Locale] = append(s.byLocale[def.Locale], &stored)

	return nil
}

// MustAdd is Add for test and seed fixtures; it panics on error.
func (s *MemoryStore) MustAdd(def CommandDefinition) {
	if err := s.Add(def); err != nil {
		panic(err)
	}
}

// LookupExact returns the definition matching the text exactly,
// case-insensitively, in the given locale.
func (s *MemoryStore) LookupExact(text, locale string) (*CommandDefinition, bool) {
	query := Normalize(text)
	if query == "" {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return findExact(query, s.byLocale[locale])
}

// LookupFuzzy returns the closest definition within maxDistance edits in the
// given locale.
func (s *MemoryStore) LookupFuzzy(text, locale string, maxDistance int) (*CommandDefinition, bool) {
	query := Normalize(text)
	if query == "" {
		return nil, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return rankFuzzy(query, s.byLocale[locale], maxDistance)
}

// FallbackLocale returns the designated fallback locale.
func (s *MemoryStore) FallbackLocale() string {
	return s.fallbackLocale
}

// Count returns the number of definitions in a locale.
func (s *MemoryStore) Count(locale string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byLocale[locale])
}
