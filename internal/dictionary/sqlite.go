package dictionary

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists command definitions in SQLite. Fuzzy ranking happens
// in Go over the locale's rows so that both store implementations share
// identical lookup semantics.
type SQLiteStore struct {
	db             *sql.DB
	fallbackLocale string

	mu       sync.Mutex
	position int64 // monotonic insertion counter
}

// Compile-time assertion that SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS commands (
	id                 TEXT    NOT NULL,
	locale             TEXT    NOT NULL,
	primary_text       TEXT    NOT NULL,
	synonyms           TEXT    NOT NULL DEFAULT '[]',
	description        TEXT    NOT NULL DEFAULT '',
	category           TEXT    NOT NULL DEFAULT '',
	priority           INTEGER NOT NULL DEFAULT 0,
	is_fallback_locale INTEGER NOT NULL DEFAULT 0,
	position           INTEGER NOT NULL,
	PRIMARY KEY (id, locale)
);
CREATE INDEX IF NOT EXISTS idx_commands_locale ON commands(locale, position);
`

// OpenSQLiteStore opens (creating if needed) a SQLite command dictionary.
func OpenSQLiteStore(path, fallbackLocale string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("dictionary path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open dictionary db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping dictionary db: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply dictionary schema: %w", err)
	}

	store := &SQLiteStore{db: db, fallbackLocale: fallbackLocale}

	// Resume the insertion counter past existing rows
	row := db.QueryRow(`SELECT COALESCE(MAX(position), 0) FROM commands`)
	if err := row.Scan(&store.position); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read dictionary position: %w", err)
	}

	return store, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts a definition, enforcing (id, locale) uniqueness.
func (s *SQLiteStore) Add(def CommandDefinition) error {
	if def.ID == "" || def.Locale == "" {
		return fmt.Errorf("definition requires id and locale, got id=%q locale=%q", def.ID, def.Locale)
	}

	synonyms, err := json.Marshal(def.Synonyms)
	if err != nil {
		return fmt.Errorf("marshal synonyms: %w", err)
	}

	isFallback := 0
	if def.Locale == s.fallbackLocale {
		isFallback = 1
	}

	s.mu.Lock()
	s.position++
	position := s.position
	s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO commands (id, locale, primary_text, synonyms, description, category, priority, is_fallback_locale, position)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		def.ID, def.Locale, def.PrimaryText, string(synonyms), def.Description, def.Category, def.Priority, isFallback, position,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: id=%s locale=%s", ErrDuplicateDefinition, def.ID, def.Locale)
		}
		return fmt.Errorf("insert definition: %w", err)
	}

	return nil
}

// LookupExact returns the definition matching the text exactly,
// case-insensitively, in the given locale.
func (s *SQLiteStore) LookupExact(text, locale string) (*CommandDefinition, bool) {
	query := Normalize(text)
	if query == "" {
		return nil, false
	}

	defs, err := s.loadLocale(locale)
	if err != nil {
		return nil, false
	}

	return findExact(query, defs)
}

// LookupFuzzy returns the closest definition within maxDistance edits in the
// given locale.
func (s *SQLiteStore) LookupFuzzy(text, locale string, maxDistance int) (*CommandDefinition, bool) {
	query := Normalize(text)
	if query == "" {
		return nil, false
	}

	defs, err := s.loadLocale(locale)
	if err != nil {
		return nil, false
	}

	return rankFuzzy(query, defs, maxDistance)
}

// FallbackLocale returns the designated fallback locale.
func (s *SQLiteStore) FallbackLocale() string {
	return s.fallbackLocale
}

// loadLocale reads a locale's definitions in insertion order.
func (s *SQLiteStore) loadLocale(locale string) ([]*CommandDefinition, error) {
	rows, err := s.db.Query(
		`SELECT id, locale, primary_text, synonyms, description, category, priority, is_fallback_locale
		 FROM commands WHERE locale = ? ORDER BY position ASC`,
		locale,
	)
	if err != nil {
		return nil, fmt.Errorf("query locale %s: %w", locale, err)
	}
	defer func() { _ = rows.Close() }()

	var defs []*CommandDefinition
	for rows.Next() {
		var def CommandDefinition
		var synonyms string
		var isFallback int
		if err := rows.Scan(&def.ID, &def.Locale, &def.PrimaryText, &synonyms, &def.Description, &def.Category, &def.Priority, &isFallback); err != nil {
			return nil, fmt.Errorf("scan definition: %w", err)
		}
		if err := json.Unmarshal([]byte(synonyms), &def.Synonyms); err != nil {
			return nil, fmt.Errorf("unmarshal synonyms for %s: %w", def.ID, err)
		}
		def.IsFallbackLocale = isFallback == 1
		defs = append(defs, &def)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locale %s: %w", locale, err)
	}

	return defs, nil
}
