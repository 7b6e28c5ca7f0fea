// Package dictionary defines the command dictionary contract consumed by the
// resolver, plus the normalization and fuzzy-ranking rules shared by every
// store implementation.
//
// Two implementations are provided: a seedable in-memory store used in tests
// and for default boot, and a SQLite-backed store for persistent command
// dictionaries. Both honor the same lookup semantics: exact matching is
// case-insensitive across primary text and synonyms, and fuzzy matching
// ranks by edit distance ascending, then declared priority descending, then
// insertion order.
package dictionary
