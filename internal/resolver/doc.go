// Package resolver converts recognized speech text into a canonical command
// definition via the dictionary store.
//
// Resolution is deterministic and side-effect free: normalize, exact match
// on the requested locale, fuzzy match on the requested locale, then the
// same two steps against the fallback locale. Identical input against an
// identical store snapshot always yields an identical result, which keeps
// the orchestrator's gating logic testable in isolation.
package resolver
