// Package backend defines the execution backend contract shared by all three
// tiers of the fallback chain, plus normalized error codes.
//
// Backends are pluggable: the orchestrator treats Primary, Secondary, and
// Tertiary as the same narrow contract and only varies the eligibility rules
// around them. Backend-specific error strings are normalized to stable codes
// via deterministic token tables so the orchestrator and the API layer never
// branch on raw backend messages.
package backend
