// Package command implements the voice-command orchestrator for the Voice
// Control Core.
//
// The orchestrator gates requests on recognition confidence, normalizes the
// utterance once, and executes it through the ordered backend chain
// (primary, secondary, tertiary) with per-tier eligibility rules. Tier
// failures fall through to the next tier; the tertiary tier is always
// terminal. Every executed call lands in a bounded history ring buffer and
// per-tier metrics counters, emits events to the telemetry hub, and writes
// audit records.
package command
