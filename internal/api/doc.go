// Package api implements the HTTP host for the voice control engine.
//
// The API exposes command execution, dictionary resolution, global actions,
// engine observability, and the SSE event stream, translating HTTP requests
// into orchestrator and resolver calls behind a unified response envelope.
package api
