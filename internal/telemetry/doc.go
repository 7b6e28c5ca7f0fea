// Package telemetry implements the engine event hub.
//
// The hub fans out execution events to all SSE clients over a single
// global stream and keeps a bounded replay buffer so clients can resume
// after reconnects using Last-Event-ID headers.
package telemetry
