// Package audit implements the audit logger for the Voice Control Core.
//
// The audit logger provides append-only action logging with user, requestId,
// parameters, outcome, and timestamp information for compliance and debugging.
package audit
