// Package backendtest provides a tier-agnostic conformance suite for
// execution backend implementations.
//
// Every backend, regardless of tier, must honor the same narrow contract:
// respect context cancellation, return a structured result or an error
// (never both meaningfully), and never panic on well-formed input. The
// suite takes a constructor so each subtest runs against a fresh instance.
package backendtest

import (
	"context"
	"testing"
	"time"

	"github.com/voice-control/vcc/internal/backend"
)

// Expectations configures the conformance suite for a specific backend.
type Expectations struct {
	// HandledText is an input the backend is expected to execute with a
	// successful result.
	HandledText string

	// HandledCmdCtx is the command context passed along with HandledText.
	HandledCmdCtx map[string]string

	// UnhandledText is an input the backend is expected to refuse, either
	// as a reported failure or an invocation error. Empty skips the check.
	UnhandledText string
}

// RunConformance runs the conformance suite against fresh backend instances.
func RunConformance(t *testing.T, newBackend func() backend.Backend, exp Expectations) {
	t.Run("HandledInput", func(t *testing.T) {
		b := newBackend()

		result, err := b.Execute(context.Background(), exp.HandledText, exp.HandledCmdCtx)
		if err != nil {
			t.Fatalf("Execute(%q) returned error: %v", exp.HandledText, err)
		}
		if result == nil {
			t.Fatalf("Execute(%q) returned nil result without error", exp.HandledText)
		}
		if !result.Success {
			t.Errorf("Execute(%q) expected success, got %+v", exp.HandledText, result)
		}
	})

	if exp.UnhandledText != "" {
		t.Run("UnhandledInput", func(t *testing.T) {
			b := newBackend()

			result, err := b.Execute(context.Background(), exp.UnhandledText, exp.HandledCmdCtx)
			if err == nil && result == nil {
				t.Fatalf("Execute(%q) returned neither result nor error", exp.UnhandledText)
			}
			if err == nil && result.Success {
				t.Errorf("Execute(%q) expected refusal, got success", exp.UnhandledText)
			}
		})
	}

	t.Run("CancelledContext", func(t *testing.T) {
		b := newBackend()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result, err := b.Execute(ctx, exp.HandledText, exp.HandledCmdCtx)
		if err == nil && result != nil && result.Success {
			t.Error("Execute with cancelled context must not report success")
		}
	})

	t.Run("DeadlineRespected", func(t *testing.T) {
		b := newBackend()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = b.Execute(ctx, exp.HandledText, exp.HandledCmdCtx)
		}()

		select {
		case <-done:
		case <-time.After(6 * time.Second):
			t.Error("Execute did not return within the context deadline")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		b := newBackend()

		first, err := b.Execute(context.Background(), exp.HandledText, exp.HandledCmdCtx)
		if err != nil {
			t.Fatalf("First Execute failed: %v", err)
		}

		second, err := b.Execute(context.Background(), exp.HandledText, exp.HandledCmdCtx)
		if err != nil {
			t.Fatalf("Second Execute failed: %v", err)
		}

		if first.Success != second.Success {
			t.Errorf("Repeated execution diverged: first=%+v second=%+v", first, second)
		}
	})
}
