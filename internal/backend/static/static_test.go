package static

import (
	"context"
	"errors"
	"testing"

	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/backendtest"
)

func TestStaticConformance(t *testing.T) {
	backendtest.RunConformance(t, func() backend.Backend {
		return New(map[string]HandlerFunc{
			"go back": func(ctx context.Context, cmdCtx map[string]string) error { return nil },
		})
	}, backendtest.Expectations{
		HandledText:   "go back",
		UnhandledText: "phrase outside the table",
	})
}

func TestExecuteHandledPhrase(t *testing.T) {
	var ran bool
	b := New(map[string]HandlerFunc{
		"Go Back": func(ctx context.Context, cmdCtx map[string]string) error {
			ran = true
			return nil
		},
	})

	result, err := b.Execute(context.Background(), "go back", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Success {
		t.Errorf("Expected success, got %+v", result)
	}
	if !ran {
		t.Error("Handler did not run")
	}
	if got := b.Handled(); len(got) != 1 || got[0] != "go back" {
		t.Errorf("Expected handled=[go back], got %v", got)
	}
}

func TestExecuteMissIsReportedFailure(t *testing.T) {
	b := New(map[string]HandlerFunc{})

	result, err := b.Execute(context.Background(), "unknown phrase", nil)
	if err != nil {
		t.Fatalf("Miss must not be an invocation error, got %v", err)
	}
	if result.Success {
		t.Error("Expected reported failure on table miss")
	}
}

func TestExecuteHandlerErrorIsReportedFailure(t *testing.T) {
	b := New(map[string]HandlerFunc{
		"scroll down": func(ctx context.Context, cmdCtx map[string]string) error {
			return errors.New("NODE_NOT_FOUND")
		},
	})

	result, err := b.Execute(context.Background(), "scroll down", nil)
	if err != nil {
		t.Fatalf("Handler error must not escape as invocation error, got %v", err)
	}
	if result.Success {
		t.Error("Expected reported failure when handler errors")
	}
	if result.Message != "NODE_NOT_FOUND" {
		t.Errorf("Expected handler error in message, got %q", result.Message)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	b := New(map[string]HandlerFunc{
		"go back": func(ctx context.Context, cmdCtx map[string]string) error { return nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Execute(ctx, "go back", nil); err == nil {
		t.Error("Expected context error for cancelled context")
	}
}

func TestPhrasesNormalized(t *testing.T) {
	b := New(map[string]HandlerFunc{
		"  Go   HOME ": func(ctx context.Context, cmdCtx map[string]string) error { return nil },
		"go back":      func(ctx context.Context, cmdCtx map[string]string) error { return nil },
	})

	phrases := b.Phrases()
	if len(phrases) != 2 || phrases[0] != "go back" || phrases[1] != "go home" {
		t.Errorf("Expected normalized sorted phrases, got %v", phrases)
	}
}
