package fake

import (
	"context"
	"errors"
	"testing"

	"github.com/voice-control/vcc/internal/backend"
	"github.com/voice-control/vcc/internal/backendtest"
)

func TestFakeConformance(t *testing.T) {
	backendtest.RunConformance(t, func() backend.Backend {
		return New()
	}, backendtest.Expectations{
		HandledText: "go back",
	})
}

func TestFakeRecordsCalls(t *testing.T) {
	b := New()

	_, err := b.Execute(context.Background(), "go back", map[string]string{"locale": "en-US"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_, _ = b.Execute(context.Background(), "scroll down", nil)

	calls := b.Calls()
	if len(calls) != 2 {
		t.Fatalf("Expected 2 calls, got %d", len(calls))
	}
	if calls[0].Text != "go back" || calls[0].CmdCtx["locale"] != "en-US" {
		t.Errorf("First call not recorded faithfully: %+v", calls[0])
	}
	if b.CallCount() != 2 {
		t.Errorf("Expected call count 2, got %d", b.CallCount())
	}
}

func TestFakeScriptedError(t *testing.T) {
	scripted := errors.New("SERVICE_DISCONNECTED")
	b := NewErroring(scripted)

	_, err := b.Execute(context.Background(), "go back", nil)
	if !errors.Is(err, scripted) {
		t.Errorf("Expected scripted error, got %v", err)
	}
}

func TestFakeScriptedFailure(t *testing.T) {
	b := NewFailing("no node matched")

	result, err := b.Execute(context.Background(), "go back", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Success {
		t.Error("Expected reported failure")
	}
	if result.Message != "no node matched" {
		t.Errorf("Expected scripted message, got %q", result.Message)
	}
}

func TestFakeScriptedPanic(t *testing.T) {
	b := New()
	b.Panic = "backend exploded"

	defer func() {
		if recovered := recover(); recovered == nil {
			t.Error("Expected scripted panic")
		}
	}()

	_, _ = b.Execute(context.Background(), "go back", nil)
}
