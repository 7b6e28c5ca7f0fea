package telemetry

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voice-control/vcc/internal/config"
)

// threadSafeResponseWriter captures SSE events in a thread-safe way
type threadSafeResponseWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	headers http.Header
}

func newThreadSafeResponseWriter() *threadSafeResponseWriter {
	return &threadSafeResponseWriter{
		headers: make(http.Header),
	}
}

func (w *threadSafeResponseWriter) Header() http.Header {
	return w.headers
}

func (w *threadSafeResponseWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(data)
}

func (w *threadSafeResponseWriter) WriteHeader(statusCode int) {
	// No-op for testing
}

func (w *threadSafeResponseWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestNewHub(t *testing.T) {
	cfg := config.LoadBaseline()
	hub := NewHub(cfg)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}

	if hub.clients == nil {
		t.Error("Hub clients map not initialized")
	}

	if hub.buffer == nil {
		t.Error("Hub replay buffer not initialized")
	}

	if hub.config != cfg {
		t.Error("Hub config not set correctly")
	}

	// Clean up
	hub.Stop()
}

func TestHubPublish(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	// Publish an event without clients
	event := Event{
		Type: "executionStarted",
		Data: map[string]interface{}{
			"requestId": "req-1",
			"text":      "go back",
		},
	}

	err := hub.Publish(event)
	if err != nil {
		t.Fatalf("Publish() failed: %v", err)
	}

	if hub.buffer.GetSize() != 1 {
		t.Errorf("Expected 1 buffered event, got %d", hub.buffer.GetSize())
	}
}

func TestEventIDsMonotonic(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	for i := 0; i < 5; i++ {
		hub.Publish(Event{Type: "executionCompleted", Data: map[string]interface{}{}})
	}

	events := hub.buffer.GetEventsAfter(0)
	if len(events) != 5 {
		t.Fatalf("Expected 5 buffered events, got %d", len(events))
	}
	for i, event := range events {
		if event.ID != int64(i+1) {
			t.Errorf("Event %d: expected ID %d, got %d", i, i+1, event.ID)
		}
	}
}

func TestEventBuffer(t *testing.T) {
	capacity := 5
	buffer := NewEventBuffer(capacity, time.Hour)

	if buffer.GetCapacity() != capacity {
		t.Errorf("Expected capacity %d, got %d", capacity, buffer.GetCapacity())
	}

	if buffer.GetSize() != 0 {
		t.Errorf("Expected initial size 0, got %d", buffer.GetSize())
	}

	// Add events past capacity
	for i := 1; i <= 7; i++ {
		buffer.AddEvent(Event{
			ID:   int64(i),
			Type: "tierFallback",
			Data: map[string]interface{}{
				"index": i,
			},
		})
	}

	// Should maintain capacity, oldest evicted
	if buffer.GetSize() != capacity {
		t.Errorf("Expected size %d, got %d", capacity, buffer.GetSize())
	}

	events := buffer.GetEventsAfter(0)
	if len(events) != capacity || events[0].ID != 3 {
		t.Errorf("Expected retained events 3..7, got %+v", events)
	}

	// Test GetEventsAfter mid-buffer
	events = buffer.GetEventsAfter(5)
	if len(events) != 2 {
		t.Errorf("Expected 2 events after ID 5, got %d", len(events))
	}
}

func TestEventBufferRetention(t *testing.T) {
	buffer := NewEventBuffer(10, 10*time.Millisecond)

	buffer.AddEvent(Event{ID: 1, Type: "executionCompleted", Data: map[string]interface{}{}})
	time.Sleep(30 * time.Millisecond)
	buffer.AddEvent(Event{ID: 2, Type: "executionCompleted", Data: map[string]interface{}{}})

	events := buffer.GetEventsAfter(0)
	if len(events) != 1 || events[0].ID != 2 {
		t.Errorf("Expected only the fresh event replayed, got %+v", events)
	}
}

func TestHubStop(t *testing.T) {
	hub := NewHub(config.LoadBaseline())

	// Stop the hub
	hub.Stop()

	// Check that clients are cleaned up
	hub.mu.RLock()
	clientCount := len(hub.clients)
	hub.mu.RUnlock()

	if clientCount != 0 {
		t.Errorf("Expected 0 clients after stop, got %d", clientCount)
	}
}

func TestEventTypes(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	eventTypes := []string{
		"ready",
		"executionStarted",
		"tierFallback",
		"executionCompleted",
		"validationRejected",
		"fallbackModeChanged",
		"heartbeat",
	}

	for _, eventType := range eventTypes {
		event := Event{
			Type: eventType,
			Data: map[string]interface{}{
				"test": "data",
			},
		}

		if err := hub.Publish(event); err != nil {
			t.Errorf("Publish() failed for event type %s: %v", eventType, err)
		}
	}
}

func TestConcurrentPublish(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	// Publish events concurrently without clients
	done := make(chan bool)

	for i := 0; i < 10; i++ {
		go func(index int) {
			event := Event{
				Type: "executionCompleted",
				Data: map[string]interface{}{
					"index": index,
				},
			}
			hub.Publish(event)
			done <- true
		}(i)
	}

	// Wait for all goroutines to complete
	for i := 0; i < 10; i++ {
		<-done
	}
}

func TestHubSubscribeBasic(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	// Create test request
	req := httptest.NewRequest("GET", "/events", nil)
	req.Header.Set("Accept", "text/event-stream")

	// Create thread-safe response writer
	w := newThreadSafeResponseWriter()

	// Subscribe in a goroutine to check client registration
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- hub.Subscribe(ctx, w, req)
	}()

	// Wait a bit for client to be registered
	time.Sleep(10 * time.Millisecond)

	// Check that client was registered
	hub.mu.RLock()
	clientCount := len(hub.clients)
	hub.mu.RUnlock()

	if clientCount != 1 {
		t.Errorf("Expected 1 client, got %d", clientCount)
	}

	// Wait for subscribe to complete
	err := <-done
	if err != nil && err != context.DeadlineExceeded {
		t.Fatalf("Subscribe() failed: %v", err)
	}

	// Check response headers
	if w.Header().Get("Content-Type") != "text/event-stream; charset=utf-8" {
		t.Error("Content-Type header not set correctly")
	}

	if w.Header().Get("Cache-Control") != "no-cache" {
		t.Error("Cache-Control header not set correctly")
	}

	// Wait for context to timeout and client to be cleaned up
	time.Sleep(150 * time.Millisecond)

	// Check that client was cleaned up
	hub.mu.RLock()
	clientCount = len(hub.clients)
	hub.mu.RUnlock()

	if clientCount != 0 {
		t.Errorf("Expected 0 clients after timeout, got %d", clientCount)
	}
}

func TestSubscribeReceivesHeartbeat(t *testing.T) {
	cfg := config.LoadBaseline()
	// Use shorter heartbeat interval for testing (50ms instead of 15s)
	cfg.HeartbeatInterval = 50 * time.Millisecond
	cfg.HeartbeatJitter = 5 * time.Millisecond

	hub := NewHub(cfg)
	defer hub.Stop()

	req := httptest.NewRequest("GET", "/events", nil)
	req.Header.Set("Accept", "text/event-stream")

	w := newThreadSafeResponseWriter()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	subscribeDone := make(chan error, 1)
	go func() {
		subscribeDone <- hub.Subscribe(ctx, w, req)
	}()

	// Wait for subscription to start and heartbeats to fire
	time.Sleep(250 * time.Millisecond)

	response := w.String()

	select {
	case err := <-subscribeDone:
		if err != nil && err != context.DeadlineExceeded {
			t.Fatalf("Subscribe() failed: %v", err)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Subscribe() did not complete after timeout")
	}

	// Check for ready event
	if !strings.Contains(response, "event: ready") {
		t.Error("Expected ready event in response")
	}

	// Check for heartbeat events
	heartbeatCount := strings.Count(response, "event: heartbeat")
	if heartbeatCount < 1 {
		t.Errorf("Expected at least 1 heartbeat event, got %d. Response: %s", heartbeatCount, response)
	}

	// Verify SSE format
	lines := strings.Split(response, "\n")
	hasEventType := false
	hasData := false

	for _, line := range lines {
		if strings.HasPrefix(line, "event: ") {
			hasEventType = true
		}
		if strings.HasPrefix(line, "data: ") {
			hasData = true
		}
	}

	if !hasEventType {
		t.Error("Expected event type in SSE response")
	}
	if !hasData {
		t.Error("Expected data in SSE response")
	}
}

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	req := httptest.NewRequest("GET", "/events", nil)
	req.Header.Set("Accept", "text/event-stream")

	w := newThreadSafeResponseWriter()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- hub.Subscribe(ctx, w, req)
	}()

	time.Sleep(50 * time.Millisecond)

	hub.Publish(Event{
		Type: "executionCompleted",
		Data: map[string]interface{}{
			"requestId": "req-42",
			"tier":      3,
			"outcome":   "success",
		},
	})

	time.Sleep(100 * time.Millisecond)
	response := w.String()

	<-done

	if !strings.Contains(response, "event: executionCompleted") {
		t.Errorf("Expected executionCompleted event, got: %s", response)
	}
	if !strings.Contains(response, `"requestId":"req-42"`) {
		t.Errorf("Expected event payload in response, got: %s", response)
	}
}

func TestLastEventIDReplay(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	// Publish events before any client connects
	for i := 1; i <= 5; i++ {
		hub.Publish(Event{
			Type: "executionCompleted",
			Data: map[string]interface{}{
				"seq": i,
			},
		})
	}

	// Reconnect claiming to have seen event 2
	req := httptest.NewRequest("GET", "/events", nil)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Last-Event-ID", "2")

	w := newThreadSafeResponseWriter()

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- hub.Subscribe(ctx, w, req)
	}()

	time.Sleep(50 * time.Millisecond)
	response := w.String()

	<-done

	// Events 3, 4, 5 replayed; 1 and 2 skipped
	for _, id := range []int{3, 4, 5} {
		if !strings.Contains(response, fmt.Sprintf("id: %d\n", id)) {
			t.Errorf("Expected replay of event %d, got: %s", id, response)
		}
	}
	if strings.Contains(response, `"seq":1`) || strings.Contains(response, `"seq":2`) {
		t.Errorf("Events at or before Last-Event-ID must not be replayed: %s", response)
	}
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	hub := NewHub(config.LoadBaseline())
	defer hub.Stop()

	const subscribers = 3
	writers := make([]*threadSafeResponseWriter, subscribers)
	done := make(chan error, subscribers)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	for i := 0; i < subscribers; i++ {
		writers[i] = newThreadSafeResponseWriter()
		req := httptest.NewRequest("GET", "/events", nil)
		go func(w *threadSafeResponseWriter, r *http.Request) {
			done <- hub.Subscribe(ctx, w, r)
		}(writers[i], req)
	}

	time.Sleep(50 * time.Millisecond)

	hub.Publish(Event{
		Type: "fallbackModeChanged",
		Data: map[string]interface{}{"enabled": true},
	})

	time.Sleep(100 * time.Millisecond)

	for i := 0; i < subscribers; i++ {
		<-done
	}

	for i, w := range writers {
		if !strings.Contains(w.String(), "event: fallbackModeChanged") {
			t.Errorf("Subscriber %d did not receive the event: %s", i, w.String())
		}
	}
}
