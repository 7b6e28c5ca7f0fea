//
//
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/voice-control/vcc/internal/config"
)

// Event represents a telemetry event with SSE formatting.
type Event struct {
	ID   int64                  `json:"id,omitempty"`
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// Client represents an SSE client connection.
type Client struct {
	ID      string
	Writer  http.ResponseWriter
	Request *http.Request
	Context context.Context
	Cancel  context.CancelFunc
	LastID  int64
	Events  chan Event
	once    sync.Once
	mu      sync.Mutex // Protect Writer access
}

// Hub manages SSE distribution of engine events over a single global
// stream with a bounded replay buffer.
//
// LOCK ORDERING (if multiple locks are ever used):
// 1. h.mu (Hub's RWMutex) - protects the clients map and heartbeat state
// 2. EventBuffer.mu (buffer mutex) - protects buffer state
// 3. Client.once (sync.Once) - ensures single channel close
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	// Monotonic event ID counter for the stream
	nextID atomic.Int64

	// Bounded replay buffer
	buffer *EventBuffer

	// Configuration
	config *config.EngineConfig

	// Heartbeat ticker
	heartbeatTicker *time.Ticker
	stopHeartbeat   chan bool

	// Synchronization for shutdown
	done chan struct{}
	wg   sync.WaitGroup
}

// EventBuffer maintains a bounded buffer of recent events for replay.
// Overflow evicts the oldest entry; entries older than the retention
// window are not replayed.
type EventBuffer struct {
	mu        sync.RWMutex
	events    []bufferedEvent
	capacity  int
	retention time.Duration
}

type bufferedEvent struct {
	event Event
	at    time.Time
}

// NewHub creates a new telemetry hub with the specified configuration.
func NewHub(engineConfig *config.EngineConfig) *Hub {
	if engineConfig == nil {
		engineConfig = config.LoadBaseline()
	}
	return &Hub{
		clients: make(map[string]*Client),
		buffer:  NewEventBuffer(engineConfig.EventBufferSize, engineConfig.EventBufferRetention),
		config:  engineConfig,
		done:    make(chan struct{}),
	}
}

// Subscribe handles SSE client subscription with Last-Event-ID resume support.
func (h *Hub) Subscribe(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Cache-Control")

	// Create client context
	clientCtx, cancel := context.WithCancel(ctx)

	// Generate client ID
	clientID := fmt.Sprintf("client_%d", time.Now().UnixNano())

	// Parse Last-Event-ID header for resume
	lastEventID := int64(0)
	if lastIDStr := r.Header.Get("Last-Event-ID"); lastIDStr != "" {
		if id, err := strconv.ParseInt(lastIDStr, 10, 64); err == nil {
			lastEventID = id
		}
	}

	// Create client
	client := &Client{
		ID:      clientID,
		Writer:  w,
		Request: r,
		Context: clientCtx,
		Cancel:  cancel,
		LastID:  lastEventID,
		Events:  make(chan Event, 100), // Buffer for client events
	}

	// Register client
	h.mu.Lock()
	h.clients[clientID] = client
	h.mu.Unlock()

	// Send initial ready event
	if err := h.sendReadyEvent(client); err != nil {
		h.unregisterClient(clientID)
		return fmt.Errorf("failed to send ready event: %w", err)
	}

	// Replay buffered events if Last-Event-ID provided
	if lastEventID > 0 {
		if err := h.replayEvents(client, lastEventID); err != nil {
			h.unregisterClient(clientID)
			return fmt.Errorf("failed to replay events: %w", err)
		}
	}

	// Start heartbeat if this is the first client
	h.mu.Lock()
	if len(h.clients) == 1 && h.heartbeatTicker == nil {
		h.startHeartbeat()
	}
	h.mu.Unlock()

	// Handle client events (blocks until client disconnects)
	h.handleClient(client)

	return nil
}

// Publish assigns the next monotonic ID, buffers the event for replay,
// and fans it out to all connected clients. Slow clients drop events
// rather than block the publisher.
func (h *Hub) Publish(event Event) error {
	if event.ID == 0 {
		event.ID = h.nextID.Add(1)
	}

	h.buffer.AddEvent(event)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	// Send to all clients without holding the lock
	for _, client := range clients {
		select {
		case <-client.Context.Done():
			continue
		case <-h.done:
			return nil
		case client.Events <- event:
		case <-time.After(100 * time.Millisecond):
			// Drop event if client is slow to prevent blocking
		}
	}

	return nil
}

// sendReadyEvent sends the initial ready event to a client.
func (h *Hub) sendReadyEvent(client *Client) error {
	readyEvent := Event{
		ID:   h.nextID.Add(1),
		Type: "ready",
		Data: map[string]interface{}{
			"ts": time.Now().UTC().Format(time.RFC3339),
		},
	}

	return h.sendEventToClient(client, readyEvent)
}

// replayEvents replays buffered events for a client based on Last-Event-ID.
func (h *Hub) replayEvents(client *Client, lastEventID int64) error {
	for _, event := range h.buffer.GetEventsAfter(lastEventID) {
		if err := h.sendEventToClient(client, event); err != nil {
			return err
		}
	}
	return nil
}

// sendEventToClient sends a single event to a client via SSE.
func (h *Hub) sendEventToClient(client *Client, event Event) error {
	// Protect Writer access with mutex to prevent race conditions
	client.mu.Lock()
	defer client.mu.Unlock()

	// Format as SSE
	if event.ID > 0 {
		if _, err := fmt.Fprintf(client.Writer, "id: %d\n", event.ID); err != nil {
			return fmt.Errorf("failed to write event ID: %w", err)
		}
	}
	if _, err := fmt.Fprintf(client.Writer, "event: %s\n", event.Type); err != nil {
		return fmt.Errorf("failed to write event type: %w", err)
	}

	// Serialize data as JSON
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(client.Writer, "data: %s\n\n", string(data)); err != nil {
		return fmt.Errorf("failed to write event data: %w", err)
	}

	// Flush the response immediately
	if flusher, ok := client.Writer.(http.Flusher); ok {
		flusher.Flush()
	}

	return nil
}

// handleClient manages a client connection and event delivery.
func (h *Hub) handleClient(client *Client) {
	defer func() {
		// Use sync.Once to ensure the channel is only closed once
		client.once.Do(func() {
			close(client.Events)
		})
		h.unregisterClient(client.ID)
	}()

	for {
		// Check context first so cancellation wins over a ready event
		select {
		case <-client.Context.Done():
			return
		default:
		}

		timeout := time.NewTimer(100 * time.Millisecond)
		select {
		case <-client.Context.Done():
			timeout.Stop()
			return
		case <-timeout.C:
			// Loop continues, rechecks context
			continue
		case event, ok := <-client.Events:
			timeout.Stop()
			if !ok {
				return
			}
			if err := h.sendEventToClient(client, event); err != nil {
				return
			}
		}
	}
}

// unregisterClient removes a client from the hub.
func (h *Hub) unregisterClient(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, exists := h.clients[clientID]; exists {
		client.Cancel()
		// Don't close the channel here to avoid race with heartbeat
		// The channel will be closed when the client goroutine exits
		delete(h.clients, clientID)

		// Stop heartbeat if no clients remain
		if len(h.clients) == 0 && h.heartbeatTicker != nil {
			h.heartbeatTicker.Stop()
			h.heartbeatTicker = nil
			if h.stopHeartbeat != nil {
				close(h.stopHeartbeat)
				h.stopHeartbeat = nil
			}
		}
	}
}

// startHeartbeat starts the heartbeat ticker.
func (h *Hub) startHeartbeat() {
	// Caller must hold h.mu and verify h.heartbeatTicker == nil

	interval := h.config.HeartbeatInterval
	jitter := h.config.HeartbeatJitter

	// Add jitter to prevent thundering herd
	actualInterval := interval + time.Duration(float64(jitter)*0.5)

	h.heartbeatTicker = time.NewTicker(actualInterval)
	h.stopHeartbeat = make(chan bool)

	// Store references to avoid race conditions
	ticker := h.heartbeatTicker
	stopChan := h.stopHeartbeat

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer func() {
			h.mu.Lock()
			if h.heartbeatTicker != nil {
				h.heartbeatTicker.Stop()
			}
			h.mu.Unlock()
		}()

		for {
			select {
			case <-ticker.C:
				h.sendHeartbeat()
			case <-stopChan:
				return
			case <-h.done:
				return
			}
		}
	}()
}

// sendHeartbeat sends a heartbeat event to all clients.
func (h *Hub) sendHeartbeat() {
	h.Publish(Event{
		Type: "heartbeat",
		Data: map[string]interface{}{
			"ts": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// Stop stops the telemetry hub and cleans up resources.
func (h *Hub) Stop() {
	// Signal shutdown first
	close(h.done)

	// Force cancel all client contexts immediately
	h.mu.Lock()
	for _, client := range h.clients {
		client.Cancel()
	}
	h.mu.Unlock()

	// Stop heartbeat ticker
	h.mu.Lock()
	if h.heartbeatTicker != nil {
		h.heartbeatTicker.Stop()
		h.heartbeatTicker = nil
	}
	if h.stopHeartbeat != nil {
		close(h.stopHeartbeat)
		h.stopHeartbeat = nil
	}
	h.mu.Unlock()

	// Wait for all goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		// Clean shutdown
	case <-time.After(5 * time.Second):
		// Force cleanup after timeout - goroutines may be stuck
	}

	// Close all client connections
	h.mu.Lock()
	for _, client := range h.clients {
		client.Cancel()
		client.once.Do(func() {
			close(client.Events)
		})
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()
}

// NewEventBuffer creates an event buffer with the given capacity and
// retention window.
func NewEventBuffer(capacity int, retention time.Duration) *EventBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &EventBuffer{
		events:    make([]bufferedEvent, 0, capacity),
		capacity:  capacity,
		retention: retention,
	}
}

// AddEvent adds an event to the buffer, evicting the oldest on overflow.
func (b *EventBuffer) AddEvent(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, bufferedEvent{event: event, at: time.Now()})

	if len(b.events) > b.capacity {
		b.events = b.events[1:]
	}
}

// GetEventsAfter returns retained events with IDs after the specified ID.
// Events older than the retention window are excluded.
func (b *EventBuffer) GetEventsAfter(lastID int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cutoff := time.Time{}
	if b.retention > 0 {
		cutoff = time.Now().Add(-b.retention)
	}

	var result []Event
	for _, buffered := range b.events {
		if buffered.event.ID > lastID && buffered.at.After(cutoff) {
			result = append(result, buffered.event)
		}
	}

	return result
}

// GetCapacity returns the buffer capacity.
func (b *EventBuffer) GetCapacity() int {
	return b.capacity
}

// GetSize returns the current buffer size.
func (b *EventBuffer) GetSize() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.events)
}
