package command

import (
	"sync"
	"time"

	"github.com/voice-control/vcc/internal/backend"
)

// ExecutionRecord is one completed call, immutable once created.
type ExecutionRecord struct {
	RequestID     string       `json:"requestId"`
	Tier          backend.Tier `json:"tierReached"`
	Succeeded     bool         `json:"succeeded"`
	ElapsedMicros int64        `json:"elapsedMicros"`
	Timestamp     time.Time    `json:"timestamp"`
}

// History is a fixed-capacity ring buffer of execution records. Appends
// evict the oldest record on overflow with O(1) index wraparound; the
// critical section covers only the arena write, never a backend call.
type History struct {
	mu       sync.RWMutex
	records  []ExecutionRecord
	next     int
	size     int
	capacity int
}

// NewHistory creates a ring buffer with the given capacity.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		records:  make([]ExecutionRecord, capacity),
		capacity: capacity,
	}
}

// Append adds a record, evicting the oldest on overflow.
func (h *History) Append(record ExecutionRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.next] = record
	h.next = (h.next + 1) % h.capacity
	if h.size < h.capacity {
		h.size++
	}
}

// Snapshot returns the records in arrival order, oldest first.
func (h *History) Snapshot() []ExecutionRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]ExecutionRecord, 0, h.size)
	start := h.next - h.size
	if start < 0 {
		start += h.capacity
	}
	for i := 0; i < h.size; i++ {
		out = append(out, h.records[(start+i)%h.capacity])
	}
	return out
}

// Len returns the number of records currently held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Capacity returns the fixed buffer capacity.
func (h *History) Capacity() int {
	return h.capacity
}
