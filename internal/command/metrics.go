package command

import (
	"sync/atomic"

	"github.com/voice-control/vcc/internal/backend"
)

// tierCounters holds the lock-free per-tier counters.
type tierCounters struct {
	attempts      atomic.Int64
	successes     atomic.Int64
	elapsedMicros atomic.Int64
}

// Metrics collects per-tier execution counters plus the validation
// rejection counter. All counters are monotonic until Reset.
type Metrics struct {
	tiers    [3]tierCounters // indexed by Tier-1
	rejected atomic.Int64
}

// NewMetrics creates a zeroed metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record counts one terminated tier invocation.
func (m *Metrics) Record(tier backend.Tier, succeeded bool, elapsedMicros int64) {
	if !tier.Valid() {
		return
	}
	counters := &m.tiers[tier-1]
	counters.attempts.Add(1)
	if succeeded {
		counters.successes.Add(1)
	}
	counters.elapsedMicros.Add(elapsedMicros)
}

// RecordRejection counts one confidence-gate rejection. Rejected calls
// touch no tier counters and no history.
func (m *Metrics) RecordRejection() {
	m.rejected.Add(1)
}

// Reset zeroes every counter.
func (m *Metrics) Reset() {
	for i := range m.tiers {
		m.tiers[i].attempts.Store(0)
		m.tiers[i].successes.Store(0)
		m.tiers[i].elapsedMicros.Store(0)
	}
	m.rejected.Store(0)
}

// TierSnapshot is a point-in-time view of one tier's counters.
type TierSnapshot struct {
	Attempts           int64 `json:"attempts"`
	Successes          int64 `json:"successes"`
	TotalElapsedMicros int64 `json:"totalElapsedMicros"`
}

// MetricsSnapshot is a point-in-time view of all counters.
type MetricsSnapshot struct {
	Primary   TierSnapshot `json:"primary"`
	Secondary TierSnapshot `json:"secondary"`
	Tertiary  TierSnapshot `json:"tertiary"`
	Rejected  int64        `json:"rejected"`
}

// Tier returns the snapshot for one tier.
func (s MetricsSnapshot) Tier(tier backend.Tier) TierSnapshot {
	switch tier {
	case backend.TierPrimary:
		return s.Primary
	case backend.TierSecondary:
		return s.Secondary
	case backend.TierTertiary:
		return s.Tertiary
	default:
		return TierSnapshot{}
	}
}

// Snapshot reads every counter without blocking writers.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := func(c *tierCounters) TierSnapshot {
		return TierSnapshot{
			Attempts:           c.attempts.Load(),
			Successes:          c.successes.Load(),
			TotalElapsedMicros: c.elapsedMicros.Load(),
		}
	}
	return MetricsSnapshot{
		Primary:   snap(&m.tiers[0]),
		Secondary: snap(&m.tiers[1]),
		Tertiary:  snap(&m.tiers[2]),
		Rejected:  m.rejected.Load(),
	}
}
