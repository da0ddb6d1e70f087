// Package activity provides the in-process audit log: an append-only ring
// with a hard capacity. Entries past capacity evict the oldest; the overflow
// warning fires once per breach episode, not once per evicted entry.
package activity

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
)

// DefaultCapacity is the hard bound on retained entries.
const DefaultCapacity = 2000

// Ring is a capacity-bounded append-only log. Capacity enforcement is an
// atomic check-evict-then-insert step under one mutex, so concurrent appends
// cannot corrupt eviction ordering.
type Ring struct {
	mu         sync.Mutex
	entries    []domain.ActivityEntry
	capacity   int
	overflowed bool
	logger     zerolog.Logger
}

func NewRing(capacity int, logger zerolog.Logger) *Ring {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring{capacity: capacity, logger: logger}
}

// Append inserts an entry, evicting the oldest when at capacity.
func (r *Ring) Append(entry domain.ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.entries) >= r.capacity {
		if !r.overflowed {
			r.overflowed = true
			r.logger.Warn().
				Int("capacity", r.capacity).
				Msg("activity log at capacity, evicting oldest entries")
		}
		evict := len(r.entries) - r.capacity + 1
		r.entries = r.entries[evict:]
	}
	r.entries = append(r.entries, entry)
}

// Snapshot returns a copy of the entries, oldest first.
func (r *Ring) Snapshot() []domain.ActivityEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.ActivityEntry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Clear empties the log and re-arms the overflow warning for the next episode.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
	r.overflowed = false
}

// Len reports the current entry count.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
