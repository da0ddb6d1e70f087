package ports

import "github.com/opsdeck/platform/internal/core/domain"

// ActivityLog is the append-only, capacity-bounded audit record. Append past
// capacity evicts the oldest entry; implementations warn once per overflow
// episode, not per evicted entry.
type ActivityLog interface {
	Append(entry domain.ActivityEntry)
	// Snapshot returns entries oldest-first.
	Snapshot() []domain.ActivityEntry
	// Clear empties the log and re-arms the overflow warning.
	Clear()
}
