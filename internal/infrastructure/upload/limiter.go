// Package upload bounds concurrent file-upload handling to cap memory use.
package upload

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/opsdeck/platform/internal/core/domain"
)

// DefaultSlots is the per-process concurrent upload bound.
const DefaultSlots = 5

// Limiter is a bounded semaphore over upload handling. Requests beyond the
// bound are rejected with a retryable error, never silently dropped.
type Limiter struct {
	sem   *semaphore.Weighted
	slots int64
}

func NewLimiter(slots int64) *Limiter {
	if slots <= 0 {
		slots = DefaultSlots
	}
	return &Limiter{sem: semaphore.NewWeighted(slots), slots: slots}
}

// Acquire claims an upload slot without blocking. The returned release func
// must be called exactly once when the upload finishes.
func (l *Limiter) Acquire(ctx context.Context) (release func(), err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !l.sem.TryAcquire(1) {
		return nil, fmt.Errorf("%w: upload slots exhausted", domain.ErrRetryable)
	}
	return func() { l.sem.Release(1) }, nil
}

// Slots reports the configured bound.
func (l *Limiter) Slots() int64 { return l.slots }
