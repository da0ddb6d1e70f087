package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// SyncJob is one outbound CRM/document-store synchronization unit. Jobs for
// the same entity must be processed in order; jobs for different entities may
// run concurrently.
type SyncJob struct {
	Kind     domain.EntityKind
	EntityID string
	Op       string
	Payload  map[string]any
}

// SyncService pushes a job to the external collaborator. Calls carry a
// bounded timeout; failures are returned as retryable errors, never allowed
// to hang a request.
type SyncService interface {
	Process(ctx context.Context, job SyncJob) error
}

// SyncQueue accepts jobs for asynchronous delivery, preserving per-entity
// ordering. Enqueue never blocks a request indefinitely.
type SyncQueue interface {
	Enqueue(job SyncJob) bool
}
