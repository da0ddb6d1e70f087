package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// Bulk operation outcomes. Bulk calls never collapse to a single boolean:
// each item reports success or skipped with a reason.
const (
	ItemSuccess = "success"
	ItemSkipped = "skipped"
)

// Skip reasons reported by bulk task operations.
const (
	ReasonIncompleteSubtasks = "incomplete-subtasks"
	ReasonTaskNotFound       = "task-not-found"
	ReasonInvalidFields      = "invalid-fields"
)

// ItemResult is the per-item outcome of a bulk operation.
type ItemResult struct {
	ID      string `json:"id"`
	Outcome string `json:"outcome"`
	Reason  string `json:"reason,omitempty"`
}

// TaskPatch is one task's raw field changes as parsed from the request body.
// The service projects Fields through the action's whitelist before applying.
type TaskPatch struct {
	TaskID string
	Fields map[string]any
}

// NewTaskInput carries the fields for adding a task to a project.
type NewTaskInput struct {
	Title        string
	Description  string
	Phase        string
	DependsOn    []string
	ShowToClient bool
	Subtasks     []NewSubtaskInput
}

// NewSubtaskInput carries a subtask definition. ShowToClient is a pointer:
// nil means "inherit the parent task's value".
type NewSubtaskInput struct {
	Title        string
	Required     bool
	ShowToClient *bool
}

// TaskService implements task mutations within a project. All writes are
// atomic per project via ProjectRepository.Mutate.
type TaskService interface {
	Add(ctx context.Context, projectID string, input NewTaskInput) (*domain.Task, error)
	// BulkUpdate applies whitelist-filtered patches. Tasks whose completion
	// would be illegal (incomplete required subtasks) are skipped and
	// reported individually; siblings still succeed.
	BulkUpdate(ctx context.Context, projectID string, patches []TaskPatch) ([]ItemResult, error)
	// Delete removes the task and purges its identifier from every other
	// task's dependency set in the same atomic step.
	Delete(ctx context.Context, projectID, taskID string) error
	BulkDelete(ctx context.Context, projectID string, taskIDs []string) ([]ItemResult, error)
}
