package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// CreateProjectInput carries the fields for a new project. Nothing is ever
// copied from another project on create.
type CreateProjectInput struct {
	Name      string
	Slug      string
	ClientID  string
	UUIDTasks bool
}

// ProjectService implements project lifecycle operations.
type ProjectService interface {
	Create(ctx context.Context, input CreateProjectInput) (*domain.Project, error)
	// Clone copies structural fields only (tasks, templates, phases). File
	// attachments, CRM linkage and completion state are excluded: a clone
	// always starts active with every task incomplete.
	Clone(ctx context.Context, sourceID, name, slug string) (*domain.Project, error)
	Rename(ctx context.Context, id, newSlug string) (*domain.Project, error)
	SetAccessLevel(ctx context.Context, id, userID string, level domain.AccessLevel) (*domain.Project, error)
	SetStatus(ctx context.Context, id string, status domain.ProjectStatus) (*domain.Project, error)
	Get(ctx context.Context, id string) (*domain.Project, error)
	// AttachFile records an uploaded file on the project.
	AttachFile(ctx context.Context, id string, att domain.Attachment) (*domain.Project, error)
}
