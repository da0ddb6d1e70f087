package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// ProjectRepository defines persistence operations for projects. Tasks are
// embedded in the project record; Mutate is the only way to change them so
// that per-project task writes are atomic units.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) (*domain.Project, error)
	FindByID(ctx context.Context, id string) (*domain.Project, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Project, error)
	FindByPreviousSlug(ctx context.Context, slug string) (*domain.Project, error)
	Rename(ctx context.Context, id, newSlug string) (*domain.Project, error)
	// Mutate loads the project, applies fn, and persists the result as one
	// atomic step. Implementations retry on concurrent-write conflicts, so
	// fn may run more than once and must be side-effect free outside the
	// project value. A non-nil error from fn aborts without writing.
	Mutate(ctx context.Context, id string, fn func(p *domain.Project) error) (*domain.Project, error)
	List(ctx context.Context, clientID string) ([]*domain.Project, error)
}
