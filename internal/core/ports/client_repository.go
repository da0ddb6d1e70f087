package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// ClientRepository defines persistence operations for client tenants.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	// FindBySlug matches the current slug only.
	FindBySlug(ctx context.Context, slug string) (*domain.Client, error)
	// FindByPreviousSlug matches superseded slugs retained for redirects.
	FindByPreviousSlug(ctx context.Context, slug string) (*domain.Client, error)
	// Rename sets a new current slug and appends the old one to the
	// previous-slugs sequence in a single atomic write.
	Rename(ctx context.Context, id, newSlug string) (*domain.Client, error)
	Update(ctx context.Context, client *domain.Client) error
	List(ctx context.Context) ([]*domain.Client, error)
}
