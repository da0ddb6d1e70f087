package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// ClientService implements tenant lifecycle operations.
type ClientService interface {
	Create(ctx context.Context, practiceName, slug string) (*domain.Client, error)
	// Rename changes the client slug, preserving the old slug as a
	// permanent redirect.
	Rename(ctx context.Context, id, newSlug string) (*domain.Client, error)
	Get(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context) ([]*domain.Client, error)
}
