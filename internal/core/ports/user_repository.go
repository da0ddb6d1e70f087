package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// UserRepository defines persistence operations for users. Email lookups are
// case-insensitive: implementations match on the lowercase-normalized form.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]*domain.User, error)
}
