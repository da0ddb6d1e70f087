package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// RegisterUserInput carries the fields an admin supplies when creating a user.
type RegisterUserInput struct {
	Name              string
	Email             string
	Password          string
	Role              domain.Role
	Flags             map[domain.Capability]bool
	AssignedClientIDs []string
}

// UserService implements account lifecycle and login.
type UserService interface {
	Register(ctx context.Context, input RegisterUserInput) (*domain.User, error)
	// Login matches email case-insensitively and returns a signed bearer token.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	ChangePassword(ctx context.Context, userID, current, updated string) error
	// UpdateUser applies a whitelist-filtered patch to a user record and
	// synchronously invalidates the identity cache entry.
	UpdateUser(ctx context.Context, userID string, fields map[string]any) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
