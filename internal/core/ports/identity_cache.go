package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// IdentityCache is a short-TTL cache in front of the user collection, keyed
// by normalized email. It is never authoritative: mutating write paths must
// call Invalidate synchronously before reporting success, closing the window
// where a stale entry could authorize against old data.
type IdentityCache interface {
	Get(ctx context.Context, email string) (*domain.User, bool)
	Set(ctx context.Context, user *domain.User)
	Invalidate(ctx context.Context, email string)
}
