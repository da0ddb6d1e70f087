package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// Resolution is the outcome of a slug lookup. Redirect is true when the slug
// matched a previous slug: the HTTP layer must answer with a temporary
// redirect to the entity's current slug, never a permanent one.
type Resolution struct {
	Entity   domain.Sluggable
	Redirect bool
}

// SlugResolver maps slugs to current entities with historical-redirect
// semantics and a short-TTL cache.
type SlugResolver interface {
	Resolve(ctx context.Context, kind domain.EntityKind, slug string) (Resolution, error)
	// Rename changes an entity's current slug. It fails with ErrSlugConflict
	// when the new slug is another entity's active slug, and invalidates
	// cache entries for both the old and new slug before returning.
	Rename(ctx context.Context, kind domain.EntityKind, id, newSlug string) (domain.Sluggable, error)
}
