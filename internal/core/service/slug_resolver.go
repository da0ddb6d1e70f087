package service

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

const (
	// slugCacheTTL bounds how long a current-slug hit may be served without
	// consulting the store. Renames invalidate explicitly, so the TTL only
	// covers crash recovery and external writers.
	slugCacheTTL = 30 * time.Second

	slugCacheSize = 4096
)

// SlugResolverService resolves slugs against the identity store through a
// short-TTL in-process cache. Only current-slug hits are cached; historical
// hits always go to the store so a redirect can never outlive a rename.
type SlugResolverService struct {
	clients  ports.ClientRepository
	projects ports.ProjectRepository
	cache    *expirable.LRU[string, domain.Sluggable]
	logger   zerolog.Logger
}

func NewSlugResolverService(clients ports.ClientRepository, projects ports.ProjectRepository, ttl time.Duration, logger zerolog.Logger) *SlugResolverService {
	if ttl <= 0 {
		ttl = slugCacheTTL
	}
	return &SlugResolverService{
		clients:  clients,
		projects: projects,
		cache:    expirable.NewLRU[string, domain.Sluggable](slugCacheSize, nil, ttl),
		logger:   logger,
	}
}

func cacheKey(kind domain.EntityKind, slug string) string {
	return string(kind) + ":" + slug
}

// Resolve maps a slug to the current entity. Redirect is true when the slug
// is historical; the caller must issue a temporary redirect to the current
// slug, never a permanent one.
func (s *SlugResolverService) Resolve(ctx context.Context, kind domain.EntityKind, slug string) (ports.Resolution, error) {
	if entity, ok := s.cache.Get(cacheKey(kind, slug)); ok {
		return ports.Resolution{Entity: entity}, nil
	}

	entity, err := s.findBySlug(ctx, kind, slug)
	if err == nil {
		s.cache.Add(cacheKey(kind, slug), entity)
		return ports.Resolution{Entity: entity}, nil
	}
	if !isNotFound(err) {
		return ports.Resolution{}, err
	}

	entity, err = s.findByPreviousSlug(ctx, kind, slug)
	if err == nil {
		s.logger.Debug().
			Str("kind", string(kind)).
			Str("slug", slug).
			Str("current", entity.GetSlug()).
			Msg("historical slug resolved")
		return ports.Resolution{Entity: entity, Redirect: true}, nil
	}
	if !isNotFound(err) {
		return ports.Resolution{}, err
	}

	return ports.Resolution{}, domain.ErrNotFound
}

// Rename changes an entity's current slug. The repository write atomically
// appends the old slug to the previous-slugs sequence; both the old and new
// cache keys are dropped before returning so no stale "current" hit can be
// served during the TTL window.
func (s *SlugResolverService) Rename(ctx context.Context, kind domain.EntityKind, id, newSlug string) (domain.Sluggable, error) {
	if newSlug == "" {
		return nil, domain.ErrValidation
	}

	if existing, err := s.findBySlug(ctx, kind, newSlug); err == nil && existing.GetID() != id {
		return nil, domain.ErrSlugConflict
	} else if err != nil && !isNotFound(err) {
		return nil, err
	}

	var (
		entity  domain.Sluggable
		oldSlug string
		err     error
	)
	switch kind {
	case domain.KindClient:
		var c *domain.Client
		if c, err = s.clients.FindByID(ctx, id); err != nil {
			return nil, err
		}
		oldSlug = c.Slug
		entity, err = s.clients.Rename(ctx, id, newSlug)
	case domain.KindProject:
		var p *domain.Project
		if p, err = s.projects.FindByID(ctx, id); err != nil {
			return nil, err
		}
		oldSlug = p.Slug
		entity, err = s.projects.Rename(ctx, id, newSlug)
	default:
		return nil, domain.ErrValidation
	}
	if err != nil {
		return nil, err
	}

	s.cache.Remove(cacheKey(kind, oldSlug))
	s.cache.Remove(cacheKey(kind, newSlug))

	s.logger.Info().
		Str("kind", string(kind)).
		Str("id", id).
		Str("old_slug", oldSlug).
		Str("new_slug", newSlug).
		Msg("entity renamed")
	return entity, nil
}

func (s *SlugResolverService) findBySlug(ctx context.Context, kind domain.EntityKind, slug string) (domain.Sluggable, error) {
	switch kind {
	case domain.KindClient:
		return s.clients.FindBySlug(ctx, slug)
	case domain.KindProject:
		return s.projects.FindBySlug(ctx, slug)
	}
	return nil, domain.ErrValidation
}

func (s *SlugResolverService) findByPreviousSlug(ctx context.Context, kind domain.EntityKind, slug string) (domain.Sluggable, error) {
	switch kind {
	case domain.KindClient:
		return s.clients.FindByPreviousSlug(ctx, slug)
	case domain.KindProject:
		return s.projects.FindByPreviousSlug(ctx, slug)
	}
	return nil, domain.ErrValidation
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrClientNotFound) ||
		errors.Is(err, domain.ErrProjectNotFound)
}
