package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// ClientService implements tenant lifecycle operations.
type ClientService struct {
	repo     ports.ClientRepository
	resolver ports.SlugResolver
	sync     ports.SyncQueue
	logger   zerolog.Logger
}

func NewClientService(repo ports.ClientRepository, resolver ports.SlugResolver, sync ports.SyncQueue, logger zerolog.Logger) *ClientService {
	return &ClientService{repo: repo, resolver: resolver, sync: sync, logger: logger}
}

func (s *ClientService) Create(ctx context.Context, practiceName, slug string) (*domain.Client, error) {
	if practiceName == "" || slug == "" {
		return nil, domain.ErrValidation
	}

	now := time.Now().UTC()
	client := &domain.Client{
		Slug:         slug,
		PracticeName: practiceName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("client_id", created.ID).Str("slug", created.Slug).Msg("client created")
	if s.sync != nil {
		s.sync.Enqueue(ports.SyncJob{
			Kind:     domain.KindClient,
			EntityID: created.ID,
			Op:       "create",
			Payload:  map[string]any{"practice_name": created.PracticeName, "slug": created.Slug},
		})
	}
	return created, nil
}

// Rename delegates to the slug resolver: conflict detection, history append
// and cache invalidation are its job, not duplicated here.
func (s *ClientService) Rename(ctx context.Context, id, newSlug string) (*domain.Client, error) {
	entity, err := s.resolver.Rename(ctx, domain.KindClient, id, newSlug)
	if err != nil {
		return nil, err
	}
	client, ok := entity.(*domain.Client)
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	if s.sync != nil {
		s.sync.Enqueue(ports.SyncJob{
			Kind:     domain.KindClient,
			EntityID: client.ID,
			Op:       "rename",
			Payload:  map[string]any{"slug": client.Slug},
		})
	}
	return client, nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ClientService) List(ctx context.Context) ([]*domain.Client, error) {
	return s.repo.List(ctx)
}
