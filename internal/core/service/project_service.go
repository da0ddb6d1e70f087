package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// ProjectService implements project lifecycle operations.
type ProjectService struct {
	repo     ports.ProjectRepository
	resolver ports.SlugResolver
	sync     ports.SyncQueue
	logger   zerolog.Logger
}

// NewProjectService wires the project repository, the slug resolver (for
// renames) and the CRM sync queue. sync may be nil when no collaborator is
// configured.
func NewProjectService(repo ports.ProjectRepository, resolver ports.SlugResolver, sync ports.SyncQueue, logger zerolog.Logger) *ProjectService {
	return &ProjectService{repo: repo, resolver: resolver, sync: sync, logger: logger}
}

// Create assigns a fresh identifier and slug and initializes empty task and
// access-level collections. Nothing is copied from any other project.
func (s *ProjectService) Create(ctx context.Context, input ports.CreateProjectInput) (*domain.Project, error) {
	if input.Name == "" || input.Slug == "" || input.ClientID == "" {
		return nil, domain.ErrValidation
	}

	now := time.Now().UTC()
	project := &domain.Project{
		Slug:           input.Slug,
		Name:           input.Name,
		Status:         domain.StatusActive,
		ClientID:       input.ClientID,
		AccessLevels:   map[string]domain.AccessLevel{},
		Tasks:          []domain.Task{},
		NextTaskNumber: 1,
		UUIDTasks:      input.UUIDTasks,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.repo.Create(ctx, project)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("project_id", created.ID).Str("slug", created.Slug).Msg("project created")
	s.enqueueSync(created, "create")
	return created, nil
}

// Clone copies structural fields only: tasks, templates and phases. File
// attachments, CRM linkage identifiers and completion state are excluded. A
// clone always starts active with every task and subtask incomplete.
func (s *ProjectService) Clone(ctx context.Context, sourceID, name, slug string) (*domain.Project, error) {
	if name == "" || slug == "" {
		return nil, domain.ErrValidation
	}

	source, err := s.repo.FindByID(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	clone := &domain.Project{
		Slug:           slug,
		Name:           name,
		Status:         domain.StatusActive,
		ClientID:       source.ClientID,
		AccessLevels:   map[string]domain.AccessLevel{},
		Tasks:          cloneTasks(source.Tasks),
		Phases:         append([]string(nil), source.Phases...),
		Templates:      append([]string(nil), source.Templates...),
		NextTaskNumber: source.NextTaskNumber,
		UUIDTasks:      source.UUIDTasks,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	created, err := s.repo.Create(ctx, clone)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("project_id", created.ID).
		Str("source_id", sourceID).
		Int("tasks", len(created.Tasks)).
		Msg("project cloned")
	s.enqueueSync(created, "create")
	return created, nil
}

func cloneTasks(src []domain.Task) []domain.Task {
	out := make([]domain.Task, len(src))
	for i, t := range src {
		c := t
		c.Completed = false
		c.DateCompleted = nil
		c.DependsOn = append([]string(nil), t.DependsOn...)
		c.Subtasks = make([]domain.Subtask, len(t.Subtasks))
		for j, st := range t.Subtasks {
			st.Completed = false
			c.Subtasks[j] = st
		}
		out[i] = c
	}
	return out
}

// Rename delegates to the slug resolver so cache invalidation and conflict
// detection stay in one place.
func (s *ProjectService) Rename(ctx context.Context, id, newSlug string) (*domain.Project, error) {
	entity, err := s.resolver.Rename(ctx, domain.KindProject, id, newSlug)
	if err != nil {
		return nil, err
	}
	project, ok := entity.(*domain.Project)
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	s.enqueueSync(project, "rename")
	return project, nil
}

func (s *ProjectService) SetAccessLevel(ctx context.Context, id, userID string, level domain.AccessLevel) (*domain.Project, error) {
	switch level {
	case domain.AccessNone, domain.AccessRead, domain.AccessWrite, domain.AccessAdmin:
	default:
		return nil, domain.ErrValidation
	}

	return s.repo.Mutate(ctx, id, func(p *domain.Project) error {
		if p.AccessLevels == nil {
			p.AccessLevels = map[string]domain.AccessLevel{}
		}
		if level == domain.AccessNone {
			delete(p.AccessLevels, userID)
		} else {
			p.AccessLevels[userID] = level
		}
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *ProjectService) SetStatus(ctx context.Context, id string, status domain.ProjectStatus) (*domain.Project, error) {
	if !domain.ValidStatus(status) {
		return nil, domain.ErrValidation
	}
	return s.repo.Mutate(ctx, id, func(p *domain.Project) error {
		p.Status = status
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}

func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ProjectService) AttachFile(ctx context.Context, id string, att domain.Attachment) (*domain.Project, error) {
	return s.repo.Mutate(ctx, id, func(p *domain.Project) error {
		p.Attachments = append(p.Attachments, att)
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
}

// enqueueSync hands the entity to the CRM dispatcher without blocking the
// request: a full queue drops the job with a warning rather than stalling.
func (s *ProjectService) enqueueSync(p *domain.Project, op string) {
	if s.sync == nil {
		return
	}
	job := ports.SyncJob{
		Kind:     domain.KindProject,
		EntityID: p.ID,
		Op:       op,
		Payload:  map[string]any{"name": p.Name, "slug": p.Slug, "status": string(p.Status)},
	}
	if !s.sync.Enqueue(job) {
		s.logger.Warn().Str("project_id", p.ID).Str("op", op).Msg("crm sync queue full, job dropped")
	}
}
