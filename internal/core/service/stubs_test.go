package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories shared by the service tests
// ---------------------------------------------------------------------------

type stubClientRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Client
	nextSeq int
}

func newStubClientRepo() *stubClientRepo {
	return &stubClientRepo{byID: make(map[string]*domain.Client)}
}

func (r *stubClientRepo) Create(_ context.Context, c *domain.Client) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Slug == c.Slug {
			return nil, domain.ErrSlugConflict
		}
	}
	r.nextSeq++
	clone := *c
	clone.ID = fmt.Sprintf("client_%d", r.nextSeq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubClientRepo) FindByID(_ context.Context, id string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubClientRepo) FindBySlug(_ context.Context, slug string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		if c.Slug == slug {
			clone := *c
			return &clone, nil
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r *stubClientRepo) FindByPreviousSlug(_ context.Context, slug string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byID {
		for _, prev := range c.PreviousSlugs {
			if prev == slug {
				clone := *c
				return &clone, nil
			}
		}
	}
	return nil, domain.ErrClientNotFound
}

func (r *stubClientRepo) Rename(_ context.Context, id, newSlug string) (*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	c.PreviousSlugs = append(c.PreviousSlugs, c.Slug)
	c.Slug = newSlug
	clone := *c
	return &clone, nil
}

func (r *stubClientRepo) Update(_ context.Context, c *domain.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrClientNotFound
	}
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubClientRepo) List(_ context.Context) ([]*domain.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Client, 0, len(r.byID))
	for _, c := range r.byID {
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

type stubProjectRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Project
	nextSeq int
	// findBySlugCalls counts store lookups so cache behaviour is observable.
	findBySlugCalls int
}

func newStubProjectRepo() *stubProjectRepo {
	return &stubProjectRepo{byID: make(map[string]*domain.Project)}
}

func (r *stubProjectRepo) Create(_ context.Context, p *domain.Project) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Slug == p.Slug {
			return nil, domain.ErrSlugConflict
		}
	}
	r.nextSeq++
	clone := cloneProject(p)
	clone.ID = fmt.Sprintf("project_%d", r.nextSeq)
	r.byID[clone.ID] = clone
	out := cloneProject(clone)
	return out, nil
}

func (r *stubProjectRepo) FindByID(_ context.Context, id string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	return cloneProject(p), nil
}

func (r *stubProjectRepo) FindBySlug(_ context.Context, slug string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findBySlugCalls++
	for _, p := range r.byID {
		if p.Slug == slug {
			return cloneProject(p), nil
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (r *stubProjectRepo) FindByPreviousSlug(_ context.Context, slug string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.byID {
		for _, prev := range p.PreviousSlugs {
			if prev == slug {
				return cloneProject(p), nil
			}
		}
	}
	return nil, domain.ErrProjectNotFound
}

func (r *stubProjectRepo) Rename(_ context.Context, id, newSlug string) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	p.PreviousSlugs = append(p.PreviousSlugs, p.Slug)
	p.Slug = newSlug
	return cloneProject(p), nil
}

// Mutate mirrors the real Mongo repository contract: load, apply fn, persist
// as one atomic unit under the repository mutex.
func (r *stubProjectRepo) Mutate(_ context.Context, id string, fn func(p *domain.Project) error) (*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	scratch := cloneProject(p)
	if err := fn(scratch); err != nil {
		return nil, err
	}
	scratch.Rev++
	r.byID[id] = scratch
	return cloneProject(scratch), nil
}

func (r *stubProjectRepo) List(_ context.Context, clientID string) ([]*domain.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Project
	for _, p := range r.byID {
		if clientID != "" && p.ClientID != clientID {
			continue
		}
		out = append(out, cloneProject(p))
	}
	return out, nil
}

func cloneProject(p *domain.Project) *domain.Project {
	c := *p
	c.PreviousSlugs = append([]string(nil), p.PreviousSlugs...)
	c.Phases = append([]string(nil), p.Phases...)
	c.Templates = append([]string(nil), p.Templates...)
	c.Attachments = append([]domain.Attachment(nil), p.Attachments...)
	if p.AccessLevels != nil {
		c.AccessLevels = make(map[string]domain.AccessLevel, len(p.AccessLevels))
		for k, v := range p.AccessLevels {
			c.AccessLevels[k] = v
		}
	}
	c.Tasks = make([]domain.Task, len(p.Tasks))
	for i := range p.Tasks {
		t := p.Tasks[i]
		t.DependsOn = append([]string(nil), p.Tasks[i].DependsOn...)
		t.Subtasks = append([]domain.Subtask(nil), p.Tasks[i].Subtasks...)
		c.Tasks[i] = t
	}
	return &c
}

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	nextSeq int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrDuplicateEmail
		}
	}
	r.nextSeq++
	clone := *u
	clone.ID = fmt.Sprintf("user_%d", r.nextSeq)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == domain.NormalizeEmail(email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.byID[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		clone := *u
		out = append(out, &clone)
	}
	return out, nil
}

type stubIdentityCache struct {
	mu          sync.Mutex
	byEmail     map[string]*domain.User
	invalidated []string
}

func newStubIdentityCache() *stubIdentityCache {
	return &stubIdentityCache{byEmail: make(map[string]*domain.User)}
}

func (c *stubIdentityCache) Get(_ context.Context, email string) (*domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.byEmail[domain.NormalizeEmail(email)]
	return u, ok
}

func (c *stubIdentityCache) Set(_ context.Context, user *domain.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byEmail[user.Email] = user
}

func (c *stubIdentityCache) Invalidate(_ context.Context, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := domain.NormalizeEmail(email)
	delete(c.byEmail, key)
	c.invalidated = append(c.invalidated, key)
}

type stubActivityLog struct {
	mu      sync.Mutex
	entries []domain.ActivityEntry
}

func (l *stubActivityLog) Append(entry domain.ActivityEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *stubActivityLog) Snapshot() []domain.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ActivityEntry(nil), l.entries...)
}

func (l *stubActivityLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

type stubSyncQueue struct {
	mu   sync.Mutex
	jobs []ports.SyncJob
	full bool
}

func (q *stubSyncQueue) Enqueue(job ports.SyncJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}
