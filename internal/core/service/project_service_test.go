package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

func newProjectFixture() (*ProjectService, *stubProjectRepo, *stubSyncQueue) {
	repo := newStubProjectRepo()
	resolver := NewSlugResolverService(newStubClientRepo(), repo, time.Minute, zerolog.Nop())
	sync := &stubSyncQueue{}
	return NewProjectService(repo, resolver, sync, zerolog.Nop()), repo, sync
}

func TestCreate_FreshProject(t *testing.T) {
	svc, _, sync := newProjectFixture()

	p, err := svc.Create(context.Background(), ports.CreateProjectInput{
		Name: "Rollout", Slug: "rollout", ClientID: "client_1",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != domain.StatusActive {
		t.Fatalf("new projects start active, got %s", p.Status)
	}
	if len(p.Tasks) != 0 || len(p.AccessLevels) != 0 {
		t.Fatalf("new projects start empty")
	}
	if p.NextTaskNumber != 1 {
		t.Fatalf("counter starts at 1, got %d", p.NextTaskNumber)
	}
	if len(sync.jobs) != 1 || sync.jobs[0].Op != "create" {
		t.Fatalf("create must enqueue a sync job, got %+v", sync.jobs)
	}
}

func TestCreate_MissingFields(t *testing.T) {
	svc, _, _ := newProjectFixture()
	_, err := svc.Create(context.Background(), ports.CreateProjectInput{Name: "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClone_CopiesStructureNotState(t *testing.T) {
	svc, repo, _ := newProjectFixture()
	ctx := context.Background()

	done := time.Now().UTC()
	source, err := repo.Create(ctx, &domain.Project{
		Slug:     "source",
		Name:     "Source",
		Status:   domain.StatusCompleted,
		ClientID: "client_1",
		AccessLevels: map[string]domain.AccessLevel{
			"user_1": domain.AccessAdmin,
		},
		Tasks: []domain.Task{
			{ID: "1", Title: "a", Completed: true, DateCompleted: &done,
				Subtasks: []domain.Subtask{{Title: "s", Required: true, Completed: true}}},
			{ID: "2", Title: "b", DependsOn: []string{"1"}},
			{ID: "3", Title: "c"},
		},
		Phases:         []string{"design", "install"},
		Templates:      []string{"tmpl_1"},
		Attachments:    []domain.Attachment{{ID: "att_1", FileName: "plan.pdf"}},
		CRMDealID:      "deal_42",
		NextTaskNumber: 4,
	})
	if err != nil {
		t.Fatalf("seed source: %v", err)
	}

	clone, err := svc.Clone(ctx, source.ID, "Copy", "copy")
	if err != nil {
		t.Fatalf("clone: %v", err)
	}

	if len(clone.Tasks) != 3 {
		t.Fatalf("expected 3 cloned tasks, got %d", len(clone.Tasks))
	}
	for _, task := range clone.Tasks {
		if task.Completed || task.DateCompleted != nil {
			t.Fatalf("cloned task %s must start incomplete", task.ID)
		}
		for _, st := range task.Subtasks {
			if st.Completed {
				t.Fatalf("cloned subtasks must start incomplete")
			}
		}
	}
	if len(clone.Attachments) != 0 {
		t.Fatalf("attachments must not be cloned")
	}
	if clone.CRMDealID != "" {
		t.Fatalf("CRM linkage must not be cloned")
	}
	if len(clone.AccessLevels) != 0 {
		t.Fatalf("access grants must not be cloned")
	}
	if clone.Status != domain.StatusActive {
		t.Fatalf("clone must start active, got %s", clone.Status)
	}
	if clone.NextTaskNumber != 4 {
		t.Fatalf("clone keeps the source counter, got %d", clone.NextTaskNumber)
	}
	if len(clone.Phases) != 2 || len(clone.Templates) != 1 {
		t.Fatalf("phases and templates are structural and must be copied")
	}

	// Dependency structure survives the copy.
	second, _ := clone.TaskByID("2")
	if len(second.DependsOn) != 1 || second.DependsOn[0] != "1" {
		t.Fatalf("cloned deps wrong: %v", second.DependsOn)
	}
}

func TestSetAccessLevel_NoneRevokes(t *testing.T) {
	svc, repo, _ := newProjectFixture()
	ctx := context.Background()

	p, err := svc.Create(ctx, ports.CreateProjectInput{Name: "P", Slug: "p", ClientID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetAccessLevel(ctx, p.ID, "user_1", domain.AccessWrite); err != nil {
		t.Fatalf("grant: %v", err)
	}
	stored, _ := repo.FindByID(ctx, p.ID)
	if stored.AccessFor("user_1") != domain.AccessWrite {
		t.Fatalf("grant not applied")
	}

	if _, err := svc.SetAccessLevel(ctx, p.ID, "user_1", domain.AccessNone); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	stored, _ = repo.FindByID(ctx, p.ID)
	if _, present := stored.AccessLevels["user_1"]; present {
		t.Fatalf("none must remove the map entry, not store it")
	}
}

func TestSetStatus_RejectsUnknownValue(t *testing.T) {
	svc, _, _ := newProjectFixture()
	ctx := context.Background()

	p, err := svc.Create(ctx, ports.CreateProjectInput{Name: "P", Slug: "p", ClientID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetStatus(ctx, p.ID, domain.ProjectStatus("archived")); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.SetStatus(ctx, p.ID, domain.StatusPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
}

func TestRename_EnqueuesSyncJob(t *testing.T) {
	svc, _, sync := newProjectFixture()
	ctx := context.Background()

	p, err := svc.Create(ctx, ports.CreateProjectInput{Name: "P", Slug: "before", ClientID: "c"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	renamed, err := svc.Rename(ctx, p.ID, "after")
	if err != nil {
		t.Fatalf("rename: %v", err)
	}
	if renamed.Slug != "after" {
		t.Fatalf("slug not updated: %s", renamed.Slug)
	}
	if len(renamed.PreviousSlugs) != 1 || renamed.PreviousSlugs[0] != "before" {
		t.Fatalf("old slug must join the history: %v", renamed.PreviousSlugs)
	}

	last := sync.jobs[len(sync.jobs)-1]
	if last.Op != "rename" || last.EntityID != p.ID {
		t.Fatalf("rename sync job wrong: %+v", last)
	}
}

func TestEnqueueSync_FullQueueDoesNotFailRequest(t *testing.T) {
	repo := newStubProjectRepo()
	resolver := NewSlugResolverService(newStubClientRepo(), repo, time.Minute, zerolog.Nop())
	sync := &stubSyncQueue{full: true}
	svc := NewProjectService(repo, resolver, sync, zerolog.Nop())

	if _, err := svc.Create(context.Background(), ports.CreateProjectInput{Name: "P", Slug: "p", ClientID: "c"}); err != nil {
		t.Fatalf("a full sync queue must not fail the write: %v", err)
	}
}
