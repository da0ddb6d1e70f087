package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// TaskService implements task mutations. Every write goes through
// ProjectRepository.Mutate so concurrent callers on the same project can
// never observe a half-applied change.
type TaskService struct {
	repo   ports.ProjectRepository
	logger zerolog.Logger
}

func NewTaskService(repo ports.ProjectRepository, logger zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, logger: logger}
}

// Add appends a task. Sequential identifiers come from the project's counter,
// never from the max of the existing set; UUID-keyed projects generate UUIDs.
// Subtasks with no explicit show_to_client inherit the parent task's value.
func (s *TaskService) Add(ctx context.Context, projectID string, input ports.NewTaskInput) (*domain.Task, error) {
	if input.Title == "" {
		return nil, domain.ErrValidation
	}

	var created domain.Task
	_, err := s.repo.Mutate(ctx, projectID, func(p *domain.Project) error {
		task := domain.Task{
			Title:        input.Title,
			Description:  input.Description,
			Phase:        input.Phase,
			DependsOn:    append([]string(nil), input.DependsOn...),
			ShowToClient: input.ShowToClient,
		}

		if p.UUIDTasks {
			task.ID = uuid.NewString()
		} else {
			task.ID = fmt.Sprintf("%d", p.NextTaskNumber)
			p.NextTaskNumber++
		}

		for _, dep := range task.DependsOn {
			if t, _ := p.TaskByID(dep); t == nil {
				return fmt.Errorf("%w: unknown dependency %q", domain.ErrValidation, dep)
			}
		}

		for _, st := range input.Subtasks {
			show := task.ShowToClient
			if st.ShowToClient != nil {
				show = *st.ShowToClient
			}
			task.Subtasks = append(task.Subtasks, domain.Subtask{
				Title:        st.Title,
				Required:     st.Required,
				ShowToClient: show,
			})
		}

		p.Tasks = append(p.Tasks, task)
		p.UpdatedAt = time.Now().UTC()
		created = task
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("project_id", projectID).Str("task_id", created.ID).Msg("task added")
	return &created, nil
}

// BulkUpdate applies whitelist-filtered patches to a set of tasks. Partial
// success is the contract: a task whose completion would be illegal is
// skipped and reported individually while its siblings still succeed.
func (s *TaskService) BulkUpdate(ctx context.Context, projectID string, patches []ports.TaskPatch) ([]ports.ItemResult, error) {
	whitelist := domain.WhitelistFor(domain.ActionWriteTask)
	results := make([]ports.ItemResult, 0, len(patches))

	_, err := s.repo.Mutate(ctx, projectID, func(p *domain.Project) error {
		results = results[:0]
		now := time.Now().UTC()
		for _, patch := range patches {
			task, _ := p.TaskByID(patch.TaskID)
			if task == nil {
				results = append(results, ports.ItemResult{ID: patch.TaskID, Outcome: ports.ItemSkipped, Reason: ports.ReasonTaskNotFound})
				continue
			}

			kept, dropped := whitelist.Filter(patch.Fields)
			if len(dropped) > 0 {
				s.logger.Debug().
					Str("project_id", projectID).
					Str("task_id", patch.TaskID).
					Strs("fields", dropped).
					Msg("dropped unwhitelisted fields")
			}

			// Patch a scratch copy so a skipped task is left untouched:
			// completion legality is judged against the patched subtasks.
			// Malformed patches skip this item only; siblings still apply.
			updated := copyTask(task)
			if err := applyTaskPatch(&updated, kept); err != nil {
				results = append(results, ports.ItemResult{ID: patch.TaskID, Outcome: ports.ItemSkipped, Reason: ports.ReasonInvalidFields})
				continue
			}

			if wantComplete, ok := completionRequest(kept); ok {
				if wantComplete && !task.Completed && !updated.CanComplete() {
					results = append(results, ports.ItemResult{ID: patch.TaskID, Outcome: ports.ItemSkipped, Reason: ports.ReasonIncompleteSubtasks})
					continue
				}
				updated.SetCompleted(wantComplete, now)
			}

			*task = updated
			results = append(results, ports.ItemResult{ID: patch.TaskID, Outcome: ports.ItemSuccess})
		}
		p.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Delete removes the task and purges its identifier from every sibling's
// dependency set in the same atomic step, so no dangling references remain.
func (s *TaskService) Delete(ctx context.Context, projectID, taskID string) error {
	_, err := s.repo.Mutate(ctx, projectID, func(p *domain.Project) error {
		return removeTask(p, taskID)
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("project_id", projectID).Str("task_id", taskID).Msg("task deleted")
	return nil
}

// BulkDelete removes a set of tasks with the same per-item contract as
// BulkUpdate: unknown identifiers are reported, siblings still succeed.
func (s *TaskService) BulkDelete(ctx context.Context, projectID string, taskIDs []string) ([]ports.ItemResult, error) {
	results := make([]ports.ItemResult, 0, len(taskIDs))

	_, err := s.repo.Mutate(ctx, projectID, func(p *domain.Project) error {
		results = results[:0]
		for _, id := range taskIDs {
			if err := removeTask(p, id); err != nil {
				results = append(results, ports.ItemResult{ID: id, Outcome: ports.ItemSkipped, Reason: ports.ReasonTaskNotFound})
				continue
			}
			results = append(results, ports.ItemResult{ID: id, Outcome: ports.ItemSuccess})
		}
		p.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// removeTask deletes the record, then sweeps all remaining tasks' dependency
// sets. Both steps happen inside one Mutate call.
func removeTask(p *domain.Project, taskID string) error {
	_, idx := p.TaskByID(taskID)
	if idx < 0 {
		return domain.ErrTaskNotFound
	}
	p.Tasks = append(p.Tasks[:idx], p.Tasks[idx+1:]...)
	for i := range p.Tasks {
		p.Tasks[i].RemoveDependency(taskID)
	}
	return nil
}

// copyTask deep-copies a task so a patch can be staged and discarded.
func copyTask(t *domain.Task) domain.Task {
	c := *t
	c.DependsOn = append([]string(nil), t.DependsOn...)
	c.Subtasks = append([]domain.Subtask(nil), t.Subtasks...)
	return c
}

// completionRequest extracts the patched "completed" value, if present.
func completionRequest(fields map[string]any) (want bool, ok bool) {
	v, present := fields["completed"]
	if !present {
		return false, false
	}
	b, isBool := v.(bool)
	return b, isBool
}

// applyTaskPatch merges whitelisted fields into the task. Scalar fields
// apply first and subtasks last, always in the same order, so a subtask
// entry inheriting show_to_client sees the patched value no matter which
// fields the request combined. Completion is handled by the caller through
// SetCompleted; date_completed is never read from the patch. The whitelist
// excludes it and the server owns it.
func applyTaskPatch(task *domain.Task, fields map[string]any) error {
	if v, ok := fields["title"]; ok {
		if s, ok := v.(string); ok {
			task.Title = s
		}
	}
	if v, ok := fields["description"]; ok {
		if s, ok := v.(string); ok {
			task.Description = s
		}
	}
	if v, ok := fields["phase"]; ok {
		if s, ok := v.(string); ok {
			task.Phase = s
		}
	}
	if v, ok := fields["depends_on"]; ok {
		raw, ok := v.([]any)
		if !ok {
			return domain.ErrValidation
		}
		deps := make([]string, 0, len(raw))
		for _, d := range raw {
			s, ok := d.(string)
			if !ok {
				return domain.ErrValidation
			}
			deps = append(deps, s)
		}
		task.DependsOn = deps
	}
	if v, ok := fields["show_to_client"]; ok {
		if b, ok := v.(bool); ok {
			task.ShowToClient = b
		}
	}
	if v, ok := fields["subtasks"]; ok {
		return applySubtaskPatch(task, v)
	}
	return nil
}

// applySubtaskPatch replaces the subtask list from raw patch data. Entries
// omitting show_to_client inherit the parent task's value.
func applySubtaskPatch(task *domain.Task, v any) error {
	raw, ok := v.([]any)
	if !ok {
		return domain.ErrValidation
	}
	subtasks := make([]domain.Subtask, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return domain.ErrValidation
		}
		st := domain.Subtask{ShowToClient: task.ShowToClient}
		if s, ok := m["title"].(string); ok {
			st.Title = s
		}
		if b, ok := m["completed"].(bool); ok {
			st.Completed = b
		}
		if b, ok := m["required"].(bool); ok {
			st.Required = b
		}
		if b, ok := m["show_to_client"].(bool); ok {
			st.ShowToClient = b
		}
		subtasks = append(subtasks, st)
	}
	task.Subtasks = subtasks
	return nil
}
