package domain

import (
	"errors"
	"time"
)

var ErrTaskNotFound = errors.New("task not found")
var ErrIncompleteSubtasks = errors.New("required subtasks incomplete")

// Task belongs to exactly one project. Dependencies are recorded only on the
// depending task (no back references); deleting a task sweeps its identifier
// out of every sibling's DependsOn set.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Phase         string     `json:"phase,omitempty"`
	DependsOn     []string   `json:"depends_on,omitempty"`
	Completed     bool       `json:"completed"`
	DateCompleted *time.Time `json:"date_completed,omitempty"`
	ShowToClient  bool       `json:"show_to_client"`
	Subtasks      []Subtask  `json:"subtasks,omitempty"`
}

// Subtask is a checklist item under a task. ShowToClient defaults to the
// parent task's value at creation time, not to a hardcoded constant.
type Subtask struct {
	Title        string `json:"title"`
	Completed    bool   `json:"completed"`
	Required     bool   `json:"required"`
	ShowToClient bool   `json:"show_to_client"`
}

// CanComplete reports whether marking the task complete is legal: every
// required subtask must already be complete.
func (t *Task) CanComplete() bool {
	for _, st := range t.Subtasks {
		if st.Required && !st.Completed {
			return false
		}
	}
	return true
}

// SetCompleted applies a completion transition at the given server time.
// DateCompleted is owned by the server: set exactly once per false->true
// transition, cleared on true->false, and never accepted from client input.
func (t *Task) SetCompleted(completed bool, now time.Time) {
	switch {
	case completed && !t.Completed:
		ts := now
		t.DateCompleted = &ts
	case !completed && t.Completed:
		t.DateCompleted = nil
	}
	t.Completed = completed
}

// RemoveDependency drops id from the task's DependsOn set, if present.
func (t *Task) RemoveDependency(id string) {
	deps := t.DependsOn[:0]
	for _, d := range t.DependsOn {
		if d != id {
			deps = append(deps, d)
		}
	}
	if len(deps) == 0 {
		t.DependsOn = nil
		return
	}
	t.DependsOn = deps
}
