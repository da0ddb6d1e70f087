package domain

import (
	"errors"
	"time"
)

// ProjectStatus is the lifecycle state of a project. The enum is closed:
// nothing outside these three values is ever persisted.
type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusPaused    ProjectStatus = "paused"
	StatusCompleted ProjectStatus = "completed"
)

// ValidStatus reports whether s is one of the closed status set.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// AccessLevel is the per-project permission granted to a specific user,
// ordered none < read < write < admin.
type AccessLevel string

const (
	AccessNone  AccessLevel = "none"
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

var accessRank = map[AccessLevel]int{
	AccessNone:  0,
	AccessRead:  1,
	AccessWrite: 2,
	AccessAdmin: 3,
}

// AtLeast reports whether l grants at least the required level.
func (l AccessLevel) AtLeast(required AccessLevel) bool {
	return accessRank[l] >= accessRank[required]
}

var ErrProjectNotFound = errors.New("project not found")

// Project is an engagement owned by a client, carrying its task collection
// and per-user access levels.
type Project struct {
	ID            string                 `json:"id"`
	Slug          string                 `json:"slug"`
	PreviousSlugs []string               `json:"previous_slugs,omitempty"`
	Name          string                 `json:"name"`
	Status        ProjectStatus          `json:"status"`
	ClientID      string                 `json:"client_id"`
	AccessLevels  map[string]AccessLevel `json:"access_levels,omitempty"`
	Tasks         []Task                 `json:"tasks"`
	Phases        []string               `json:"phases,omitempty"`
	Templates     []string               `json:"templates,omitempty"`
	Attachments   []Attachment           `json:"attachments,omitempty"`
	CRMDealID     string                 `json:"crm_deal_id,omitempty"`

	// NextTaskNumber is the counter backing sequential task identifiers.
	// Identifiers are never derived from the max of the existing set: an
	// empty or UUID-keyed task list would make that undefined.
	NextTaskNumber int `json:"next_task_number"`

	// UUIDTasks switches task identifier generation to UUIDs.
	UUIDTasks bool `json:"uuid_tasks,omitempty"`

	// Rev supports optimistic concurrency on whole-document task mutations.
	Rev int64 `json:"rev"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attachment is a stored file reference. Attachments are never copied by
// project cloning.
type Attachment struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	StorageKey string    `json:"storage_key"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// GetID implements Sluggable.
func (p *Project) GetID() string { return p.ID }

// GetSlug implements Sluggable.
func (p *Project) GetSlug() string { return p.Slug }

// OwningClientID implements Sluggable.
func (p *Project) OwningClientID() string { return p.ClientID }

// AccessFor returns the caller's access level on the project, AccessNone
// when absent from the map.
func (p *Project) AccessFor(userID string) AccessLevel {
	if lvl, ok := p.AccessLevels[userID]; ok {
		return lvl
	}
	return AccessNone
}

// TaskByID returns the task with the given identifier and its index,
// or nil and -1 when absent.
func (p *Project) TaskByID(id string) (*Task, int) {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i], i
		}
	}
	return nil, -1
}
