package domain

import (
	"errors"
	"time"
)

var ErrClientNotFound = errors.New("client not found")

// Client is a tenant: a practice served through the client portal.
type Client struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	PreviousSlugs []string  `json:"previous_slugs,omitempty"`
	PracticeName  string    `json:"practice_name"`
	LogoURL       string    `json:"logo_url,omitempty"`
	CRMContactID  string    `json:"crm_contact_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// GetID implements Sluggable.
func (c *Client) GetID() string { return c.ID }

// GetSlug implements Sluggable.
func (c *Client) GetSlug() string { return c.Slug }

// OwningClientID implements Sluggable; a client owns itself.
func (c *Client) OwningClientID() string { return c.ID }

// EntityKind distinguishes the sluggable entity namespaces. Slug uniqueness
// is enforced within a kind, not across kinds.
type EntityKind string

const (
	KindClient  EntityKind = "client"
	KindProject EntityKind = "project"
)

// Sluggable is any entity addressable by a mutable URL slug.
type Sluggable interface {
	GetID() string
	GetSlug() string
	OwningClientID() string
}
