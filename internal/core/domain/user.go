package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the coarse user classification. Fine-grained access is granted
// through capability flags and per-project access levels, not by adding roles.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleTechnician Role = "technician"
	RoleVendor     Role = "vendor"
	RoleClient     Role = "client"
)

// ValidRole reports whether r is one of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTechnician, RoleVendor, RoleClient:
		return true
	}
	return false
}

// Capability is a named boolean granting access to a portal or feature,
// independent of role. The set is closed: new capabilities are added here and
// bound to actions in the action table, never checked ad hoc in handlers.
type Capability string

const (
	CapServicePortal     Capability = "service_portal"
	CapAdminHub          Capability = "admin_hub"
	CapImplementations   Capability = "implementations"
	CapClientPortalAdmin Capability = "client_portal_admin"
)

var ErrUserNotFound = errors.New("user not found")
var ErrDuplicateEmail = errors.New("email already registered")
var ErrInvalidCredentials = errors.New("invalid credentials")

// User models an authenticated actor in the platform.
type User struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	PasswordHash       string              `json:"-"`
	Role               Role                `json:"role"`
	Flags              map[Capability]bool `json:"flags,omitempty"`
	AssignedClientIDs  []string            `json:"assigned_client_ids,omitempty"`
	MustChangePassword bool                `json:"must_change_password"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// HasFlag reports whether the capability flag is set on the user.
func (u *User) HasFlag(c Capability) bool {
	return u.Flags[c]
}

// AssignedTo reports whether clientID is in a vendor's assigned-client set.
// An empty set means no access, never "all clients".
func (u *User) AssignedTo(clientID string) bool {
	for _, id := range u.AssignedClientIDs {
		if id == clientID {
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases an email address for case-insensitive matching.
// Every comparison and every stored lookup key goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
