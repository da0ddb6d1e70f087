package domain

import (
	"errors"
	"fmt"
)

// Shared error taxonomy. Entity-specific sentinels (ErrUserNotFound,
// ErrClientNotFound, ...) live next to their types; everything here is
// cross-cutting and mapped to a fixed HTTP status by the API error handler.
var (
	// ErrUnauthenticated means the request carried no usable credential.
	// Portals must redirect to login, never render with empty data.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound is the generic resolution failure for slugs and identifiers.
	ErrNotFound = errors.New("not found")

	// ErrSlugConflict means a rename collided with another entity's active slug.
	ErrSlugConflict = errors.New("slug already in use")

	// ErrValidation covers malformed or out-of-enum field values.
	ErrValidation = errors.New("validation failed")

	// ErrRetryable marks transient rejections (upload slots exhausted,
	// collaborator timeout). Callers should retry, the request was not applied.
	ErrRetryable = errors.New("temporarily unavailable, retry")
)

// Deny reasons carried by ForbiddenError. Machine-readable: portals key
// error states off these strings.
const (
	DenyInsufficientRole          = "insufficient-role"
	DenyNotAssigned               = "not-assigned"
	DenyInsufficientProjectAccess = "insufficient-project-access"
)

// ForbiddenError is returned when the permission predicate denies an action.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Reason)
}

// Forbidden builds a ForbiddenError with the given machine-readable reason.
func Forbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}

// IsForbidden reports whether err is a permission denial and extracts its reason.
func IsForbidden(err error) (string, bool) {
	var fe *ForbiddenError
	if errors.As(err, &fe) {
		return fe.Reason, true
	}
	return "", false
}
