package ports

import (
	"context"

	"github.com/opsdeck/platform/internal/core/domain"
)

// TargetRef identifies the resource an action is aimed at, by ID or by slug.
// Zero value means the action has no resource target (e.g. create-project).
type TargetRef struct {
	Kind domain.EntityKind
	ID   string
	Slug string
}

// AuthorizedContext is what a handler gets back from a successful
// authorization: the resolved caller, the resolved target (nil for untargeted
// actions), and the field whitelist the mutation must project through.
type AuthorizedContext struct {
	Caller    *domain.User
	Target    domain.Sluggable
	Project   *domain.Project
	Whitelist domain.Whitelist
}

// AuthGate wraps every mutating entry point. It resolves the target, invokes
// the permission predicate, and appends one activity log entry regardless of
// outcome.
type AuthGate interface {
	Authorize(ctx context.Context, caller *domain.User, action domain.Action, ref TargetRef) (*AuthorizedContext, error)
}
