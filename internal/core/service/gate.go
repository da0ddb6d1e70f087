package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/opsdeck/platform/internal/core/domain"
	"github.com/opsdeck/platform/internal/core/ports"
)

// Gate is the request-boundary authorization layer. Credential validation
// and caller resolution happen in the auth middleware; Gate resolves the
// target, evaluates the permission predicate, and records one activity entry
// for every decision, allowed or not.
type Gate struct {
	clients  ports.ClientRepository
	projects ports.ProjectRepository
	resolver ports.SlugResolver
	activity ports.ActivityLog
	logger   zerolog.Logger
}

func NewGate(clients ports.ClientRepository, projects ports.ProjectRepository, resolver ports.SlugResolver, activity ports.ActivityLog, logger zerolog.Logger) *Gate {
	return &Gate{clients: clients, projects: projects, resolver: resolver, activity: activity, logger: logger}
}

func (g *Gate) Authorize(ctx context.Context, caller *domain.User, action domain.Action, ref ports.TargetRef) (*ports.AuthorizedContext, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}

	entity, project, err := g.resolveTarget(ctx, ref)
	if err != nil {
		g.record(caller, action, ref.Kind, refIdentifier(ref), domain.OutcomeError, err.Error())
		return nil, err
	}

	target := domain.Target{}
	targetID := refIdentifier(ref)
	if project != nil {
		target = domain.TargetForProject(project, caller)
	} else if entity != nil {
		target = domain.Target{Kind: ref.Kind, ID: entity.GetID(), ClientID: entity.OwningClientID()}
	}
	if entity != nil {
		targetID = entity.GetID()
	}

	decision := domain.CanPerform(caller, action, target)
	if !decision.Allowed {
		g.record(caller, action, ref.Kind, targetID, domain.OutcomeDenied, decision.Reason)
		return nil, domain.Forbidden(decision.Reason)
	}

	g.record(caller, action, ref.Kind, targetID, domain.OutcomeAllowed, "")
	return &ports.AuthorizedContext{
		Caller:    caller,
		Target:    entity,
		Project:   project,
		Whitelist: domain.WhitelistFor(action),
	}, nil
}

// resolveTarget loads the referenced entity. Slug references go through the
// resolver; the gate never follows redirects, it authorizes against the
// current entity the slug maps to.
func (g *Gate) resolveTarget(ctx context.Context, ref ports.TargetRef) (domain.Sluggable, *domain.Project, error) {
	if ref.Kind == "" {
		return nil, nil, nil
	}

	if ref.Slug != "" {
		res, err := g.resolver.Resolve(ctx, ref.Kind, ref.Slug)
		if err != nil {
			return nil, nil, err
		}
		if p, ok := res.Entity.(*domain.Project); ok {
			return res.Entity, p, nil
		}
		return res.Entity, nil, nil
	}

	switch ref.Kind {
	case domain.KindClient:
		c, err := g.clients.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, nil, err
		}
		return c, nil, nil
	case domain.KindProject:
		p, err := g.projects.FindByID(ctx, ref.ID)
		if err != nil {
			return nil, nil, err
		}
		return p, p, nil
	}
	return nil, nil, domain.ErrValidation
}

// refIdentifier is the best available target identifier before resolution:
// the ID when the reference carries one, otherwise the slug. Entries for
// failed resolutions stay attributable either way.
func refIdentifier(ref ports.TargetRef) string {
	if ref.ID != "" {
		return ref.ID
	}
	return ref.Slug
}

func (g *Gate) record(caller *domain.User, action domain.Action, kind domain.EntityKind, targetID string, outcome domain.ActivityOutcome, reason string) {
	g.activity.Append(domain.ActivityEntry{
		Time:       time.Now().UTC(),
		ActorID:    caller.ID,
		ActorEmail: caller.Email,
		Action:     action,
		TargetKind: kind,
		TargetID:   targetID,
		Outcome:    outcome,
		Reason:     reason,
	})
}
