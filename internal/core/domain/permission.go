package domain

// Target carries the resource context the permission predicate needs: the
// owning client, and the caller's access level on the project when the
// action is project-scoped.
type Target struct {
	Kind     EntityKind
	ID       string
	ClientID string
	// Access is the caller's access level on the target project,
	// AccessNone when the target is not a project.
	Access AccessLevel
}

// TargetForProject builds a Target for a project as seen by the caller.
func TargetForProject(p *Project, caller *User) Target {
	return Target{
		Kind:     KindProject,
		ID:       p.ID,
		ClientID: p.ClientID,
		Access:   p.AccessFor(caller.ID),
	}
}

// TargetForClient builds a Target for a client entity.
func TargetForClient(c *Client) Target {
	return Target{Kind: KindClient, ID: c.ID, ClientID: c.ID}
}

// Decision is the outcome of the permission predicate.
type Decision struct {
	Allowed bool
	// Reason is the machine-readable deny reason, empty when allowed.
	Reason string
}

func allow() Decision             { return Decision{Allowed: true} }
func deny(reason string) Decision { return Decision{Reason: reason} }

// CanPerform is the single authorization predicate. Pure and deterministic:
// it reads the caller's role, flags and assigned clients, the action's spec,
// and the target context. It touches no storage and has no side effects.
//
// Rules are evaluated in order, first match wins:
//  1. Admin holding the action's required flag -> allow.
//  2. Client or Vendor attempting an admin-only action -> insufficient-role.
//  3. Vendor whose assigned-client set does not contain the target's owning
//     client -> not-assigned. An empty set never widens to "all". This
//     outranks the flag check: a vendor with every flag set is still denied
//     on unassigned clients.
//  4. Caller lacking the action's required capability flag -> insufficient-role.
//  5. Project targets below the action's required access level ->
//     insufficient-project-access. Access levels are a per-project concept;
//     client-kind and untargeted actions are never access gated.
//  6. Otherwise allow.
func CanPerform(caller *User, action Action, target Target) Decision {
	spec, ok := actionTable[action]
	if !ok {
		return deny(DenyInsufficientRole)
	}

	if caller.Role == RoleAdmin && (spec.requiredFlag == "" || caller.HasFlag(spec.requiredFlag)) {
		return allow()
	}

	if spec.adminOnly && (caller.Role == RoleClient || caller.Role == RoleVendor) {
		return deny(DenyInsufficientRole)
	}

	if caller.Role == RoleVendor && target.ClientID != "" && !caller.AssignedTo(target.ClientID) {
		return deny(DenyNotAssigned)
	}

	if spec.requiredFlag != "" && !caller.HasFlag(spec.requiredFlag) {
		return deny(DenyInsufficientRole)
	}

	if target.Kind == KindProject && spec.minAccess != AccessNone && spec.minAccess != "" && !target.Access.AtLeast(spec.minAccess) {
		return deny(DenyInsufficientProjectAccess)
	}

	return allow()
}
