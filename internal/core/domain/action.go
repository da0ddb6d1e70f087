package domain

// Action is the closed taxonomy of authorizable operations. Every mutating
// entry point names exactly one action; the actionTable below is the single
// source of truth for which capability gates it and what project access it
// needs. Flag checks never live in handlers.
type Action string

const (
	ActionReadProject            Action = "read-project"
	ActionWriteTask              Action = "write-task"
	ActionDeleteTask             Action = "delete-task"
	ActionCloneProject           Action = "clone-project"
	ActionCreateProject          Action = "create-project"
	ActionRenameProject          Action = "rename-project"
	ActionRenameClient           Action = "rename-client"
	ActionAdminUserManagement    Action = "admin-user-management"
	ActionAssignServiceReport    Action = "assign-service-report"
	ActionSubmitValidationReport Action = "submit-validation-report"
	ActionViewInbox              Action = "view-inbox"
	ActionUploadFile             Action = "upload-file"
	ActionViewActivity           Action = "view-activity"
)

// actionSpec describes an action's authorization requirements.
type actionSpec struct {
	// requiredFlag is the capability an Admin must hold for rule 1 to allow.
	// Empty means any Admin qualifies.
	requiredFlag Capability
	// adminOnly actions are denied outright to Client and Vendor roles.
	adminOnly bool
	// minAccess is the minimum per-project access level for project-scoped
	// actions. AccessNone means the action is not project-access gated.
	minAccess AccessLevel
}

var actionTable = map[Action]actionSpec{
	ActionReadProject:            {minAccess: AccessRead},
	ActionWriteTask:              {minAccess: AccessWrite},
	ActionDeleteTask:             {minAccess: AccessWrite},
	ActionCloneProject:           {requiredFlag: CapImplementations, adminOnly: true},
	ActionCreateProject:          {requiredFlag: CapImplementations, adminOnly: true},
	ActionRenameProject:          {minAccess: AccessAdmin},
	ActionRenameClient:           {requiredFlag: CapClientPortalAdmin, adminOnly: true},
	ActionAdminUserManagement:    {requiredFlag: CapAdminHub, adminOnly: true},
	ActionAssignServiceReport:    {requiredFlag: CapServicePortal, minAccess: AccessWrite},
	ActionSubmitValidationReport: {minAccess: AccessWrite},
	ActionViewInbox:              {requiredFlag: CapServicePortal},
	ActionUploadFile:             {minAccess: AccessWrite},
	ActionViewActivity:           {requiredFlag: CapAdminHub, adminOnly: true},
}

// KnownAction reports whether a is part of the closed taxonomy.
func KnownAction(a Action) bool {
	_, ok := actionTable[a]
	return ok
}

// Whitelist is the closed set of fields a mutation action may change. It is
// the projection step between parsed input and storage write: anything not
// listed is dropped before it can reach a record, regardless of role.
type Whitelist map[string]struct{}

// NewWhitelist builds a Whitelist from field names.
func NewWhitelist(fields ...string) Whitelist {
	w := make(Whitelist, len(fields))
	for _, f := range fields {
		w[f] = struct{}{}
	}
	return w
}

// Allows reports whether the field may be written by this action.
func (w Whitelist) Allows(field string) bool {
	_, ok := w[field]
	return ok
}

// Filter projects input onto the whitelist. Unlisted fields are returned in
// dropped so the caller can log them; they are never merged into storage.
func (w Whitelist) Filter(input map[string]any) (kept map[string]any, dropped []string) {
	kept = make(map[string]any, len(input))
	for k, v := range input {
		if w.Allows(k) {
			kept[k] = v
			continue
		}
		dropped = append(dropped, k)
	}
	return kept, dropped
}

// fieldWhitelists binds each mutating action to its writable fields.
// date_completed is deliberately absent everywhere: it is server-owned.
var fieldWhitelists = map[Action]Whitelist{
	ActionWriteTask: NewWhitelist(
		"title", "description", "phase", "depends_on",
		"completed", "show_to_client", "subtasks",
	),
	ActionAssignServiceReport: NewWhitelist(
		"assignee_id", "scheduled_for", "notes",
	),
	ActionSubmitValidationReport: NewWhitelist(
		"readings", "passed", "notes", "technician_signature",
	),
	ActionAdminUserManagement: NewWhitelist(
		"name", "role", "flags", "assigned_client_ids", "must_change_password",
	),
}

// WhitelistFor returns the writable-field whitelist for an action. Actions
// without one return an empty whitelist: no field may be written.
func WhitelistFor(a Action) Whitelist {
	if w, ok := fieldWhitelists[a]; ok {
		return w
	}
	return Whitelist{}
}
