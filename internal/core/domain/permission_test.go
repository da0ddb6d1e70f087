package domain

import "testing"

func adminUser(flags ...Capability) *User {
	u := &User{ID: "u_admin", Role: RoleAdmin, Flags: map[Capability]bool{}}
	for _, f := range flags {
		u.Flags[f] = true
	}
	return u
}

func TestCanPerform_AdminWithFlagAllowed(t *testing.T) {
	caller := adminUser(CapImplementations)
	d := CanPerform(caller, ActionCloneProject, Target{Kind: KindProject, ID: "p1", ClientID: "c1"})
	if !d.Allowed {
		t.Fatalf("expected allow, got deny(%s)", d.Reason)
	}
}

func TestCanPerform_AdminWithoutFlagDenied(t *testing.T) {
	caller := adminUser()
	d := CanPerform(caller, ActionCloneProject, Target{Kind: KindProject, ID: "p1", ClientID: "c1"})
	if d.Allowed {
		t.Fatalf("expected deny, got allow")
	}
	if d.Reason != DenyInsufficientRole {
		t.Fatalf("expected %s, got %s", DenyInsufficientRole, d.Reason)
	}
}

func TestCanPerform_AdminSkipsProjectAccessCheck(t *testing.T) {
	// An admin holding the flag is allowed even with no access-level grant
	// on the target project.
	caller := adminUser()
	d := CanPerform(caller, ActionWriteTask, Target{Kind: KindProject, ID: "p1", ClientID: "c1", Access: AccessNone})
	if !d.Allowed {
		t.Fatalf("expected allow for admin, got deny(%s)", d.Reason)
	}
}

func TestCanPerform_ClientRoleDeniedAdminOnlyAction(t *testing.T) {
	caller := &User{
		ID:   "u_client",
		Role: RoleClient,
		Flags: map[Capability]bool{
			CapAdminHub: true,
		},
	}
	d := CanPerform(caller, ActionAdminUserManagement, Target{})
	if d.Allowed {
		t.Fatalf("client role must never pass an admin-only action")
	}
	if d.Reason != DenyInsufficientRole {
		t.Fatalf("expected %s, got %s", DenyInsufficientRole, d.Reason)
	}
}

func TestCanPerform_VendorNotAssignedOutranksFlags(t *testing.T) {
	// A vendor with every flag set is still denied on an unassigned client.
	caller := &User{
		ID:   "u_vendor",
		Role: RoleVendor,
		Flags: map[Capability]bool{
			CapServicePortal:     true,
			CapAdminHub:          true,
			CapImplementations:   true,
			CapClientPortalAdmin: true,
		},
		AssignedClientIDs: []string{"c_other"},
	}
	d := CanPerform(caller, ActionViewInbox, Target{Kind: KindClient, ID: "c1", ClientID: "c1"})
	if d.Allowed {
		t.Fatalf("expected deny for unassigned vendor")
	}
	if d.Reason != DenyNotAssigned {
		t.Fatalf("expected %s, got %s", DenyNotAssigned, d.Reason)
	}
}

func TestCanPerform_VendorEmptyAssignmentNeverWidens(t *testing.T) {
	caller := &User{
		ID:    "u_vendor",
		Role:  RoleVendor,
		Flags: map[Capability]bool{CapServicePortal: true},
	}
	d := CanPerform(caller, ActionViewInbox, Target{Kind: KindClient, ID: "c1", ClientID: "c1"})
	if d.Allowed {
		t.Fatalf("empty assigned-client set must mean no access, not all clients")
	}
	if d.Reason != DenyNotAssigned {
		t.Fatalf("expected %s, got %s", DenyNotAssigned, d.Reason)
	}
}

func TestCanPerform_VendorAssignedAllowed(t *testing.T) {
	caller := &User{
		ID:                "u_vendor",
		Role:              RoleVendor,
		Flags:             map[Capability]bool{CapServicePortal: true},
		AssignedClientIDs: []string{"c1"},
	}
	d := CanPerform(caller, ActionViewInbox, Target{Kind: KindClient, ID: "c1", ClientID: "c1"})
	if !d.Allowed {
		t.Fatalf("expected allow for assigned vendor, got deny(%s)", d.Reason)
	}
}

func TestCanPerform_MissingFlagDenied(t *testing.T) {
	caller := &User{ID: "u_tech", Role: RoleTechnician}
	d := CanPerform(caller, ActionViewInbox, Target{})
	if d.Allowed {
		t.Fatalf("expected deny without service_portal flag")
	}
	if d.Reason != DenyInsufficientRole {
		t.Fatalf("expected %s, got %s", DenyInsufficientRole, d.Reason)
	}
}

func TestCanPerform_ProjectAccessLadder(t *testing.T) {
	tests := []struct {
		name    string
		access  AccessLevel
		action  Action
		allowed bool
		reason  string
	}{
		{"read can read", AccessRead, ActionReadProject, true, ""},
		{"read cannot write", AccessRead, ActionWriteTask, false, DenyInsufficientProjectAccess},
		{"write can write", AccessWrite, ActionWriteTask, true, ""},
		{"write can delete", AccessWrite, ActionDeleteTask, true, ""},
		{"write cannot rename", AccessWrite, ActionRenameProject, false, DenyInsufficientProjectAccess},
		{"admin can rename", AccessAdmin, ActionRenameProject, true, ""},
		{"none cannot read", AccessNone, ActionReadProject, false, DenyInsufficientProjectAccess},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			caller := &User{ID: "u_mgr", Role: RoleManager}
			d := CanPerform(caller, tc.action, Target{Kind: KindProject, ID: "p1", ClientID: "c1", Access: tc.access})
			if d.Allowed != tc.allowed {
				t.Fatalf("allowed = %v, want %v (reason %q)", d.Allowed, tc.allowed, d.Reason)
			}
			if d.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", d.Reason, tc.reason)
			}
		})
	}
}

func TestCanPerform_ClientTargetNotAccessGated(t *testing.T) {
	// Access levels are a per-project concept. A client-kind target carries
	// the zero value, which must not trip the project-access rule: reads on
	// a client portal are open to any internal role and to assigned vendors.
	tests := []struct {
		name   string
		caller *User
	}{
		{"technician", &User{ID: "u_tech", Role: RoleTechnician}},
		{"manager", &User{ID: "u_mgr", Role: RoleManager}},
		{"assigned vendor", &User{ID: "u_vendor", Role: RoleVendor, AssignedClientIDs: []string{"c1"}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := CanPerform(tc.caller, ActionReadProject, Target{Kind: KindClient, ID: "c1", ClientID: "c1"})
			if !d.Allowed {
				t.Fatalf("expected allow on client target, got deny(%s)", d.Reason)
			}
		})
	}
}

func TestCanPerform_ClientTargetStillGatesVendorAssignment(t *testing.T) {
	caller := &User{ID: "u_vendor", Role: RoleVendor, AssignedClientIDs: []string{"c_other"}}
	d := CanPerform(caller, ActionReadProject, Target{Kind: KindClient, ID: "c1", ClientID: "c1"})
	if d.Allowed {
		t.Fatalf("unassigned vendor must still be denied on a client target")
	}
	if d.Reason != DenyNotAssigned {
		t.Fatalf("expected %s, got %s", DenyNotAssigned, d.Reason)
	}
}

func TestCanPerform_UnknownActionDenied(t *testing.T) {
	caller := adminUser(CapAdminHub)
	d := CanPerform(caller, Action("drop-database"), Target{})
	if d.Allowed {
		t.Fatalf("unknown actions must be denied")
	}
}

func TestWhitelistFilter_DropsUnlistedFields(t *testing.T) {
	w := WhitelistFor(ActionWriteTask)
	kept, dropped := w.Filter(map[string]any{
		"title":          "new title",
		"completed":      true,
		"date_completed": "2026-01-01T00:00:00Z",
		"role":           "admin",
	})

	if _, ok := kept["title"]; !ok {
		t.Fatalf("title should be kept")
	}
	if _, ok := kept["completed"]; !ok {
		t.Fatalf("completed should be kept")
	}
	if _, ok := kept["date_completed"]; ok {
		t.Fatalf("date_completed is server-owned and must be dropped")
	}
	if _, ok := kept["role"]; ok {
		t.Fatalf("role must be dropped from a task patch")
	}
	if len(dropped) != 2 {
		t.Fatalf("expected 2 dropped fields, got %d: %v", len(dropped), dropped)
	}
}

func TestWhitelistFor_UnlistedActionWritesNothing(t *testing.T) {
	w := WhitelistFor(ActionReadProject)
	kept, dropped := w.Filter(map[string]any{"title": "x"})
	if len(kept) != 0 {
		t.Fatalf("read actions must not admit any writable field")
	}
	if len(dropped) != 1 {
		t.Fatalf("expected the field reported as dropped")
	}
}
