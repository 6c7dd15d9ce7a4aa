package access

import "testing"

func TestAdminCapabilities(t *testing.T) {
	s := For(RoleAdmin)
	for _, c := range []Capability{ManageTasks, ManageBranches, ManageManagers, SetAnyTaskStatus, ExportTasks, ViewReports} {
		if !s.Has(c) {
			t.Fatalf("admin should have %s", c)
		}
	}
	if s.Has(SetOwnTaskStatus) {
		t.Fatalf("admin status rights come from %s", SetAnyTaskStatus)
	}
}

func TestManagerCapabilities(t *testing.T) {
	s := For(RoleManager)
	if !s.Has(ViewOwnTasks) || !s.Has(SetOwnTaskStatus) || !s.Has(ViewDashboard) {
		t.Fatalf("manager missing base capabilities: %v", s.List())
	}
	for _, c := range []Capability{ManageTasks, ManageBranches, ManageManagers, ListAllTasks, ViewAuditLog, ViewReports} {
		if s.Has(c) {
			t.Fatalf("manager must not have %s", c)
		}
	}
}

func TestUnknownRoleHasNothing(t *testing.T) {
	s := For(Role("guest"))
	if len(s.List()) != 0 {
		t.Fatalf("expected empty set, got %v", s.List())
	}
	if Role("guest").Valid() {
		t.Fatal("guest should not be a valid role")
	}
}
