// Package access holds the two fixed roles and the capability set each role
// carries. Both the API server and the client check capabilities through
// this package so role logic lives in one place.
package access

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager
}

type Capability string

const (
	ViewDashboard    Capability = "dashboard:view"
	ListAllTasks     Capability = "tasks:list-all"
	ViewOwnTasks     Capability = "tasks:view-own"
	ManageTasks      Capability = "tasks:manage"
	SetAnyTaskStatus Capability = "tasks:status-any"
	SetOwnTaskStatus Capability = "tasks:status-own"
	ExportTasks      Capability = "tasks:export"
	ManageManagers   Capability = "managers:manage"
	ManageBranches   Capability = "branches:manage"
	ViewAuditLog     Capability = "audit:view"
	ViewReports      Capability = "reports:view"
)

var capabilities = map[Role][]Capability{
	RoleAdmin: {
		ViewDashboard,
		ListAllTasks,
		ManageTasks,
		SetAnyTaskStatus,
		ExportTasks,
		ManageManagers,
		ManageBranches,
		ViewAuditLog,
		ViewReports,
	},
	RoleManager: {
		ViewDashboard,
		ViewOwnTasks,
		SetOwnTaskStatus,
	},
}

// Set is an immutable capability set.
type Set struct {
	role Role
	caps map[Capability]struct{}
}

// For returns the capability set of role. Unknown roles get an empty set.
func For(role Role) Set {
	s := Set{role: role, caps: make(map[Capability]struct{})}
	for _, c := range capabilities[role] {
		s.caps[c] = struct{}{}
	}
	return s
}

func (s Set) Role() Role { return s.role }

func (s Set) Has(c Capability) bool {
	_, ok := s.caps[c]
	return ok
}

// List returns the capabilities in declaration order.
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(s.caps))
	for _, c := range capabilities[s.role] {
		out = append(out, c)
	}
	return out
}
