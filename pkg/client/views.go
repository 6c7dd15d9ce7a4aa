package client

import (
	"context"
	"strings"

	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"

	"golang.org/x/sync/errgroup"
)

// Section is one screen of the client. A session sees the sections whose
// capabilities it holds; nothing else looks at the role.
type Section struct {
	Name  string
	Title string
	needs []access.Capability
}

var sections = []Section{
	{Name: "dashboard", Title: "Dashboard", needs: []access.Capability{access.ViewDashboard}},
	{Name: "tasks", Title: "Tasks", needs: []access.Capability{access.ListAllTasks}},
	{Name: "my-tasks", Title: "My Tasks", needs: []access.Capability{access.ViewOwnTasks}},
	{Name: "managers", Title: "Managers", needs: []access.Capability{access.ManageManagers}},
	{Name: "branches", Title: "Branches", needs: []access.Capability{access.ManageBranches}},
	{Name: "reports", Title: "Reports", needs: []access.Capability{access.ViewReports}},
	{Name: "audit-log", Title: "Audit Log", needs: []access.Capability{access.ViewAuditLog}},
}

// Sections lists the screens available to the session, in menu order.
func (s *Session) Sections() []Section {
	var out []Section
	for _, sec := range sections {
		for _, c := range sec.needs {
			if s.Can(c) {
				out = append(out, sec)
				break
			}
		}
	}
	return out
}

const recentTasks = 5

// Dashboard is the landing screen. Managers is only filled for sessions
// that can manage managers.
type Dashboard struct {
	Stats    api.DashboardStats
	Recent   []api.Task
	Managers []api.Manager
}

// CompletionRate is the share of completed tasks in percent.
func (d *Dashboard) CompletionRate() float64 {
	if d.Stats.TotalTasks == 0 {
		return 0
	}
	return float64(d.Stats.CompletedTasks) * 100 / float64(d.Stats.TotalTasks)
}

// LoadDashboard fetches the stats, the latest tasks and, for admins, the
// managers concurrently.
func (c *Client) LoadDashboard(ctx context.Context) (*Dashboard, error) {
	if err := c.require(access.ViewDashboard); err != nil {
		return nil, err
	}

	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := c.DashboardStats(ctx)
		if err != nil {
			return err
		}
		d.Stats = *stats
		return nil
	})
	g.Go(func() error {
		var list []api.Task
		var err error
		if c.session.Can(access.ListAllTasks) {
			list, err = c.Tasks(ctx, api.TaskFilter{})
		} else {
			list, err = c.MyTasks(ctx)
		}
		if err != nil {
			return err
		}
		if len(list) > recentTasks {
			list = list[:recentTasks]
		}
		d.Recent = list
		return nil
	})
	if c.session.Can(access.ManageManagers) {
		g.Go(func() error {
			list, err := c.Managers(ctx)
			if err != nil {
				return err
			}
			d.Managers = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// FilterTasks narrows an already loaded list the way the task screens do:
// by status, then by a case-insensitive match on title or description.
func FilterTasks(list []api.Task, status, search string) []api.Task {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]api.Task, 0, len(list))
	for _, t := range list {
		if status != "" && status != "all" && t.Status != status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		out = append(out, t)
	}
	return out
}
