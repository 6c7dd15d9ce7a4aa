package client_test

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmanager-backend/internal/config"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/database/dbtest"
	"taskmanager-backend/internal/server"
	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"
	"taskmanager-backend/pkg/client"
)

// serve runs the real application on a loopback port and returns its base
// URL.
func serve(t *testing.T) string {
	t.Helper()
	db := dbtest.New(t)
	if err := database.SeedDemoData(db); err != nil {
		t.Fatalf("seed: %v", err)
	}

	app := server.New(&config.Config{
		JWTSecret:   strings.Repeat("c", 32),
		JWTTTL:      time.Hour,
		CORSOrigins: "*",
	})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })

	return "http://" + ln.Addr().String()
}

func loggedIn(t *testing.T, base, email string) *client.Client {
	t.Helper()
	c := client.New(base)
	if _, err := c.Login(context.Background(), email, database.DemoPassword); err != nil {
		t.Fatalf("login %s: %v", email, err)
	}
	return c
}

func TestSessionFollowsLoginAndLogout(t *testing.T) {
	base := serve(t)
	ctx := context.Background()

	c := client.New(base)
	events, stop := c.Session().Subscribe()
	defer stop()

	if c.Session().Can(access.ViewDashboard) {
		t.Fatal("logged out session holds capabilities")
	}

	user, err := c.Login(ctx, "admin@company.com", database.DemoPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Role != access.RoleAdmin || !c.Session().Can(access.ManageBranches) {
		t.Fatalf("user=%+v caps=%v", user, c.Session().Capabilities())
	}
	if ev := <-events; ev.Kind != client.EventLogin || ev.User == nil || ev.User.ID != user.ID {
		t.Fatalf("event = %+v", ev)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if ev := <-events; ev.Kind != client.EventLogout {
		t.Fatalf("event = %+v", ev)
	}
	if c.Session().LoggedIn() || c.Session().Can(access.ManageBranches) {
		t.Fatal("session kept state after logout")
	}
	if _, err := c.Tasks(ctx, api.TaskFilter{}); !errors.Is(err, client.ErrNotLoggedIn) {
		t.Fatalf("err = %v", err)
	}
}

func TestServerRejectionExpiresSession(t *testing.T) {
	base := serve(t)
	ctx := context.Background()

	c := loggedIn(t, base, "manager@company.com")
	path := filepath.Join(t.TempDir(), "session.json")
	if err := c.Session().Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A second process logs out with the stored token.
	stored, err := client.LoadSession(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := client.New(base, client.WithSession(stored)).Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	events, stop := c.Session().Subscribe()
	defer stop()

	_, err = c.MyTasks(ctx)
	if !client.IsUnauthenticated(err) {
		t.Fatalf("err = %v", err)
	}
	if ev := <-events; ev.Kind != client.EventExpired {
		t.Fatalf("event = %+v", ev)
	}
	if c.Session().LoggedIn() {
		t.Fatal("session still logged in")
	}
}

func TestCapabilitiesAreCheckedBeforeTheNetwork(t *testing.T) {
	base := serve(t)
	ctx := context.Background()
	c := loggedIn(t, base, "manager@company.com")

	if _, err := c.Managers(ctx); !errors.Is(err, client.ErrForbidden) {
		t.Fatalf("managers: err = %v", err)
	}
	if _, err := c.CreateTask(ctx, api.CreateTaskRequest{}); !errors.Is(err, client.ErrForbidden) {
		t.Fatalf("create task: err = %v", err)
	}
	if err := c.DeleteBranch(ctx, 1); !errors.Is(err, client.ErrForbidden) {
		t.Fatalf("delete branch: err = %v", err)
	}
	if _, err := c.MonthlyReport(ctx, 0, 0); !errors.Is(err, client.ErrForbidden) {
		t.Fatalf("monthly report: err = %v", err)
	}

	var names []string
	for _, s := range c.Session().Sections() {
		names = append(names, s.Name)
	}
	if strings.Join(names, ",") != "dashboard,my-tasks" {
		t.Fatalf("manager sections = %v", names)
	}
}

func TestManagerView(t *testing.T) {
	base := serve(t)
	ctx := context.Background()
	c := loggedIn(t, base, "manager@company.com")

	d, err := c.LoadDashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Stats.TotalManagers != nil || d.Managers != nil {
		t.Fatalf("manager dashboard carries admin data: %+v", d)
	}
	if d.Stats.TotalTasks != 2 || len(d.Recent) != 2 {
		t.Fatalf("stats=%+v recent=%d", d.Stats, len(d.Recent))
	}

	task, err := c.SetTaskStatus(ctx, d.Recent[0].ID, "completed")
	if err != nil {
		t.Fatalf("set status: %v", err)
	}
	if task.CompletedDate == nil {
		t.Fatal("completed_date not set")
	}

	chart, err := c.TaskChart(ctx, "weekly", 2, 0)
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if len(chart.Points) != 2 || chart.Totals.Created != 2 || chart.Totals.Completed != 1 {
		t.Fatalf("chart = %+v", chart)
	}

	// Task 2 belongs to another manager.
	_, err = c.SetTaskStatus(ctx, 2, "completed")
	if !client.IsKind(err, client.KindUnauthorized) {
		t.Fatalf("err = %v", err)
	}
}

func TestAdminView(t *testing.T) {
	base := serve(t)
	ctx := context.Background()
	c := loggedIn(t, base, "admin@company.com")

	d, err := c.LoadDashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Stats.TotalManagers == nil || *d.Stats.TotalManagers != 3 || len(d.Managers) != 3 || len(d.Recent) != 5 {
		t.Fatalf("admin dashboard = %+v", d)
	}
	if rate := d.CompletionRate(); rate != 20 {
		t.Fatalf("completion rate = %v", rate)
	}

	b, err := c.CreateBranch(ctx, api.CreateBranchRequest{Name: "Chicago North", Address: "1 Lake St", Phone: "555"})
	if err != nil {
		t.Fatalf("create branch: %v", err)
	}
	m, err := c.CreateManager(ctx, api.CreateManagerRequest{Name: "M", Email: "m@company.com", Password: "password1", BranchID: b.ID})
	if err != nil {
		t.Fatalf("create manager: %v", err)
	}
	if _, err := c.CreateManager(ctx, api.CreateManagerRequest{Name: "M2", Email: "m@company.com", Password: "password1", BranchID: b.ID}); !client.IsKind(err, client.KindConflict) {
		t.Fatalf("duplicate manager: err = %v", err)
	}

	_, err = c.CreateTask(ctx, api.CreateTaskRequest{Title: "T", Priority: "urgent"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 422 || len(apiErr.Fields["priority"]) == 0 {
		t.Fatalf("invalid task: err = %v", err)
	}

	task, err := c.CreateTask(ctx, api.CreateTaskRequest{
		Title: "T", Description: "d", AssignedTo: m.ID, BranchID: b.ID, Priority: "high", DueDate: "2030-01-01",
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := c.DeleteBranch(ctx, b.ID); !client.IsKind(err, client.KindReferentialConstraint) {
		t.Fatalf("delete busy branch: err = %v", err)
	}

	list, err := c.Tasks(ctx, api.TaskFilter{BranchID: b.ID})
	if err != nil || len(list) != 1 || list[0].ID != task.ID {
		t.Fatalf("tasks = %+v, err = %v", list, err)
	}

	pdf, err := c.ExportTasks(ctx, "pdf", api.TaskFilter{})
	if err != nil || !strings.HasPrefix(string(pdf), "%PDF") {
		t.Fatalf("export: %d bytes, err = %v", len(pdf), err)
	}

	report, err := c.MonthlyReport(ctx, 0, 0)
	if err != nil || len(report.Branches) != 4 || report.Totals.Created != 6 {
		t.Fatalf("report = %+v, err = %v", report, err)
	}

	logs, err := c.AuditLogs(ctx, client.AuditFilter{EntityType: "manager"})
	if err != nil || len(logs) != 1 || logs[0].Action != "create" {
		t.Fatalf("audit = %+v, err = %v", logs, err)
	}
}

func TestSessionFileRoundTrip(t *testing.T) {
	base := serve(t)
	c := loggedIn(t, base, "sarah@company.com")

	path := filepath.Join(t.TempDir(), "nested", "session.json")
	if err := c.Session().Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	s, err := client.LoadSession(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Token() != c.Session().Token() || s.Role() != access.RoleManager || !s.Can(access.SetOwnTaskStatus) {
		t.Fatalf("restored session differs")
	}

	restored := client.New(base, client.WithSession(s))
	u, err := restored.Me(context.Background())
	if err != nil || u.Email != "sarah@company.com" {
		t.Fatalf("me = %+v, err = %v", u, err)
	}

	empty, err := client.LoadSession(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil || empty.LoggedIn() {
		t.Fatalf("missing file: %v", err)
	}
}

func TestFilterTasks(t *testing.T) {
	list := []api.Task{
		{ID: 1, Title: "Inventory audit", Status: "overdue"},
		{ID: 2, Title: "Survey", Description: "customer SURVEY", Status: "pending"},
		{ID: 3, Title: "Training", Status: "pending"},
	}
	cases := []struct {
		status, search string
		want           int
	}{
		{"all", "", 3},
		{"pending", "", 2},
		{"", "survey", 1},
		{"pending", "audit", 0},
	}
	for _, tc := range cases {
		if got := client.FilterTasks(list, tc.status, tc.search); len(got) != tc.want {
			t.Errorf("FilterTasks(%q, %q) = %d tasks, want %d", tc.status, tc.search, len(got), tc.want)
		}
	}
}
