package main

import (
	"bytes"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"taskmanager-backend/internal/config"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/database/dbtest"
	"taskmanager-backend/internal/server"
	"taskmanager-backend/pkg/api"
	"taskmanager-backend/pkg/client"
)

func startServer(t *testing.T) string {
	t.Helper()
	db := dbtest.New(t)
	if err := database.SeedDemoData(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
	app := server.New(&config.Config{JWTSecret: strings.Repeat("t", 32), JWTTTL: time.Hour, CORSOrigins: "*"})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

// run executes one taskctl invocation, like a separate process would.
func run(t *testing.T, base, session string, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--server", base, "--session", session}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestManagerSession(t *testing.T) {
	base := startServer(t)
	session := filepath.Join(t.TempDir(), "session.json")

	out, err := run(t, base, session, "login", "-e", "manager@company.com", "-p", database.DemoPassword)
	if err != nil || !strings.Contains(out, "Logged in as John Smith (manager)") {
		t.Fatalf("login: %v\n%s", err, out)
	}
	if _, err := os.Stat(session); err != nil {
		t.Fatalf("session file: %v", err)
	}

	out, err = run(t, base, session, "menu")
	if err != nil || !strings.Contains(out, "my-tasks") || strings.Contains(out, "managers") {
		t.Fatalf("menu: %v\n%s", err, out)
	}

	out, err = run(t, base, session, "tasks", "list", "--mine")
	if err != nil || !strings.Contains(out, "Inventory Audit") || strings.Contains(out, "Customer Satisfaction") {
		t.Fatalf("tasks: %v\n%s", err, out)
	}

	out, err = run(t, base, session, "tasks", "status", "1", "completed")
	if err != nil || !strings.Contains(out, "Task 1 is now completed") {
		t.Fatalf("status: %v\n%s", err, out)
	}

	_, err = run(t, base, session, "branches", "list")
	if err == nil || !strings.Contains(err.Error(), "cannot do this") {
		t.Fatalf("branches as manager: %v", err)
	}

	out, err = run(t, base, session, "logout")
	if err != nil || !strings.Contains(out, "Logged out") {
		t.Fatalf("logout: %v\n%s", err, out)
	}
	if _, err := os.Stat(session); !os.IsNotExist(err) {
		t.Fatalf("session file survived logout: %v", err)
	}

	_, err = run(t, base, session, "dashboard")
	if err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("dashboard after logout: %v", err)
	}
}

func TestAdminCommands(t *testing.T) {
	base := startServer(t)
	session := filepath.Join(t.TempDir(), "session.json")

	if _, err := run(t, base, session, "login", "-e", "admin@company.com", "-p", database.DemoPassword); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err := run(t, base, session, "dashboard")
	if err != nil || !strings.Contains(out, "Total managers") || !strings.Contains(out, "Completion rate  20%") {
		t.Fatalf("dashboard: %v\n%s", err, out)
	}

	out, err = run(t, base, session, "branches", "create", "--name", "Boston", "--address", "1 Main St", "--phone", "555")
	if err != nil || !strings.Contains(out, "Created branch 4 (Boston)") {
		t.Fatalf("create branch: %v\n%s", err, out)
	}

	_, err = run(t, base, session, "branches", "delete", "1")
	if err == nil || !strings.Contains(err.Error(), "409") {
		t.Fatalf("delete busy branch: %v", err)
	}

	out, err = run(t, base, session, "tasks", "update", "2", "--priority", "high")
	if err != nil || !strings.Contains(out, "high") {
		t.Fatalf("update: %v\n%s", err, out)
	}

	export := filepath.Join(t.TempDir(), "tasks.pdf")
	if _, err := run(t, base, session, "tasks", "export", "--format", "pdf", "-o", export); err != nil {
		t.Fatalf("export: %v", err)
	}
	if b, err := os.ReadFile(export); err != nil || !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("export file: %v", err)
	}

	out, err = run(t, base, session, "report")
	if err != nil || !strings.Contains(out, "Boston") || !strings.Contains(out, "Total") {
		t.Fatalf("report: %v\n%s", err, out)
	}

	out, err = run(t, base, session, "dashboard", "chart", "--period", "monthly", "-n", "3")
	if err != nil || !strings.Contains(out, "monthly") || !strings.Contains(out, "total") {
		t.Fatalf("chart: %v\n%s", err, out)
	}

	out, err = run(t, base, session, "audit", "--entity", "branch")
	if err != nil || !strings.Contains(out, "Branch created: Boston") {
		t.Fatalf("audit: %v\n%s", err, out)
	}
}

func TestRenderTasksEmpty(t *testing.T) {
	var buf bytes.Buffer
	renderTasks(&buf, nil)
	if buf.String() != "No tasks found\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestRenderDashboardHidesManagersForManagers(t *testing.T) {
	var buf bytes.Buffer
	renderDashboard(&buf, &client.Dashboard{
		Stats:  api.DashboardStats{TotalTasks: 4, CompletedTasks: 1},
		Recent: []api.Task{{ID: 9, Title: "Only task", Status: "pending", DueDate: "2030-01-01"}},
	})
	out := buf.String()
	if strings.Contains(out, "Total managers") || strings.Contains(out, "Managers") {
		t.Fatalf("manager dashboard shows managers:\n%s", out)
	}
	if !strings.Contains(out, "Completion rate  25%") || !strings.Contains(out, "Only task") {
		t.Fatalf("output:\n%s", out)
	}
}
