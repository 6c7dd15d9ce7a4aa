package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"
)

// ----------------------------------------
// Auth
// ----------------------------------------

// Login authenticates and stores the token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*api.User, error) {
	var res api.AuthResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/login",
		body:      api.LoginRequest{Email: email, Password: password},
		anonymous: true,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.session.set(res)
	return &res.User, nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.User, error) {
	var res api.AuthResponse
	err := c.do(ctx, request{
		method:    http.MethodPost,
		path:      "/register",
		body:      req,
		anonymous: true,
	}, &res)
	if err != nil {
		return nil, err
	}
	c.session.set(res)
	return &res.User, nil
}

// Logout revokes the token on the server. The local session is cleared even
// when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	if !c.session.LoggedIn() {
		return nil
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/logout"}, nil)
	c.session.clear(EventLogout)
	return err
}

// Me reloads the current user and refreshes the session with it.
func (c *Client) Me(ctx context.Context) (*api.User, error) {
	var u api.User
	if err := c.do(ctx, request{method: http.MethodGet, path: "/user"}, &u); err != nil {
		return nil, err
	}
	c.session.refresh(u)
	return &u, nil
}

func (c *Client) Health(ctx context.Context) error {
	_, _, err := c.send(ctx, request{method: http.MethodGet, path: "/health", anonymous: true})
	return err
}

// ----------------------------------------
// Dashboard
// ----------------------------------------

func (c *Client) DashboardStats(ctx context.Context) (*api.DashboardStats, error) {
	if err := c.require(access.ViewDashboard); err != nil {
		return nil, err
	}
	var stats api.DashboardStats
	if err := c.do(ctx, request{method: http.MethodGet, path: "/dashboard/stats"}, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// TaskChart fetches created/completed counts per day, week or month.
// Zero count and branchID leave the server defaults in place.
func (c *Client) TaskChart(ctx context.Context, period string, count int, branchID uint) (*api.TaskChart, error) {
	if err := c.require(access.ViewDashboard); err != nil {
		return nil, err
	}
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	if branchID != 0 {
		q.Set("branch_id", strconv.FormatUint(uint64(branchID), 10))
	}
	var chart api.TaskChart
	if err := c.do(ctx, request{method: http.MethodGet, path: "/dashboard/task-chart", query: q}, &chart); err != nil {
		return nil, err
	}
	return &chart, nil
}

func (c *Client) MonthlyReport(ctx context.Context, year, month int) (*api.MonthlyReport, error) {
	if err := c.require(access.ViewReports); err != nil {
		return nil, err
	}
	q := url.Values{}
	if year != 0 {
		q.Set("year", strconv.Itoa(year))
	}
	if month != 0 {
		q.Set("month", strconv.Itoa(month))
	}
	var report api.MonthlyReport
	if err := c.do(ctx, request{method: http.MethodGet, path: "/reports/monthly", query: q}, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ----------------------------------------
// Tasks
// ----------------------------------------

func (c *Client) Tasks(ctx context.Context, f api.TaskFilter) ([]api.Task, error) {
	if err := c.require(access.ListAllTasks, access.ViewOwnTasks); err != nil {
		return nil, err
	}
	var list []api.Task
	err := c.do(ctx, request{method: http.MethodGet, path: "/tasks", query: taskQuery(f)}, &list)
	return list, err
}

func (c *Client) MyTasks(ctx context.Context) ([]api.Task, error) {
	var list []api.Task
	err := c.do(ctx, request{method: http.MethodGet, path: "/my-tasks"}, &list)
	return list, err
}

func (c *Client) Task(ctx context.Context, id uint) (*api.Task, error) {
	var t api.Task
	if err := c.do(ctx, request{method: http.MethodGet, path: taskPath(id)}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, req api.CreateTaskRequest) (*api.Task, error) {
	if err := c.require(access.ManageTasks); err != nil {
		return nil, err
	}
	var t api.Task
	if err := c.do(ctx, request{method: http.MethodPost, path: "/tasks", body: req}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateTask(ctx context.Context, id uint, req api.UpdateTaskRequest) (*api.Task, error) {
	if err := c.require(access.ManageTasks); err != nil {
		return nil, err
	}
	var t api.Task
	if err := c.do(ctx, request{method: http.MethodPatch, path: taskPath(id), body: req}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) SetTaskStatus(ctx context.Context, id uint, status string) (*api.Task, error) {
	if err := c.require(access.SetAnyTaskStatus, access.SetOwnTaskStatus); err != nil {
		return nil, err
	}
	var t api.Task
	err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   taskPath(id) + "/status",
		body:   api.StatusRequest{Status: status},
	}, &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id uint) error {
	if err := c.require(access.ManageTasks); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: taskPath(id)}, nil)
}

// ExportTasks downloads the filtered task list as "xlsx" or "pdf".
func (c *Client) ExportTasks(ctx context.Context, format string, f api.TaskFilter) ([]byte, error) {
	if err := c.require(access.ExportTasks); err != nil {
		return nil, err
	}
	q := taskQuery(f)
	q.Set("format", format)
	raw, _, err := c.send(ctx, request{method: http.MethodGet, path: "/tasks/export", query: q})
	return raw, err
}

// ImportTasks uploads an Excel sheet of tasks. Either every row is created or
// none is.
func (c *Client) ImportTasks(ctx context.Context, filename string, r io.Reader) (*api.ImportResult, error) {
	if err := c.require(access.ManageTasks); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var res api.ImportResult
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/tasks/import",
		rawBody:     &buf,
		contentType: mw.FormDataContentType(),
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ----------------------------------------
// Managers
// ----------------------------------------

func (c *Client) Managers(ctx context.Context) ([]api.Manager, error) {
	if err := c.require(access.ManageManagers); err != nil {
		return nil, err
	}
	var list []api.Manager
	err := c.do(ctx, request{method: http.MethodGet, path: "/managers"}, &list)
	return list, err
}

func (c *Client) Manager(ctx context.Context, id uint) (*api.ManagerDetail, error) {
	if err := c.require(access.ManageManagers); err != nil {
		return nil, err
	}
	var m api.ManagerDetail
	if err := c.do(ctx, request{method: http.MethodGet, path: managerPath(id)}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) CreateManager(ctx context.Context, req api.CreateManagerRequest) (*api.User, error) {
	if err := c.require(access.ManageManagers); err != nil {
		return nil, err
	}
	var u api.User
	if err := c.do(ctx, request{method: http.MethodPost, path: "/managers", body: req}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateManager(ctx context.Context, id uint, req api.UpdateManagerRequest) (*api.User, error) {
	if err := c.require(access.ManageManagers); err != nil {
		return nil, err
	}
	var u api.User
	if err := c.do(ctx, request{method: http.MethodPatch, path: managerPath(id), body: req}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) DeleteManager(ctx context.Context, id uint) error {
	if err := c.require(access.ManageManagers); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: managerPath(id)}, nil)
}

// ----------------------------------------
// Branches
// ----------------------------------------

func (c *Client) Branches(ctx context.Context) ([]api.BranchSummary, error) {
	if err := c.require(access.ManageBranches); err != nil {
		return nil, err
	}
	var list []api.BranchSummary
	err := c.do(ctx, request{method: http.MethodGet, path: "/branches"}, &list)
	return list, err
}

func (c *Client) Branch(ctx context.Context, id uint) (*api.BranchDetail, error) {
	if err := c.require(access.ManageBranches); err != nil {
		return nil, err
	}
	var b api.BranchDetail
	if err := c.do(ctx, request{method: http.MethodGet, path: branchPath(id)}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) CreateBranch(ctx context.Context, req api.CreateBranchRequest) (*api.Branch, error) {
	if err := c.require(access.ManageBranches); err != nil {
		return nil, err
	}
	var b api.Branch
	if err := c.do(ctx, request{method: http.MethodPost, path: "/branches", body: req}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) UpdateBranch(ctx context.Context, id uint, req api.UpdateBranchRequest) (*api.Branch, error) {
	if err := c.require(access.ManageBranches); err != nil {
		return nil, err
	}
	var b api.Branch
	if err := c.do(ctx, request{method: http.MethodPatch, path: branchPath(id), body: req}, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) DeleteBranch(ctx context.Context, id uint) error {
	if err := c.require(access.ManageBranches); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: branchPath(id)}, nil)
}

// ----------------------------------------
// Audit log
// ----------------------------------------

type AuditFilter struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
}

func (c *Client) AuditLogs(ctx context.Context, f AuditFilter) ([]api.AuditLog, error) {
	if err := c.require(access.ViewAuditLog); err != nil {
		return nil, err
	}
	q := url.Values{}
	if f.EntityType != "" {
		q.Set("entity_type", f.EntityType)
	}
	if f.EntityID != 0 {
		q.Set("entity_id", strconv.FormatUint(uint64(f.EntityID), 10))
	}
	if f.UserID != 0 {
		q.Set("user_id", strconv.FormatUint(uint64(f.UserID), 10))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var list []api.AuditLog
	err := c.do(ctx, request{method: http.MethodGet, path: "/audit-logs", query: q}, &list)
	return list, err
}

// require fails unless the session holds at least one of caps.
func (c *Client) require(caps ...access.Capability) error {
	if !c.session.LoggedIn() {
		return ErrNotLoggedIn
	}
	for _, cp := range caps {
		if c.session.Can(cp) {
			return nil
		}
	}
	return ErrForbidden
}

func taskQuery(f api.TaskFilter) url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.AssignedTo != 0 {
		q.Set("assigned_to", strconv.FormatUint(uint64(f.AssignedTo), 10))
	}
	if f.BranchID != 0 {
		q.Set("branch_id", strconv.FormatUint(uint64(f.BranchID), 10))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

func taskPath(id uint) string    { return fmt.Sprintf("/tasks/%d", id) }
func managerPath(id uint) string { return fmt.Sprintf("/managers/%d", id) }
func branchPath(id uint) string  { return fmt.Sprintf("/branches/%d", id) }
