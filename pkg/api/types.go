// Package api holds the JSON shapes exchanged between the task manager
// server and its clients. Request types carry the validation rules the
// server enforces.
package api

import "taskmanager-backend/pkg/access"

// Date layouts used on the wire.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04:05Z07:00"
)

type Message struct {
	Message string `json:"message"`
}

type ErrorBody struct {
	Error   string              `json:"error,omitempty"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// ----------------------------------------
// Auth
// ----------------------------------------

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8"`
	Phone    *string `json:"phone,omitempty" validate:"omitnil,max=50"`
	BranchID *uint   `json:"branch_id,omitempty" validate:"omitnil,gt=0"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}

// ----------------------------------------
// Resources
// ----------------------------------------

type Branch struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Phone       string  `json:"phone"`
	Established *string `json:"established"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type BranchSummary struct {
	Branch
	ManagersCount int64 `json:"managers_count"`
	TasksCount    int64 `json:"tasks_count"`
}

type BranchDetail struct {
	Branch
	Users []User `json:"users"`
	Tasks []Task `json:"tasks"`
}

type User struct {
	ID        uint        `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	Phone     string      `json:"phone"`
	BranchID  *uint       `json:"branch_id"`
	Branch    *Branch     `json:"branch,omitempty"`
	CreatedAt string      `json:"created_at"`
	UpdatedAt string      `json:"updated_at"`
}

type Manager struct {
	User
	TasksCompleted int64 `json:"tasks_completed"`
	TasksPending   int64 `json:"tasks_pending"`
}

type ManagerDetail struct {
	User
	Tasks []Task `json:"tasks"`
}

type Task struct {
	ID            uint    `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	AssignedTo    uint    `json:"assigned_to"`
	BranchID      uint    `json:"branch_id"`
	Status        string  `json:"status"`
	Priority      string  `json:"priority"`
	DueDate       string  `json:"due_date"`
	CompletedDate *string `json:"completed_date"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	Assignee      *User   `json:"assignee,omitempty"`
	Branch        *Branch `json:"branch,omitempty"`
}

type DashboardStats struct {
	TotalManagers   *int64 `json:"total_managers,omitempty"`
	TotalTasks      int64  `json:"total_tasks"`
	PendingTasks    int64  `json:"pending_tasks"`
	InProgressTasks int64  `json:"in_progress_tasks"`
	CompletedTasks  int64  `json:"completed_tasks"`
	OverdueTasks    int64  `json:"overdue_tasks"`
}

// TaskChart counts created and completed tasks per period bucket, oldest
// bucket first. Empty buckets are included.
type TaskChart struct {
	Period   string           `json:"period"` // daily | weekly | monthly
	From     string           `json:"from"`
	To       string           `json:"to"`
	BranchID *uint            `json:"branch_id,omitempty"`
	Points   []TaskChartPoint `json:"points"`
	Totals   TaskChartPoint   `json:"totals"`
}

type TaskChartPoint struct {
	Label     string `json:"label"`
	Created   int64  `json:"created"`
	Completed int64  `json:"completed"`
}

// MonthlyReport summarises one calendar month per branch.
type MonthlyReport struct {
	Year     int                   `json:"year"`
	Month    int                   `json:"month"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Branches []BranchMonthlyReport `json:"branches"`
	Totals   BranchMonthlyReport   `json:"totals"`
}

type BranchMonthlyReport struct {
	BranchID       uint    `json:"branch_id,omitempty"`
	BranchName     string  `json:"branch_name,omitempty"`
	Created        int64   `json:"created"`
	Completed      int64   `json:"completed"`
	CompletedLate  int64   `json:"completed_late"`
	Due            int64   `json:"due"`
	OpenPastDue    int64   `json:"open_past_due"`
	CompletionRate float64 `json:"completion_rate"`
}

type AuditLog struct {
	ID          uint   `json:"id"`
	CreatedAt   string `json:"created_at"`
	UserID      uint   `json:"user_id"`
	UserName    string `json:"user_name"`
	EntityType  string `json:"entity_type"`
	EntityID    uint   `json:"entity_id"`
	Action      string `json:"action"`
	Description string `json:"description"`
	BeforeData  string `json:"before_data"`
	AfterData   string `json:"after_data"`
}

// ----------------------------------------
// Mutations
// ----------------------------------------

type CreateTaskRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description" validate:"required"`
	AssignedTo  uint    `json:"assigned_to" validate:"required"`
	BranchID    uint    `json:"branch_id" validate:"required"`
	Priority    string  `json:"priority" validate:"required,oneof=low medium high"`
	Status      *string `json:"status,omitempty" validate:"omitnil,oneof=pending in-progress completed overdue"`
	DueDate     string  `json:"due_date" validate:"required,date"`
}

type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitnil,min=1,max=255"`
	Description *string `json:"description,omitempty" validate:"omitnil,min=1"`
	AssignedTo  *uint   `json:"assigned_to,omitempty" validate:"omitnil,gt=0"`
	BranchID    *uint   `json:"branch_id,omitempty" validate:"omitnil,gt=0"`
	Priority    *string `json:"priority,omitempty" validate:"omitnil,oneof=low medium high"`
	Status      *string `json:"status,omitempty" validate:"omitnil,oneof=pending in-progress completed overdue"`
	DueDate     *string `json:"due_date,omitempty" validate:"omitnil,date"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending in-progress completed overdue"`
}

type CreateManagerRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=8"`
	BranchID uint    `json:"branch_id" validate:"required"`
	Phone    *string `json:"phone,omitempty" validate:"omitnil,max=50"`
}

type UpdateManagerRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	Email    *string `json:"email,omitempty" validate:"omitnil,email,max=255"`
	Password *string `json:"password,omitempty" validate:"omitnil,min=8"`
	BranchID *uint   `json:"branch_id,omitempty" validate:"omitnil,gt=0"`
	Phone    *string `json:"phone,omitempty" validate:"omitnil,max=50"`
}

type CreateBranchRequest struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Address     string  `json:"address" validate:"required"`
	Phone       string  `json:"phone" validate:"required,max=50"`
	Established *string `json:"established,omitempty" validate:"omitempty,date"`
}

// UpdateBranchRequest: an empty Established clears the date.
type UpdateBranchRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitnil,min=1,max=255"`
	Address     *string `json:"address,omitempty" validate:"omitnil,min=1"`
	Phone       *string `json:"phone,omitempty" validate:"omitnil,min=1,max=50"`
	Established *string `json:"established,omitempty" validate:"omitempty,date"`
}

// ImportResult is the response of POST /tasks/import.
type ImportResult struct {
	Created int    `json:"created"`
	Tasks   []Task `json:"tasks"`
}

// TaskFilter is the query of GET /tasks. Zero values are ignored.
type TaskFilter struct {
	Status     string
	AssignedTo uint
	BranchID   uint
	Search     string
}
