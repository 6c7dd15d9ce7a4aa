package models

import "time"

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusOverdue    TaskStatus = "overdue"
)

var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusOverdue,
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type Task struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	Title         string       `gorm:"size:255;not null" json:"title"`
	Description   string       `gorm:"type:text;not null" json:"description"`
	AssignedTo    uint         `gorm:"index;not null" json:"assigned_to"`
	Assignee      *User        `gorm:"foreignKey:AssignedTo" json:"-"`
	BranchID      uint         `gorm:"index;not null" json:"branch_id"`
	Branch        *Branch      `json:"-"`
	Status        TaskStatus   `gorm:"size:20;not null;default:'pending';index" json:"status"`
	Priority      TaskPriority `gorm:"size:10;not null;default:'medium'" json:"priority"`
	DueDate       time.Time    `gorm:"not null" json:"due_date"`
	CompletedDate *time.Time   `json:"completed_date"`
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// SetStatus changes the status. Moving to completed stamps CompletedDate;
// no other transition touches it, so a task reopened after completion
// keeps its last completion time.
func (t *Task) SetStatus(s TaskStatus, now time.Time) {
	t.Status = s
	if s == TaskStatusCompleted {
		t.CompletedDate = &now
	}
}
