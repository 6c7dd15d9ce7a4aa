package tasks

import (
	"strings"

	"taskmanager-backend/internal/models"
	"taskmanager-backend/pkg/api"

	"gorm.io/gorm"
)

func WithStatus(status models.TaskStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	}
}

func WithStatusIn(statuses ...models.TaskStatus) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status IN ?", statuses)
	}
}

func AssignedTo(userID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("assigned_to = ?", userID)
	}
}

func InBranch(branchID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("branch_id = ?", branchID)
	}
}

// ! is the LIKE escape character.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Matching is a case-insensitive substring match on title or description.
// % and _ in text match themselves.
func Matching(text string) func(*gorm.DB) *gorm.DB {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(text)) + "%"
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("(LOWER(title) LIKE ? ESCAPE '!' OR LOWER(description) LIKE ? ESCAPE '!')", pattern, pattern)
	}
}

func Latest(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC").Order("id DESC")
}

// Filtered applies every non-zero field of f.
func Filtered(f api.TaskFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Status != "" {
			db = db.Scopes(WithStatus(models.TaskStatus(f.Status)))
		}
		if f.AssignedTo != 0 {
			db = db.Scopes(AssignedTo(f.AssignedTo))
		}
		if f.BranchID != 0 {
			db = db.Scopes(InBranch(f.BranchID))
		}
		if f.Search != "" {
			db = db.Scopes(Matching(f.Search))
		}
		return db
	}
}

// StatusCounts holds the number of tasks per status.
type StatusCounts struct {
	Total      int64
	Pending    int64
	InProgress int64
	Completed  int64
	Overdue    int64
}

// CountByStatus groups the tasks selected by scopes by status.
func CountByStatus(db *gorm.DB, scopes ...func(*gorm.DB) *gorm.DB) (StatusCounts, error) {
	var rows []struct {
		Status models.TaskStatus
		N      int64
	}
	err := db.Model(&models.Task{}).
		Scopes(scopes...).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return StatusCounts{}, err
	}

	var out StatusCounts
	for _, r := range rows {
		out.Total += r.N
		switch r.Status {
		case models.TaskStatusPending:
			out.Pending = r.N
		case models.TaskStatusInProgress:
			out.InProgress = r.N
		case models.TaskStatusCompleted:
			out.Completed = r.N
		case models.TaskStatusOverdue:
			out.Overdue = r.N
		}
	}
	return out, nil
}
