// Package resource turns gorm models into API response shapes. Relations are
// embedded only when they were preloaded.
package resource

import (
	"time"

	"taskmanager-backend/internal/models"
	"taskmanager-backend/pkg/api"
)

func timestamp(t time.Time) string {
	return t.UTC().Format(api.TimestampLayout)
}

func Branch(b *models.Branch) api.Branch {
	res := api.Branch{
		ID:        b.ID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		CreatedAt: timestamp(b.CreatedAt),
		UpdatedAt: timestamp(b.UpdatedAt),
	}
	if b.Established != nil {
		s := b.Established.Format(api.DateLayout)
		res.Established = &s
	}
	return res
}

func User(u *models.User) api.User {
	res := api.User{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Phone:     u.Phone,
		BranchID:  u.BranchID,
		CreatedAt: timestamp(u.CreatedAt),
		UpdatedAt: timestamp(u.UpdatedAt),
	}
	if u.Branch != nil {
		b := Branch(u.Branch)
		res.Branch = &b
	}
	return res
}

func Users(users []models.User) []api.User {
	res := make([]api.User, 0, len(users))
	for i := range users {
		res = append(res, User(&users[i]))
	}
	return res
}

func Task(t *models.Task) api.Task {
	res := api.Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		AssignedTo:  t.AssignedTo,
		BranchID:    t.BranchID,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate.Format(api.DateLayout),
		CreatedAt:   timestamp(t.CreatedAt),
		UpdatedAt:   timestamp(t.UpdatedAt),
	}
	if t.CompletedDate != nil {
		s := timestamp(*t.CompletedDate)
		res.CompletedDate = &s
	}
	if t.Assignee != nil {
		u := User(t.Assignee)
		res.Assignee = &u
	}
	if t.Branch != nil {
		b := Branch(t.Branch)
		res.Branch = &b
	}
	return res
}

func Tasks(tasks []models.Task) []api.Task {
	res := make([]api.Task, 0, len(tasks))
	for i := range tasks {
		res = append(res, Task(&tasks[i]))
	}
	return res
}

func AuditLog(l *models.AuditLog) api.AuditLog {
	return api.AuditLog{
		ID:          l.ID,
		CreatedAt:   timestamp(l.CreatedAt),
		UserID:      l.UserID,
		UserName:    l.UserName,
		EntityType:  l.EntityType,
		EntityID:    l.EntityID,
		Action:      string(l.Action),
		Description: l.Description,
		BeforeData:  l.BeforeData,
		AfterData:   l.AfterData,
	}
}
