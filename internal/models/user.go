package models

import (
	"time"

	"taskmanager-backend/pkg/access"
)

type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	BranchID     *uint       `gorm:"index" json:"branch_id"`
	Branch       *Branch     `json:"-"`
	Name         string      `gorm:"size:255;not null" json:"name"`
	Email        string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	Role         access.Role `gorm:"size:20;not null;index" json:"role"`
	Phone        string      `gorm:"size:50" json:"phone"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`

	Tasks []Task `gorm:"foreignKey:AssignedTo;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

func (u *User) IsAdmin() bool {
	return u.Role == access.RoleAdmin
}

func (u *User) IsManager() bool {
	return u.Role == access.RoleManager
}

func (u *User) Capabilities() access.Set {
	return access.For(u.Role)
}

// CanSetStatus reports whether u may change the status of t.
func (u *User) CanSetStatus(t *Task) bool {
	caps := u.Capabilities()
	if caps.Has(access.SetAnyTaskStatus) {
		return true
	}
	return caps.Has(access.SetOwnTaskStatus) && t.AssignedTo == u.ID
}

// CanView reports whether u may read t.
func (u *User) CanView(t *Task) bool {
	caps := u.Capabilities()
	if caps.Has(access.ListAllTasks) {
		return true
	}
	return caps.Has(access.ViewOwnTasks) && t.AssignedTo == u.ID
}
