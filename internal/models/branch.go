package models

import "time"

type Branch struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Address     string     `gorm:"size:500;not null" json:"address"`
	Phone       string     `gorm:"size:50;not null" json:"phone"`
	Established *time.Time `json:"established"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Users []User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Tasks []Task `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
}
