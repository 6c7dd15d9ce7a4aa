package models

import "time"

// RevokedToken blocks a JWT by its jti until the token would have expired
// anyway.
type RevokedToken struct {
	TokenID   string    `gorm:"primaryKey;size:64"`
	UserID    uint      `gorm:"index;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}
