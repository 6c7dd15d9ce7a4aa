package database

import (
	"taskmanager-backend/internal/models"

	"gorm.io/gorm"
)

// Exists reports whether a row of model with the given id exists.
func Exists(db *gorm.DB, model any, id uint) (bool, error) {
	var n int64
	err := db.Model(model).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// EmailTaken ignores the user with id exceptID so a user can keep their own
// address.
func EmailTaken(db *gorm.DB, email string, exceptID uint) (bool, error) {
	var n int64
	q := db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}
