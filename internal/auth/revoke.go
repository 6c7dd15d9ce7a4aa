package auth

import (
	"time"

	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"

	"gorm.io/gorm/clause"
)

func IsRevoked(tokenID string) (bool, error) {
	var n int64
	err := database.DB.Model(&models.RevokedToken{}).Where("token_id = ?", tokenID).Count(&n).Error
	return n > 0, err
}

// Revoke blocks the token and drops revocations that outlived their token.
func Revoke(claims *JWTCustomClaims) error {
	expires := time.Now()
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}

	row := models.RevokedToken{
		TokenID:   claims.ID,
		UserID:    claims.UserID,
		ExpiresAt: expires,
	}
	if err := database.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return err
	}

	return database.DB.Where("expires_at < ?", time.Now()).Delete(&models.RevokedToken{}).Error
}
