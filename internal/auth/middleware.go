package auth

import (
	"strings"

	"taskmanager-backend/internal/apperr"
	"taskmanager-backend/internal/config"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/pkg/access"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserKey   = "user"
	CtxClaimsKey = "claims"
)

// JWTMiddleware authenticates the bearer token and loads the caller. Revoked
// tokens and tokens of deleted users are rejected.
func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.Unauthenticated("Unauthenticated.")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
			return apperr.Unauthenticated("Authorization header must be 'Bearer <token>'")
		}

		claims, err := ParseToken(cfg.JWTSecret, parts[1])
		if err != nil {
			return apperr.Unauthenticated("Invalid or expired token")
		}

		revoked, err := IsRevoked(claims.ID)
		if err != nil {
			return err
		}
		if revoked {
			return apperr.Unauthenticated("Token has been revoked")
		}

		var user models.User
		if err := database.DB.Preload("Branch").First(&user, claims.UserID).Error; err != nil {
			return apperr.Unauthenticated("Unauthenticated.")
		}

		c.Locals(CtxUserKey, &user)
		c.Locals(CtxClaimsKey, claims)
		return c.Next()
	}
}

// Require lets the request through when the caller holds any of caps.
func Require(caps ...access.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return apperr.Unauthenticated("Unauthenticated.")
		}
		set := user.Capabilities()
		for _, cp := range caps {
			if set.Has(cp) {
				return c.Next()
			}
		}
		return apperr.Unauthorized("This action is unauthorized.")
	}
}

func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(CtxUserKey).(*models.User)
	return user
}

func currentClaims(c *fiber.Ctx) *JWTCustomClaims {
	claims, _ := c.Locals(CtxClaimsKey).(*JWTCustomClaims)
	return claims
}
