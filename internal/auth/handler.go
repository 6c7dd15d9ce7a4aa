package auth

import (
	"errors"
	"log"
	"strings"

	"taskmanager-backend/internal/apperr"
	"taskmanager-backend/internal/config"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/internal/resource"
	"taskmanager-backend/internal/validation"
	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// dummyHash keeps the unknown-email path as slow as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

var errInvalidCredentials = apperr.Unauthenticated("Invalid credentials")

func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		if err := validation.Struct(body).Err(); err != nil {
			return err
		}

		var user models.User
		err := database.DB.Preload("Branch").Where("email = ?", body.Email).First(&user).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(body.Password))
			return errInvalidCredentials
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)); err != nil {
			return errInvalidCredentials
		}

		return issue(c, cfg, &user, fiber.StatusOK)
	}
}

// RegisterHandler creates an account. The first account on an empty
// database becomes the admin; later ones are managers of an existing branch.
func RegisterHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.RegisterRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Email = normalizeEmail(body.Email)
		body.Name = strings.TrimSpace(body.Name)

		errs := validation.Struct(body)

		var user models.User
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			var users int64
			if err := tx.Model(&models.User{}).Count(&users).Error; err != nil {
				return err
			}

			role := access.RoleManager
			if users == 0 {
				role = access.RoleAdmin
			}

			if role == access.RoleManager && !errs.Has("branch_id") {
				if body.BranchID == nil {
					errs.Add("branch_id", "The branch id field is required.")
				} else if ok, err := database.Exists(tx, &models.Branch{}, *body.BranchID); err != nil {
					return err
				} else if !ok {
					errs.Add("branch_id", "The selected branch id is invalid.")
				}
			}
			if err := errs.Err(); err != nil {
				return err
			}

			taken, err := database.EmailTaken(tx, body.Email, 0)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("The email has already been taken.")
			}

			hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}

			user = models.User{
				Name:         body.Name,
				Email:        body.Email,
				PasswordHash: string(hash),
				Role:         role,
			}
			if body.Phone != nil {
				user.Phone = strings.TrimSpace(*body.Phone)
			}
			if role == access.RoleManager {
				user.BranchID = body.BranchID
			}
			if err := tx.Create(&user).Error; err != nil {
				return apperr.FromDB(err, "User")
			}
			return tx.Preload("Branch").First(&user, user.ID).Error
		})
		if err != nil {
			return err
		}

		log.Printf("registered user id=%d role=%s", user.ID, user.Role)
		return issue(c, cfg, &user, fiber.StatusCreated)
	}
}

func LogoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := currentClaims(c)
		if claims == nil {
			return apperr.Unauthenticated("Unauthenticated.")
		}
		if err := Revoke(claims); err != nil {
			return err
		}
		return c.JSON(api.Message{Message: "Logged out successfully"})
	}
}

func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil {
			return apperr.Unauthenticated("Unauthenticated.")
		}
		return c.JSON(resource.User(user))
	}
}

func issue(c *fiber.Ctx, cfg *config.Config, user *models.User, status int) error {
	token, claims, err := GenerateToken(cfg.JWTSecret, cfg.JWTTTL, user)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "Could not create token")
	}
	return c.Status(status).JSON(api.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: claims.ExpiresAt.Time.UTC().Format(api.TimestampLayout),
		User:      resource.User(user),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
