package admin

import (
	"fmt"
	"strings"

	"taskmanager-backend/internal/apperr"
	"taskmanager-backend/internal/audit"
	"taskmanager-backend/internal/auth"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/internal/resource"
	"taskmanager-backend/internal/tasks"
	"taskmanager-backend/internal/validation"
	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ----------------------------------------
// MANAGER CRUD
// ----------------------------------------

// GET /api/managers
func ListManagersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var managers []models.User
		err := database.DB.
			Preload("Branch").
			Where("role = ?", access.RoleManager).
			Order("id").
			Find(&managers).Error
		if err != nil {
			return err
		}

		completed, err := countGrouped(
			database.DB.Model(&models.Task{}).Scopes(tasks.WithStatus(models.TaskStatusCompleted)),
			"assigned_to",
		)
		if err != nil {
			return err
		}
		pending, err := countGrouped(
			database.DB.Model(&models.Task{}).Scopes(tasks.WithStatusIn(models.TaskStatusPending, models.TaskStatusInProgress)),
			"assigned_to",
		)
		if err != nil {
			return err
		}

		res := make([]api.Manager, 0, len(managers))
		for i := range managers {
			m := &managers[i]
			res = append(res, api.Manager{
				User:           resource.User(m),
				TasksCompleted: completed[m.ID],
				TasksPending:   pending[m.ID],
			})
		}
		return c.JSON(res)
	}
}

// GET /api/managers/:id
func GetManagerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Manager")
		if err != nil {
			return err
		}

		var manager models.User
		err = managers(database.DB).
			Preload("Branch").
			Preload("Tasks", tasks.Latest).
			First(&manager, id).Error
		if err != nil {
			return apperr.FromDB(err, "Manager")
		}

		return c.JSON(api.ManagerDetail{
			User:  resource.User(&manager),
			Tasks: resource.Tasks(manager.Tasks),
		})
	}
}

func CreateManagerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.CreateManagerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Email = normalizeEmail(body.Email)

		errs := validation.Struct(body)
		if !errs.Has("branch_id") {
			if err := checkBranch(errs, body.BranchID); err != nil {
				return err
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}

		taken, err := database.EmailTaken(database.DB, body.Email, 0)
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

		branchID := body.BranchID
		manager := models.User{
			Name:         body.Name,
			Email:        body.Email,
			PasswordHash: string(hash),
			Role:         access.RoleManager,
			BranchID:     &branchID,
		}
		if body.Phone != nil {
			manager.Phone = strings.TrimSpace(*body.Phone)
		}

		if err := database.DB.Create(&manager).Error; err != nil {
			return apperr.FromDB(err, "Manager")
		}
		if err := database.DB.Preload("Branch").First(&manager, manager.ID).Error; err != nil {
			return err
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityManager,
			EntityID:    manager.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Manager created: %s <%s>", manager.Name, manager.Email),
			After:       manager,
		})

		return c.Status(fiber.StatusCreated).JSON(resource.User(&manager))
	}
}

func UpdateManagerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Manager")
		if err != nil {
			return err
		}

		var manager models.User
		if err := managers(database.DB).First(&manager, id).Error; err != nil {
			return apperr.FromDB(err, "Manager")
		}
		before := manager

		var body api.UpdateManagerRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Email != nil {
			e := normalizeEmail(*body.Email)
			body.Email = &e
		}

		errs := validation.Struct(body)
		if body.BranchID != nil && !errs.Has("branch_id") {
			if err := checkBranch(errs, *body.BranchID); err != nil {
				return err
			}
		}
		if err := errs.Err(); err != nil {
			return err
		}

		if body.Email != nil && *body.Email != manager.Email {
			taken, err := database.EmailTaken(database.DB, *body.Email, manager.ID)
			if err != nil {
				return err
			}
			if taken {
				return apperr.Conflict("The email has already been taken.")
			}
			manager.Email = *body.Email
		}
		if body.Name != nil {
			manager.Name = strings.TrimSpace(*body.Name)
		}
		if body.Phone != nil {
			manager.Phone = strings.TrimSpace(*body.Phone)
		}
		if body.BranchID != nil {
			branchID := *body.BranchID
			manager.BranchID = &branchID
			manager.Branch = nil
		}
		if body.Password != nil {
			hash, err := bcrypt.GenerateFromPassword([]byte(*body.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			manager.PasswordHash = string(hash)
		}

		if err := database.DB.Omit("Branch", "Tasks").Save(&manager).Error; err != nil {
			return apperr.FromDB(err, "Manager")
		}
		if err := database.DB.Preload("Branch").First(&manager, manager.ID).Error; err != nil {
			return err
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityManager,
			EntityID:    manager.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Manager updated: %s", manager.Name),
			Before:      before,
			After:       manager,
		})

		return c.JSON(resource.User(&manager))
	}
}

// DELETE /api/managers/:id removes the manager together with every task
// assigned to them.
func DeleteManagerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Manager")
		if err != nil {
			return err
		}

		var manager models.User
		if err := managers(database.DB).First(&manager, id).Error; err != nil {
			return apperr.FromDB(err, "Manager")
		}

		var removed int64
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			res := tx.Where("assigned_to = ?", manager.ID).Delete(&models.Task{})
			if res.Error != nil {
				return res.Error
			}
			removed = res.RowsAffected
			return tx.Delete(&manager).Error
		})
		if err != nil {
			return apperr.FromDB(err, "Manager")
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityManager,
			EntityID:    manager.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Manager deleted: %s (%d task(s) removed)", manager.Name, removed),
			Before:      manager,
		})

		return c.JSON(api.Message{Message: "Manager deleted successfully"})
	}
}

func managers(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", access.RoleManager)
}

func checkBranch(errs validation.Errors, branchID uint) error {
	ok, err := database.Exists(database.DB, &models.Branch{}, branchID)
	if err != nil {
		return err
	}
	if !ok {
		errs.Add("branch_id", "The selected branch id is invalid.")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
