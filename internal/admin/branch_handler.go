package admin

import (
	"fmt"
	"strings"
	"time"

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
)

// ----------------------------------------
// BRANCH CRUD
// ----------------------------------------

func CreateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.CreateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Address = strings.TrimSpace(body.Address)
		body.Phone = strings.TrimSpace(body.Phone)

		if err := validation.Struct(body).Err(); err != nil {
			return err
		}

		branch := models.Branch{
			Name:    body.Name,
			Address: body.Address,
			Phone:   body.Phone,
		}
		if body.Established != nil {
			branch.Established = parseOptionalDate(*body.Established)
		}

		if err := database.DB.Create(&branch).Error; err != nil {
			return apperr.FromDB(err, "Branch")
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Branch created: %s", branch.Name),
			After:       branch,
		})

		return c.Status(fiber.StatusCreated).JSON(resource.Branch(&branch))
	}
}

// GET /api/branches, with manager and task counts.
func ListBranchesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var branches []models.Branch
		if err := database.DB.Order("id").Find(&branches).Error; err != nil {
			return err
		}

		managers, err := countGrouped(
			database.DB.Model(&models.User{}).Where("role = ?", access.RoleManager),
			"branch_id",
		)
		if err != nil {
			return err
		}
		taskCounts, err := countGrouped(database.DB.Model(&models.Task{}), "branch_id")
		if err != nil {
			return err
		}

		res := make([]api.BranchSummary, 0, len(branches))
		for i := range branches {
			b := &branches[i]
			res = append(res, api.BranchSummary{
				Branch:        resource.Branch(b),
				ManagersCount: managers[b.ID],
				TasksCount:    taskCounts[b.ID],
			})
		}
		return c.JSON(res)
	}
}

// GET /api/branches/:id, with its users and tasks.
func GetBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Branch")
		if err != nil {
			return err
		}

		var branch models.Branch
		err = database.DB.
			Preload("Users").
			Preload("Tasks", tasks.Latest).
			First(&branch, id).Error
		if err != nil {
			return apperr.FromDB(err, "Branch")
		}

		return c.JSON(api.BranchDetail{
			Branch: resource.Branch(&branch),
			Users:  resource.Users(branch.Users),
			Tasks:  resource.Tasks(branch.Tasks),
		})
	}
}

func UpdateBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Branch")
		if err != nil {
			return err
		}

		var branch models.Branch
		if err := database.DB.First(&branch, id).Error; err != nil {
			return apperr.FromDB(err, "Branch")
		}
		before := branch

		var body api.UpdateBranchRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		// Trim before validating so blank values fail min=1.
		for _, f := range []*string{body.Name, body.Address, body.Phone} {
			if f != nil {
				*f = strings.TrimSpace(*f)
			}
		}
		if err := validation.Struct(body).Err(); err != nil {
			return err
		}

		if body.Name != nil {
			branch.Name = *body.Name
		}
		if body.Address != nil {
			branch.Address = *body.Address
		}
		if body.Phone != nil {
			branch.Phone = *body.Phone
		}
		if body.Established != nil {
			branch.Established = parseOptionalDate(*body.Established)
		}

		if err := database.DB.Save(&branch).Error; err != nil {
			return apperr.FromDB(err, "Branch")
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Branch updated: %s", branch.Name),
			Before:      before,
			After:       branch,
		})

		return c.JSON(resource.Branch(&branch))
	}
}

// DELETE /api/branches/:id. Refused while users or tasks still point at the
// branch; nothing is cascaded from here.
func DeleteBranchHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := paramID(c, "Branch")
		if err != nil {
			return err
		}

		var branch models.Branch
		if err := database.DB.First(&branch, id).Error; err != nil {
			return apperr.FromDB(err, "Branch")
		}

		var users, taskCount int64
		if err := database.DB.Model(&models.User{}).Where("branch_id = ?", branch.ID).Count(&users).Error; err != nil {
			return err
		}
		if err := database.DB.Model(&models.Task{}).Where("branch_id = ?", branch.ID).Count(&taskCount).Error; err != nil {
			return err
		}
		if users > 0 || taskCount > 0 {
			return apperr.ReferentialConstraint(
				"Branch %s still has %d user(s) and %d task(s); reassign or delete them first.",
				branch.Name, users, taskCount,
			)
		}

		if err := database.DB.Delete(&branch).Error; err != nil {
			return apperr.FromDB(err, "Branch")
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityBranch,
			EntityID:    branch.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Branch deleted: %s", branch.Name),
			Before:      branch,
		})

		return c.JSON(api.Message{Message: "Branch deleted successfully"})
	}
}

// parseOptionalDate returns nil for an empty string. Callers validate first.
func parseOptionalDate(s string) *time.Time {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	t, err := validation.ParseDate(s)
	if err != nil {
		return nil
	}
	return &t
}
