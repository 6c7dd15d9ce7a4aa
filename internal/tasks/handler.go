package tasks

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"taskmanager-backend/internal/apperr"
	"taskmanager-backend/internal/audit"
	"taskmanager-backend/internal/auth"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/internal/resource"
	"taskmanager-backend/internal/validation"
	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/tasks?status=&assigned_to=&manager_id=&branch_id=&search=
// Callers without the list-all capability only ever see their own tasks.
func ListTasksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		filter, err := parseFilter(c)
		if err != nil {
			return err
		}
		if !user.Capabilities().Has(access.ListAllTasks) {
			filter.AssignedTo = user.ID
		}

		var list []models.Task
		err = database.DB.
			Preload("Assignee").
			Preload("Branch").
			Scopes(Filtered(filter), Latest).
			Find(&list).Error
		if err != nil {
			return err
		}
		return c.JSON(resource.Tasks(list))
	}
}

// GET /api/my-tasks
func MyTasksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := auth.CurrentUser(c)

		var list []models.Task
		err := database.DB.
			Preload("Branch").
			Scopes(AssignedTo(user.ID), Latest).
			Find(&list).Error
		if err != nil {
			return err
		}
		return c.JSON(resource.Tasks(list))
	}
}

func GetTaskHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := taskID(c)
		if err != nil {
			return err
		}
		task, err := loadTask(database.DB, id)
		if err != nil {
			return err
		}
		if !auth.CurrentUser(c).CanView(task) {
			return apperr.Unauthorized("This task is not assigned to you.")
		}
		return c.JSON(resource.Task(task))
	}
}

func CreateTaskHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body api.CreateTaskRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		body.Title = strings.TrimSpace(body.Title)

		errs := validation.Struct(body)
		if err := checkReferences(database.DB, errs, &body.AssignedTo, &body.BranchID); err != nil {
			return err
		}
		if err := errs.Err(); err != nil {
			return err
		}

		due, _ := validation.ParseDate(body.DueDate)
		task := models.Task{
			Title:       body.Title,
			Description: body.Description,
			AssignedTo:  body.AssignedTo,
			BranchID:    body.BranchID,
			Status:      models.TaskStatusPending,
			Priority:    models.TaskPriority(body.Priority),
			DueDate:     due,
		}
		if body.Status != nil {
			task.SetStatus(models.TaskStatus(*body.Status), time.Now())
		}

		if err := database.DB.Create(&task).Error; err != nil {
			return apperr.FromDB(err, "Task")
		}

		created, err := loadTask(database.DB, task.ID)
		if err != nil {
			return err
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityTask,
			EntityID:    created.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Task created: %s", created.Title),
			After:       created,
		})

		return c.Status(fiber.StatusCreated).JSON(resource.Task(created))
	}
}

// PUT|PATCH /api/tasks/:id. Every field is optional but validated when sent.
func UpdateTaskHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := taskID(c)
		if err != nil {
			return err
		}

		var task models.Task
		if err := database.DB.First(&task, id).Error; err != nil {
			return apperr.FromDB(err, "Task")
		}
		before := task

		var body api.UpdateTaskRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		errs := validation.Struct(body)
		if err := checkReferences(database.DB, errs, body.AssignedTo, body.BranchID); err != nil {
			return err
		}
		if err := errs.Err(); err != nil {
			return err
		}

		if body.Title != nil {
			task.Title = strings.TrimSpace(*body.Title)
		}
		if body.Description != nil {
			task.Description = *body.Description
		}
		if body.AssignedTo != nil {
			task.AssignedTo = *body.AssignedTo
		}
		if body.BranchID != nil {
			task.BranchID = *body.BranchID
		}
		if body.Priority != nil {
			task.Priority = models.TaskPriority(*body.Priority)
		}
		if body.DueDate != nil {
			task.DueDate, _ = validation.ParseDate(*body.DueDate)
		}
		if body.Status != nil {
			task.SetStatus(models.TaskStatus(*body.Status), time.Now())
		}

		if err := database.DB.Save(&task).Error; err != nil {
			return apperr.FromDB(err, "Task")
		}

		updated, err := loadTask(database.DB, task.ID)
		if err != nil {
			return err
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityTask,
			EntityID:    updated.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Task updated: %s", updated.Title),
			Before:      before,
			After:       updated,
		})

		return c.JSON(resource.Task(updated))
	}
}

// PATCH /api/tasks/:id/status
func UpdateStatusHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := taskID(c)
		if err != nil {
			return err
		}

		var task models.Task
		if err := database.DB.First(&task, id).Error; err != nil {
			return apperr.FromDB(err, "Task")
		}

		user := auth.CurrentUser(c)
		if !user.CanSetStatus(&task) {
			return apperr.Unauthorized("This task is not assigned to you.")
		}

		var body api.StatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := validation.Struct(body).Err(); err != nil {
			return err
		}

		before := task
		task.SetStatus(models.TaskStatus(body.Status), time.Now())
		err = database.DB.Model(&task).Updates(map[string]any{
			"status":         task.Status,
			"completed_date": task.CompletedDate,
		}).Error
		if err != nil {
			return apperr.FromDB(err, "Task")
		}

		updated, err := loadTask(database.DB, task.ID)
		if err != nil {
			return err
		}

		audit.Record(audit.LogOptions{
			Actor:       user,
			EntityType:  audit.EntityTask,
			EntityID:    task.ID,
			Action:      models.AuditActionStatus,
			Description: fmt.Sprintf("Task status %s -> %s: %s", before.Status, task.Status, task.Title),
			Before:      before,
			After:       updated,
		})

		return c.JSON(resource.Task(updated))
	}
}

func DeleteTaskHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := taskID(c)
		if err != nil {
			return err
		}

		var task models.Task
		if err := database.DB.First(&task, id).Error; err != nil {
			return apperr.FromDB(err, "Task")
		}
		if err := database.DB.Delete(&task).Error; err != nil {
			return apperr.FromDB(err, "Task")
		}

		audit.Record(audit.LogOptions{
			Actor:       auth.CurrentUser(c),
			EntityType:  audit.EntityTask,
			EntityID:    task.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Task deleted: %s", task.Title),
			Before:      task,
		})

		return c.JSON(api.Message{Message: "Task deleted successfully"})
	}
}

func taskID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("Task not found")
	}
	return uint(id), nil
}

func loadTask(db *gorm.DB, id uint) (*models.Task, error) {
	var task models.Task
	if err := db.Preload("Assignee").Preload("Branch").First(&task, id).Error; err != nil {
		return nil, apperr.FromDB(err, "Task")
	}
	return &task, nil
}

// checkReferences verifies that the assignee is an existing manager and the
// branch exists. Fields that already failed validation are skipped.
func checkReferences(db *gorm.DB, errs validation.Errors, assignedTo, branchID *uint) error {
	if assignedTo != nil && *assignedTo != 0 && !errs.Has("assigned_to") {
		var assignee models.User
		err := db.Select("id", "role").Where("id = ?", *assignedTo).Limit(1).Find(&assignee).Error
		if err != nil {
			return err
		}
		switch {
		case assignee.ID == 0:
			errs.Add("assigned_to", "The selected assigned to is invalid.")
		case !assignee.IsManager():
			errs.Add("assigned_to", "The assigned to field must reference a manager.")
		}
	}

	if branchID != nil && *branchID != 0 && !errs.Has("branch_id") {
		ok, err := database.Exists(db, &models.Branch{}, *branchID)
		if err != nil {
			return err
		}
		if !ok {
			errs.Add("branch_id", "The selected branch id is invalid.")
		}
	}
	return nil
}

func parseFilter(c *fiber.Ctx) (api.TaskFilter, error) {
	errs := validation.Errors{}
	f := api.TaskFilter{
		Status: strings.TrimSpace(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
	}

	if f.Status != "" && !validStatus(f.Status) {
		errs.Add("status", "The selected status is invalid.")
	}

	assignee := c.Query("assigned_to", c.Query("manager_id"))
	if assignee != "" {
		id, err := strconv.ParseUint(assignee, 10, 64)
		if err != nil || id == 0 {
			errs.Add("assigned_to", "The assigned to field must be a positive integer.")
		}
		f.AssignedTo = uint(id)
	}

	if branch := c.Query("branch_id"); branch != "" {
		id, err := strconv.ParseUint(branch, 10, 64)
		if err != nil || id == 0 {
			errs.Add("branch_id", "The branch id field must be a positive integer.")
		}
		f.BranchID = uint(id)
	}

	return f, errs.Err()
}

func validStatus(s string) bool {
	for _, st := range models.TaskStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}
