package dashboard

import (
	"taskmanager-backend/internal/auth"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/internal/tasks"
	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Stats counts tasks per status for user: every task for an admin, the
// assigned tasks for a manager.
func Stats(db *gorm.DB, user *models.User) (api.DashboardStats, error) {
	var scopes []func(*gorm.DB) *gorm.DB
	if !user.Capabilities().Has(access.ListAllTasks) {
		scopes = append(scopes, tasks.AssignedTo(user.ID))
	}

	counts, err := tasks.CountByStatus(db, scopes...)
	if err != nil {
		return api.DashboardStats{}, err
	}

	stats := api.DashboardStats{
		TotalTasks:      counts.Total,
		PendingTasks:    counts.Pending,
		InProgressTasks: counts.InProgress,
		CompletedTasks:  counts.Completed,
		OverdueTasks:    counts.Overdue,
	}

	if user.IsAdmin() {
		var managers int64
		if err := db.Model(&models.User{}).Where("role = ?", access.RoleManager).Count(&managers).Error; err != nil {
			return api.DashboardStats{}, err
		}
		stats.TotalManagers = &managers
	}
	return stats, nil
}

// GET /api/dashboard/stats
func StatsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := Stats(database.DB, auth.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(stats)
	}
}
