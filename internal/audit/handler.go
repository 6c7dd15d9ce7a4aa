package audit

import (
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/internal/resource"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
)

// GET /api/audit-logs?entity_type=task&entity_id=1&user_id=2&limit=100
func ListAuditLogsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.AuditLog{})

		if entityType := c.Query("entity_type"); entityType != "" {
			dbq = dbq.Where("entity_type = ?", entityType)
		}
		if eid := c.QueryInt("entity_id"); eid > 0 {
			dbq = dbq.Where("entity_id = ?", eid)
		}
		if uid := c.QueryInt("user_id"); uid > 0 {
			dbq = dbq.Where("user_id = ?", uid)
		}

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		var logs []models.AuditLog
		if err := dbq.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return err
		}

		res := make([]api.AuditLog, 0, len(logs))
		for i := range logs {
			res = append(res, resource.AuditLog(&logs[i]))
		}
		return c.JSON(res)
	}
}
