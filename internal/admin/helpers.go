package admin

import (
	"taskmanager-backend/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func paramID(c *fiber.Ctx, what string) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperr.NotFound("%s not found", what)
	}
	return uint(id), nil
}

// countGrouped counts the rows of q per value of column.
func countGrouped(q *gorm.DB, column string) (map[uint]int64, error) {
	var rows []struct {
		GroupKey uint
		N        int64
	}
	err := q.Select(column + " AS group_key, COUNT(*) AS n").
		Where(column + " IS NOT NULL").
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.N
	}
	return out, nil
}
