package dashboard

import (
	"fmt"
	"time"

	"taskmanager-backend/internal/auth"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/internal/tasks"
	"taskmanager-backend/internal/validation"
	"taskmanager-backend/pkg/access"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxChartBuckets = 366

// ChartQuery selects the buckets of a task chart. BranchID is ignored for
// callers that only see their own tasks.
type ChartQuery struct {
	Period   string
	Count    int
	BranchID uint
}

// bucketStart truncates t to the start of its day, ISO week or month.
func bucketStart(t time.Time, period string) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch period {
	case "weekly":
		offset := (int(day.Weekday()) + 6) % 7 // Monday is 0
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	return day
}

func nextBucket(t time.Time, period string) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "monthly":
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

// Chart counts the tasks created and completed in each of the last q.Count
// buckets up to and including the one holding now.
func Chart(db *gorm.DB, user *models.User, q ChartQuery, now time.Time) (api.TaskChart, error) {
	last := bucketStart(now, q.Period)
	start := last
	for i := 1; i < q.Count; i++ {
		switch q.Period {
		case "weekly":
			start = start.AddDate(0, 0, -7)
		case "monthly":
			start = start.AddDate(0, -1, 0)
		default:
			start = start.AddDate(0, 0, -1)
		}
	}
	end := nextBucket(last, q.Period)

	scope := db.Model(&models.Task{})
	res := api.TaskChart{Period: q.Period}
	if !user.Capabilities().Has(access.ListAllTasks) {
		scope = scope.Scopes(tasks.AssignedTo(user.ID))
	} else if q.BranchID != 0 {
		scope = scope.Scopes(tasks.InBranch(q.BranchID))
		bid := q.BranchID
		res.BranchID = &bid
	}

	var rows []struct {
		CreatedAt     time.Time
		CompletedDate *time.Time
	}
	err := scope.
		Select("created_at, completed_date").
		Where("(created_at >= ? AND created_at < ?) OR (completed_date >= ? AND completed_date < ?)", start, end, start, end).
		Scan(&rows).Error
	if err != nil {
		return api.TaskChart{}, err
	}

	index := make(map[time.Time]int)
	for b := start; b.Before(end); b = nextBucket(b, q.Period) {
		index[b] = len(res.Points)
		res.Points = append(res.Points, api.TaskChartPoint{Label: b.Format(api.DateLayout)})
	}

	for _, r := range rows {
		if i, ok := index[bucketStart(r.CreatedAt, q.Period)]; ok {
			res.Points[i].Created++
			res.Totals.Created++
		}
		if r.CompletedDate == nil {
			continue
		}
		if i, ok := index[bucketStart(*r.CompletedDate, q.Period)]; ok {
			res.Points[i].Completed++
			res.Totals.Completed++
		}
	}

	res.From = start.Format(api.DateLayout)
	res.To = end.AddDate(0, 0, -1).Format(api.DateLayout)
	res.Totals.Label = "total"
	return res, nil
}

var defaultChartCounts = map[string]int{"daily": 7, "weekly": 8, "monthly": 12}

// GET /api/dashboard/task-chart?period=daily&count=7&branch_id=1
func ChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		errs := validation.Errors{}
		q := ChartQuery{Period: c.Query("period", "daily")}

		def, ok := defaultChartCounts[q.Period]
		if !ok {
			errs.Add("period", "The selected period is invalid.")
		}
		q.Count = errs.Int("count", c.Query("count"), def)
		if !errs.Has("count") && (q.Count < 1 || q.Count > maxChartBuckets) {
			errs.Add("count", fmt.Sprintf("The count field must be between 1 and %d.", maxChartBuckets))
		}
		branchID := errs.Int("branch_id", c.Query("branch_id"), 0)
		if !errs.Has("branch_id") && branchID < 0 {
			errs.Add("branch_id", "The branch_id field must be a positive integer.")
		}
		if err := errs.Err(); err != nil {
			return err
		}
		q.BranchID = uint(branchID)

		chart, err := Chart(database.DB, auth.CurrentUser(c), q, time.Now())
		if err != nil {
			return err
		}
		return c.JSON(chart)
	}
}
