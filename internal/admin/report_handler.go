package admin

import (
	"math"
	"time"

	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/internal/validation"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MonthlyReport summarises the tasks of every branch for one calendar month
// (UTC). now decides which due tasks count as open past their due date.
func MonthlyReport(db *gorm.DB, year, month int, now time.Time) (api.MonthlyReport, error) {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var branches []models.Branch
	if err := db.Order("id").Find(&branches).Error; err != nil {
		return api.MonthlyReport{}, err
	}

	var rows []struct {
		BranchID      uint
		Status        models.TaskStatus
		CreatedAt     time.Time
		DueDate       time.Time
		CompletedDate *time.Time
	}
	err := db.Model(&models.Task{}).
		Select("branch_id, status, created_at, due_date, completed_date").
		Where("(created_at >= ? AND created_at < ?) OR (due_date >= ? AND due_date < ?) OR (completed_date >= ? AND completed_date < ?)",
			from, to, from, to, from, to).
		Scan(&rows).Error
	if err != nil {
		return api.MonthlyReport{}, err
	}

	in := func(t time.Time) bool { return !t.Before(from) && t.Before(to) }

	per := make(map[uint]*api.BranchMonthlyReport, len(branches))
	report := api.MonthlyReport{
		Year:     year,
		Month:    month,
		From:     from.Format(api.DateLayout),
		To:       to.AddDate(0, 0, -1).Format(api.DateLayout),
		Branches: make([]api.BranchMonthlyReport, len(branches)),
	}
	for i, b := range branches {
		report.Branches[i] = api.BranchMonthlyReport{BranchID: b.ID, BranchName: b.Name}
		per[b.ID] = &report.Branches[i]
	}

	dueDone := make(map[uint]int64)
	for _, r := range rows {
		b, ok := per[r.BranchID]
		if !ok {
			continue
		}
		if in(r.CreatedAt) {
			b.Created++
		}
		if r.CompletedDate != nil && in(*r.CompletedDate) {
			b.Completed++
			// Late means finished after the whole due day.
			if r.CompletedDate.After(r.DueDate.AddDate(0, 0, 1)) {
				b.CompletedLate++
			}
		}
		if in(r.DueDate) {
			b.Due++
			if r.Status == models.TaskStatusCompleted {
				dueDone[r.BranchID]++
			} else if r.DueDate.Before(today) {
				b.OpenPastDue++
			}
		}
	}

	var totalDone int64
	for i := range report.Branches {
		b := &report.Branches[i]
		b.CompletionRate = rate(dueDone[b.BranchID], b.Due)
		totalDone += dueDone[b.BranchID]

		report.Totals.Created += b.Created
		report.Totals.Completed += b.Completed
		report.Totals.CompletedLate += b.CompletedLate
		report.Totals.Due += b.Due
		report.Totals.OpenPastDue += b.OpenPastDue
	}
	report.Totals.CompletionRate = rate(totalDone, report.Totals.Due)
	return report, nil
}

// rate is done/total in percent, one decimal.
func rate(done, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(done)*1000/float64(total)) / 10
}

// GET /api/reports/monthly?year=2026&month=3, defaulting to the current
// month.
func MonthlyReportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		now := time.Now().UTC()
		errs := validation.Errors{}
		year := errs.Int("year", c.Query("year"), now.Year())
		month := errs.Int("month", c.Query("month"), int(now.Month()))

		if !errs.Has("year") && (year < 2000 || year > 9999) {
			errs.Add("year", "The year field must be between 2000 and 9999.")
		}
		if !errs.Has("month") && (month < 1 || month > 12) {
			errs.Add("month", "The month field must be between 1 and 12.")
		}
		if err := errs.Err(); err != nil {
			return err
		}

		report, err := MonthlyReport(database.DB, year, month, now)
		if err != nil {
			return err
		}
		return c.JSON(report)
	}
}
