package tasks

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"taskmanager-backend/internal/apperr"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/pkg/api"

	"github.com/gofiber/fiber/v2"
	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var exportHeader = []string{"ID", "Title", "Description", "Assignee", "Branch", "Status", "Priority", "Due date", "Completed", "Created"}

// GET /api/tasks/export?format=xlsx|pdf plus the list filters.
func ExportTasksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		format := c.Query("format", "xlsx")
		if format != "xlsx" && format != "pdf" {
			return apperr.Validation(map[string][]string{
				"format": {"The selected format is invalid."},
			})
		}

		filter, err := parseFilter(c)
		if err != nil {
			return err
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

		var (
			data  []byte
			ctype string
		)
		switch format {
		case "pdf":
			data, err = ExportPDF(list, filter)
			ctype = "application/pdf"
		default:
			data, err = ExportXLSX(list)
			ctype = xlsxContentType
		}
		if err != nil {
			return fmt.Errorf("export tasks as %s: %w", format, err)
		}

		name := fmt.Sprintf("tasks-%s.%s", time.Now().Format("20060102"), format)
		c.Set(fiber.HeaderContentType, ctype)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
		return c.Send(data)
	}
}

func exportRow(t *models.Task) []string {
	assignee, branch, completed := "", "", ""
	if t.Assignee != nil {
		assignee = t.Assignee.Name
	}
	if t.Branch != nil {
		branch = t.Branch.Name
	}
	if t.CompletedDate != nil {
		completed = t.CompletedDate.Format("2006-01-02 15:04")
	}
	return []string{
		strconv.FormatUint(uint64(t.ID), 10),
		t.Title,
		t.Description,
		assignee,
		branch,
		string(t.Status),
		string(t.Priority),
		t.DueDate.Format(api.DateLayout),
		completed,
		t.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func ExportXLSX(list []models.Task) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Tasks"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", "J1", bold); err != nil {
		return nil, err
	}

	for i := range list {
		cells := exportRow(&list[i])
		row := make([]interface{}, len(cells))
		for j, v := range cells {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(sheet, "B", "C", 40); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportPDF(list []models.Task, filter api.TaskFilter) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task Report")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, fmt.Sprintf("Generated %s - %d task(s)%s", time.Now().Format("2006-01-02 15:04"), len(list), describeFilter(filter)))
	pdf.Ln(10)

	widths := []float64{12, 60, 0, 40, 35, 25, 20, 25, 0, 0}
	pdf.SetFont("Arial", "B", 9)
	for i, h := range exportHeader {
		if widths[i] == 0 {
			continue
		}
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for i := range list {
		for j, v := range exportRow(&list[i]) {
			if widths[j] == 0 {
				continue
			}
			pdf.CellFormat(widths[j], 6, truncate(v, int(widths[j]/2)), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func describeFilter(f api.TaskFilter) string {
	s := ""
	if f.Status != "" {
		s += " status=" + f.Status
	}
	if f.AssignedTo != 0 {
		s += fmt.Sprintf(" assignee=%d", f.AssignedTo)
	}
	if f.BranchID != 0 {
		s += fmt.Sprintf(" branch=%d", f.BranchID)
	}
	if f.Search != "" {
		s += fmt.Sprintf(" search=%q", f.Search)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
