package tasks

import (
	"fmt"
	"io"
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
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Import columns: title, description, assignee email, branch (id or name),
// priority, due date, optional status. A first row whose first cell reads
// "title" is treated as a header.
const (
	colTitle = iota
	colDescription
	colAssignee
	colBranch
	colPriority
	colDueDate
	colStatus
)

// POST /api/tasks/import (multipart, field "file"). Either every row is
// imported or none is; row errors are reported as "rows.<n>.<field>".
func ImportTasksHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return apperr.Validation(map[string][]string{"file": {"The file field is required."}})
		}
		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return apperr.Validation(map[string][]string{"file": {"The file must be an .xlsx workbook."}})
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer file.Close()

		rows, err := ReadRows(file)
		if err != nil {
			return apperr.Validation(map[string][]string{"file": {err.Error()}})
		}

		var created []models.Task
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			created, err = ImportRows(tx, rows, time.Now())
			return err
		})
		if err != nil {
			return err
		}

		actor := auth.CurrentUser(c)
		for i := range created {
			audit.Record(audit.LogOptions{
				Actor:       actor,
				EntityType:  audit.EntityTask,
				EntityID:    created[i].ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Task imported: %s", created[i].Title),
				After:       &created[i],
			})
		}

		ids := make([]uint, len(created))
		for i := range created {
			ids[i] = created[i].ID
		}
		var loaded []models.Task
		if err := database.DB.Preload("Assignee").Preload("Branch").Order("id").Find(&loaded, ids).Error; err != nil {
			return err
		}

		return c.Status(fiber.StatusCreated).JSON(api.ImportResult{
			Created: len(loaded),
			Tasks:   resource.Tasks(loaded),
		})
	}
}

// ReadRows returns the data rows of the first sheet, header dropped.
func ReadRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("the file is not a readable workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("the workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("the first sheet could not be read")
	}
	if len(rows) > 0 && len(rows[0]) > 0 && strings.EqualFold(strings.TrimSpace(rows[0][0]), "title") {
		rows = rows[1:]
	}

	out := rows[:0]
	for _, row := range rows {
		if blank(row) {
			continue
		}
		out = append(out, row)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("the workbook has no task rows")
	}
	return out, nil
}

// ImportRows validates every row against tx and creates the tasks when all
// rows are valid.
func ImportRows(tx *gorm.DB, rows [][]string, now time.Time) ([]models.Task, error) {
	errs := validation.Errors{}
	list := make([]models.Task, 0, len(rows))

	for i, row := range rows {
		prefix := fmt.Sprintf("rows.%d.", i+1)
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		req := api.CreateTaskRequest{
			Title:       cell(colTitle),
			Description: cell(colDescription),
			Priority:    strings.ToLower(cell(colPriority)),
			DueDate:     cell(colDueDate),
		}
		if s := strings.ToLower(cell(colStatus)); s != "" {
			req.Status = &s
		}

		assigneeID, msg, err := resolveAssignee(tx, cell(colAssignee))
		if err != nil {
			return nil, err
		}
		req.AssignedTo = assigneeID
		branchID, branchMsg, err := resolveBranch(tx, cell(colBranch))
		if err != nil {
			return nil, err
		}
		req.BranchID = branchID

		rowErrs := validation.Struct(req)
		if msg != "" {
			rowErrs["assigned_to"] = []string{msg}
		}
		if branchMsg != "" {
			rowErrs["branch_id"] = []string{branchMsg}
		}
		for field, msgs := range rowErrs {
			for _, m := range msgs {
				errs.Add(prefix+field, m)
			}
		}
		if len(rowErrs) > 0 {
			continue
		}

		due, _ := validation.ParseDate(req.DueDate)
		task := models.Task{
			Title:       req.Title,
			Description: req.Description,
			AssignedTo:  req.AssignedTo,
			BranchID:    req.BranchID,
			Status:      models.TaskStatusPending,
			Priority:    models.TaskPriority(req.Priority),
			DueDate:     due,
		}
		if req.Status != nil {
			task.SetStatus(models.TaskStatus(*req.Status), now)
		}
		list = append(list, task)
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	if err := tx.Create(&list).Error; err != nil {
		return nil, apperr.FromDB(err, "Task")
	}
	return list, nil
}

func resolveAssignee(tx *gorm.DB, email string) (uint, string, error) {
	if email == "" {
		return 0, "", nil
	}
	var u models.User
	err := tx.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&u).Error
	if err != nil {
		return 0, "", err
	}
	if u.ID == 0 {
		return 0, fmt.Sprintf("No user with email %s.", email), nil
	}
	if u.Role != access.RoleManager {
		return 0, "The assigned to field must reference a manager.", nil
	}
	return u.ID, "", nil
}

func resolveBranch(tx *gorm.DB, ref string) (uint, string, error) {
	if ref == "" {
		return 0, "", nil
	}
	if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
		ok, err := database.Exists(tx, &models.Branch{}, uint(id))
		if err != nil {
			return 0, "", err
		}
		if !ok {
			return 0, "The selected branch id is invalid.", nil
		}
		return uint(id), "", nil
	}

	var matches []models.Branch
	if err := tx.Where("LOWER(name) = ?", strings.ToLower(ref)).Limit(2).Find(&matches).Error; err != nil {
		return 0, "", err
	}
	switch len(matches) {
	case 0:
		return 0, fmt.Sprintf("No branch named %s.", ref), nil
	case 1:
		return matches[0].ID, "", nil
	}
	return 0, fmt.Sprintf("Branch name %s is ambiguous, use its id.", ref), nil
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
