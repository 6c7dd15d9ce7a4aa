package tasks

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"taskmanager-backend/internal/apperr"
	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/database/dbtest"
	"taskmanager-backend/internal/models"
	"taskmanager-backend/pkg/api"

	"github.com/xuri/excelize/v2"
)

func seeded(t *testing.T) {
	t.Helper()
	db := dbtest.New(t)
	if err := database.SeedDemoData(db); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestCountByStatus(t *testing.T) {
	seeded(t)

	all, err := CountByStatus(database.DB)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	want := StatusCounts{Total: 5, Pending: 2, InProgress: 1, Completed: 1, Overdue: 1}
	if all != want {
		t.Fatalf("counts = %+v, want %+v", all, want)
	}

	// John (id 2) has one in-progress and one overdue task.
	john, err := CountByStatus(database.DB, AssignedTo(2))
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if john != (StatusCounts{Total: 2, InProgress: 1, Overdue: 1}) {
		t.Fatalf("john = %+v", john)
	}
}

func TestFilteredMatchesOnStatusFieldOnly(t *testing.T) {
	seeded(t)

	// A pending task whose due date has passed is still not overdue.
	late := models.Task{
		Title: "Late but pending", Description: "x", AssignedTo: 3, BranchID: 2,
		Status: models.TaskStatusPending, Priority: models.TaskPriorityLow,
		DueDate: time.Now().AddDate(0, -1, 0),
	}
	if err := database.DB.Create(&late).Error; err != nil {
		t.Fatalf("create: %v", err)
	}

	var list []models.Task
	err := database.DB.Scopes(Filtered(api.TaskFilter{Status: "overdue"}), Latest).Find(&list).Error
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(list) != 1 || list[0].Status != models.TaskStatusOverdue {
		t.Fatalf("overdue = %+v", list)
	}
}

func TestImportRows(t *testing.T) {
	seeded(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := [][]string{
		{"Stocktake", "Count the back room", "MICHAEL@company.com", "Chicago", "High", "2026-05-10", "completed"},
		{"Menu photos", "New photos", "sarah@company.com", "2", "low", "2026-05-12"},
	}
	list, err := ImportRows(database.DB, rows, now)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(list) != 2 || list[0].ID == 0 {
		t.Fatalf("created = %+v", list)
	}
	if list[0].AssignedTo != 4 || list[0].BranchID != 3 || list[0].Priority != models.TaskPriorityHigh {
		t.Fatalf("first row = %+v", list[0])
	}
	if list[0].CompletedDate == nil || !list[0].CompletedDate.Equal(now) {
		t.Fatalf("completed row without completed_date: %v", list[0].CompletedDate)
	}
	if list[1].Status != models.TaskStatusPending || list[1].CompletedDate != nil {
		t.Fatalf("second row = %+v", list[1])
	}
}

func TestImportRowsIsAllOrNothing(t *testing.T) {
	seeded(t)

	rows := [][]string{
		{"Fine", "ok", "sarah@company.com", "2", "low", "2026-05-12"},
		{"Admin task", "x", "admin@company.com", "2", "low", "2026-05-12"},
	}
	_, err := ImportRows(database.DB, rows, time.Now())
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Kind != apperr.KindValidation {
		t.Fatalf("err = %v", err)
	}
	if len(appErr.Fields["rows.2.assigned_to"]) == 0 || len(appErr.Fields) != 1 {
		t.Fatalf("fields = %v", appErr.Fields)
	}

	var n int64
	database.DB.Model(&models.Task{}).Count(&n)
	if n != 5 {
		t.Fatalf("tasks = %d, want the 5 seeded", n)
	}
}

func TestReadRowsSkipsHeaderAndBlankRows(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetRow("Sheet1", "A1", &[]any{"Title", "Description"})
	f.SetSheetRow("Sheet1", "A2", &[]any{"One", "first"})
	f.SetSheetRow("Sheet1", "A4", &[]any{"Two", "second"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows, err := ReadRows(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 || rows[0][0] != "One" || rows[1][0] != "Two" {
		t.Fatalf("rows = %v", rows)
	}

	if _, err := ReadRows(bytes.NewReader([]byte("not a workbook"))); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestExportXLSXWritesOneRowPerTask(t *testing.T) {
	seeded(t)

	var list []models.Task
	if err := database.DB.Preload("Assignee").Preload("Branch").Scopes(Latest).Find(&list).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	data, err := ExportXLSX(list)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Tasks")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != len(list)+1 || rows[0][0] != "ID" {
		t.Fatalf("rows = %d, header = %v", len(rows), rows[0])
	}
	if rows[1][3] != list[0].Assignee.Name {
		t.Fatalf("assignee column = %q", rows[1][3])
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"a longer title", 8, "a lon..."},
		{"abcdef", 3, "abc"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.n); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
