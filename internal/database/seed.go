package database

import (
	"log"
	"time"

	"taskmanager-backend/internal/models"
	"taskmanager-backend/pkg/access"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

// SeedDemoData fills an empty database with three branches, an admin, three
// managers and a handful of tasks. It does nothing if any user exists.
func SeedDemoData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		day := func(y int, m time.Month, d int) *time.Time {
			t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
			return &t
		}
		ny := models.Branch{Name: "New York", Address: "123 Broadway Ave, New York, NY 10001", Phone: "+1 (212) 555-0100", Established: day(2020, 1, 15)}
		la := models.Branch{Name: "Los Angeles", Address: "456 Sunset Blvd, Los Angeles, CA 90028", Phone: "+1 (323) 555-0200", Established: day(2020, 6, 20)}
		chicago := models.Branch{Name: "Chicago", Address: "789 Michigan Ave, Chicago, IL 60611", Phone: "+1 (312) 555-0300", Established: day(2021, 3, 10)}
		for _, b := range []*models.Branch{&ny, &la, &chicago} {
			if err := tx.Create(b).Error; err != nil {
				return err
			}
		}

		admin := models.User{Name: "Admin User", Email: "admin@company.com", PasswordHash: string(hash), Role: access.RoleAdmin}
		john := models.User{Name: "John Smith", Email: "manager@company.com", PasswordHash: string(hash), Role: access.RoleManager, BranchID: &ny.ID, Phone: "+1 (212) 555-0101"}
		sarah := models.User{Name: "Sarah Johnson", Email: "sarah@company.com", PasswordHash: string(hash), Role: access.RoleManager, BranchID: &la.ID, Phone: "+1 (323) 555-0201"}
		michael := models.User{Name: "Michael Chen", Email: "michael@company.com", PasswordHash: string(hash), Role: access.RoleManager, BranchID: &chicago.ID, Phone: "+1 (312) 555-0301"}
		for _, u := range []*models.User{&admin, &john, &sarah, &michael} {
			if err := tx.Create(u).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		completedAt := now.AddDate(0, 0, -3)
		tasks := []models.Task{
			{Title: "Q1 Sales Report Preparation", Description: "Compile and analyze Q1 sales data for presentation", AssignedTo: john.ID, BranchID: ny.ID, Status: models.TaskStatusInProgress, Priority: models.TaskPriorityHigh, DueDate: now.AddDate(0, 0, 7)},
			{Title: "Customer Satisfaction Survey", Description: "Conduct monthly customer survey and compile results", AssignedTo: sarah.ID, BranchID: la.ID, Status: models.TaskStatusPending, Priority: models.TaskPriorityMedium, DueDate: now.AddDate(0, 0, 14)},
			{Title: "Team Training Workshop", Description: "Organize product knowledge training for new team", AssignedTo: michael.ID, BranchID: chicago.ID, Status: models.TaskStatusPending, Priority: models.TaskPriorityHigh, DueDate: now.AddDate(0, 0, 10)},
			{Title: "Inventory Audit", Description: "Complete quarterly inventory audit", AssignedTo: john.ID, BranchID: ny.ID, Status: models.TaskStatusOverdue, Priority: models.TaskPriorityHigh, DueDate: now.AddDate(0, 0, -2)},
			{Title: "Website Content Update", Description: "Update product listings on website", AssignedTo: sarah.ID, BranchID: la.ID, Status: models.TaskStatusCompleted, Priority: models.TaskPriorityLow, DueDate: now.AddDate(0, 0, -5), CompletedDate: &completedAt},
		}
		if err := tx.Create(&tasks).Error; err != nil {
			return err
		}

		log.Printf("Demo data seeded (admin: %s / %s)", admin.Email, DemoPassword)
		return nil
	})
}
