package audit

import (
	"encoding/json"
	"fmt"
	"log"

	"taskmanager-backend/internal/database"
	"taskmanager-backend/internal/models"
)

const (
	EntityTask    = "task"
	EntityBranch  = "branch"
	EntityManager = "manager"
)

type LogOptions struct {
	Actor       *models.User
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	entry := models.AuditLog{
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  snapshot(opts.Before),
		AfterData:   snapshot(opts.After),
	}
	if opts.Actor != nil {
		entry.UserID = opts.Actor.ID
		entry.UserName = opts.Actor.Name
	}

	if err := database.DB.Create(&entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// Record writes the entry and only logs a failure; the mutation it describes
// has already been committed.
func Record(opts LogOptions) {
	if err := WriteLog(opts); err != nil {
		log.Printf("[WARN] %s %s #%d: %v", opts.Action, opts.EntityType, opts.EntityID, err)
	}
}

func snapshot(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
