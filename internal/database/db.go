package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"taskmanager-backend/internal/config"
	"taskmanager-backend/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database, migrates the schema and, when asked,
// seeds demo data. It exits the process on failure.
func Init(cfg *config.Config) {
	db, err := Open(cfg.DBDriver, cfg.DatabaseDSN, cfg.DBLogLevel)
	if err != nil {
		log.Fatalf("could not connect to the database: %v", err)
	}
	if err := Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if cfg.SeedDemoData {
		if err := SeedDemoData(db); err != nil {
			log.Fatalf("seeding failed: %v", err)
		}
	}
	DB = db
	log.Println("Database connected, migrations applied.")
}

func Open(driver, dsn, logLevel string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newLogger(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// SQLite allows a single writer and leaves foreign keys off unless asked
	// per connection, so it gets exactly one.
	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
		}
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Branch{},
		&models.User{},
		&models.Task{},
		&models.AuditLog{},
		&models.RevokedToken{},
	)
}

func newLogger(level string) logger.Interface {
	lvl := logger.Warn
	switch level {
	case "silent":
		lvl = logger.Silent
	case "error":
		lvl = logger.Error
	case "info":
		lvl = logger.Info
	}
	return logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
