package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=taskmanager port=5432 sslmode=disable"

type Config struct {
	HTTPPort     string
	DBDriver     string // postgres | mysql | sqlite
	DatabaseDSN  string
	DBLogLevel   string // silent | error | warn | info
	JWTSecret    string
	JWTTTL       time.Duration
	CORSOrigins  string
	SeedDemoData bool
}

// Load reads the configuration from the environment and exits on values that
// are unsafe to run with.
func Load() *Config {
	cfg, err := LoadFromEnv(os.LookupEnv)
	if err != nil {
		log.Fatalf("[FATAL] %v", err)
	}

	if cfg.DBDriver == "postgres" && cfg.DatabaseDSN == defaultDSN {
		log.Println("[WARN] DATABASE_DSN is not set, using the local development default.")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Println("[WARN] CORS_ALLOWED_ORIGINS is not set, only the local dev client is allowed.")
	}
	return cfg
}

func LoadFromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		HTTPPort:    get("HTTP_PORT", "8080"),
		DBDriver:    get("DB_DRIVER", "postgres"),
		DatabaseDSN: get("DATABASE_DSN", defaultDSN),
		DBLogLevel:  get("DB_LOG_LEVEL", "warn"),
		JWTSecret:   get("JWT_SECRET", ""),
		CORSOrigins: get("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
	}

	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, fmt.Errorf("DB_DRIVER %q is not supported (postgres, mysql, sqlite)", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	ttl, err := time.ParseDuration(get("JWT_TTL", "24h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be a positive duration")
	}
	cfg.JWTTTL = ttl

	seed, err := strconv.ParseBool(get("SEED_DEMO_DATA", "false"))
	if err != nil {
		return nil, fmt.Errorf("SEED_DEMO_DATA: %w", err)
	}
	cfg.SeedDemoData = seed

	return cfg, nil
}
