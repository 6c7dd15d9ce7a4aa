package config

import (
	"testing"
	"time"
)

func env(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFromEnv(env(map[string]string{"JWT_SECRET": secret}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "8080" || cfg.DBDriver != "postgres" || cfg.JWTTTL != 24*time.Hour {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.SeedDemoData {
		t.Fatal("seeding should be off by default")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"short secret":   {"JWT_SECRET": "short"},
		"bad driver":     {"JWT_SECRET": secret, "DB_DRIVER": "oracle"},
		"bad ttl":        {"JWT_SECRET": secret, "JWT_TTL": "-1h"},
		"bad seed flag":  {"JWT_SECRET": secret, "SEED_DEMO_DATA": "maybe"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadFromEnv(env(vars)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadFromEnv(env(map[string]string{
		"JWT_SECRET":     secret,
		"DB_DRIVER":      "sqlite",
		"DATABASE_DSN":   "file:dev.db",
		"JWT_TTL":        "2h",
		"SEED_DEMO_DATA": "true",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBDriver != "sqlite" || cfg.DatabaseDSN != "file:dev.db" || cfg.JWTTTL != 2*time.Hour || !cfg.SeedDemoData {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
