package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shelfmates/bookshelf/pkg/config"
)

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("API_PORT", "9999")
	t.Setenv("SEARCH_LIMIT", "3")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9999" {
		t.Fatalf("expected port 9999, got %s", cfg.Server.Port)
	}
	if cfg.Limits.SearchResults != 3 {
		t.Fatalf("expected search limit 3, got %d", cfg.Limits.SearchResults)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Fatalf("expected default sqlite driver, got %s", cfg.Database.Driver)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := "server:\n  port: \"7000\"\ndatabase:\n  driver: sqlite\n  path: /tmp/x.db\nlimits:\n  tx_retries: 2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DB_PATH", "/tmp/override.db")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "7000" {
		t.Fatalf("expected port from file, got %s", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Fatalf("expected env to win, got %s", cfg.Database.Path)
	}
	if cfg.Limits.TxRetries != 2 {
		t.Fatalf("expected tx_retries 2, got %d", cfg.Limits.TxRetries)
	}
}

func TestLoad_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := config.Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("expected error for postgres without dsn")
	}
}
