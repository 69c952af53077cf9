package config_test

import (
	"testing"

	"github.com/shelfmates/bookshelf/cli/config"
)

func TestInitLoadSave(t *testing.T) {
	config.SetConfigDir(t.TempDir())
	t.Cleanup(func() { config.SetConfigDir("") })

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error before init")
	}

	if err := config.Init("alice"); err != nil {
		t.Fatalf("init: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.User.Username != "alice" || cfg.Server.Host != "localhost" || cfg.Server.HTTPPort != 8080 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	if err := config.SetUsername("bob"); err != nil {
		t.Fatalf("set username: %v", err)
	}
	cfg.Server.Host = "books.local"
	cfg.Server.HTTPPort = 9000
	cfg.User.Username = "bob"
	if err := config.Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	url, err := config.GetServerURL()
	if err != nil {
		t.Fatalf("server url: %v", err)
	}
	if url != "http://books.local:9000" {
		t.Fatalf("unexpected server url: %s", url)
	}
	if config.GlobalConfig.User.Username != "bob" {
		t.Fatalf("expected bob, got %s", config.GlobalConfig.User.Username)
	}
}
