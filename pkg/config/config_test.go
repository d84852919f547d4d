package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Failed to load default config: %v", err)
	}
	if cfg.App == nil || cfg.Server == nil || cfg.Database == nil || cfg.Scheduler == nil || cfg.Engine == nil {
		t.Fatal("all config sections should be populated with defaults")
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default driver should be sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default port should be 8080, got %d", cfg.Server.Port)
	}
	if !cfg.IsDevelopment() {
		t.Error("default environment should be development")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "syncbridge.yaml")

	original := &Config{
		App: &AppConfig{
			Environment: "production",
			LogLevel:    "warn",
			LogFile:     "/tmp/sb.log",
		},
		Server: &ServerConfig{
			Address: "127.0.0.1",
			Port:    9090,
		},
		Database: &DatabaseConfig{
			Driver: "mysql",
			DSN:    "user:pass@tcp(db:3306)/syncbridge",
		},
	}

	if err := SaveConfig(original, tempFile); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	loaded, err := LoadConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loaded.App.Environment != "production" {
		t.Errorf("Expected environment production, got %s", loaded.App.Environment)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", loaded.Server.Port)
	}
	if loaded.Database.Driver != "mysql" {
		t.Errorf("Expected driver mysql, got %s", loaded.Database.Driver)
	}
	if loaded.IsDevelopment() {
		t.Error("production config should not report development")
	}

	// Sections the file omits fall back to defaults
	if loaded.Scheduler == nil || !loaded.Scheduler.Enabled {
		t.Error("omitted scheduler section should default to enabled")
	}
	if loaded.Engine == nil || loaded.Engine.ReadPageSize != 500 {
		t.Error("omitted engine section should take defaults")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("SYNCBRIDGE_DB_DSN", "/var/lib/syncbridge/env.db")

	tempFile := filepath.Join(t.TempDir(), "syncbridge.yaml")
	if err := SaveConfig(&Config{
		Database: &DatabaseConfig{Driver: "sqlite", DSN: "./file.db"},
	}, tempFile); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	cfg, err := LoadConfig(tempFile)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.DSN != "/var/lib/syncbridge/env.db" {
		t.Errorf("environment variable should win over file value, got %s", cfg.Database.DSN)
	}
}

func TestLoadConfigUnsupportedFormat(t *testing.T) {
	tempFile := filepath.Join(t.TempDir(), "syncbridge.toml")
	if err := SaveConfig(&Config{}, tempFile); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("expected ErrInvalidFormat on save, got %v", err)
	}
}
