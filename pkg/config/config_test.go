package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Write minimal config
	configContent := `
logging:
  level: "INFO"

store:
  type: "memory"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	// Verify defaults were applied
	if cfg.Server.ListenAddr != ":8630" {
		t.Errorf("Expected default listen_addr ':8630', got %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Store.Badger["dir"] != "/var/lib/filevault" {
		t.Errorf("Expected default badger dir, got %v", cfg.Store.Badger["dir"])
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Use a path that does not exist so we never pick up the user's
	// config from ~/.config/filevault/
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error with missing config file, got: %v", err)
	}

	// Verify defaults
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("Expected default store type 'memory', got %q", cfg.Store.Type)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("logging: [unclosed"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

func TestLoad_NormalizesLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
}

func TestLoad_InvalidStoreType(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
store:
  type: "redis"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown store type, got nil")
	}
}

func TestValidate_BadgerRequiresDir(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Type = "badger"
	cfg.Store.Badger["dir"] = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for empty badger dir, got nil")
	}
}

func TestValidate_BadgerInMemoryNeedsNoDir(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Store.Type = "badger"
	cfg.Store.Badger["dir"] = ""
	cfg.Store.Badger["in_memory"] = true

	if err := Validate(cfg); err != nil {
		t.Fatalf("Expected in-memory badger config to validate, got: %v", err)
	}
}
