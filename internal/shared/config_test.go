package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./ottx.db" {
			t.Errorf("expected database path ./ottx.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.App.AccessModel != "SVOD" {
			t.Errorf("expected access model SVOD, got %s", config.App.AccessModel)
		}

		if !config.Cleeng.Sandbox {
			t.Error("expected sandbox to be enabled by default")
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to validate, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[app]
access_model = "AVOD"

[cleeng]
publisher_id = "123456789"
sandbox = false

[identity]
issuer = "https://example.okta.com/oauth2/default"
client_id = "client"

[storage]
backend = "bolt"
bolt_path = "/tmp/ottx.bolt"

[database]
path = "/custom/path.db"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}
		if config.Server.Port != 3000 {
			t.Errorf("expected missing server section to keep default port, got %d", config.Server.Port)
		}
		if config.Cleeng.MediaStoreURL() != "https://mediastore.cleeng.com" {
			t.Errorf("expected production URL, got %s", config.Cleeng.MediaStoreURL())
		}
		if !config.Identity.Enabled() {
			t.Error("expected identity provider to be enabled")
		}
		if config.Storage.Backend != "bolt" {
			t.Errorf("expected bolt backend, got %s", config.Storage.Backend)
		}
	})

	t.Run("LoadConfig Rejects Unknown Access Model", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[app]\naccess_model = \"PPV\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("MediaStoreURL", func(t *testing.T) {
		c := CleengConfig{Sandbox: true}
		if c.MediaStoreURL() != "https://mediastore-sandbox.cleeng.com" {
			t.Errorf("expected sandbox URL, got %s", c.MediaStoreURL())
		}

		c.BaseURL = "http://localhost:9999/"
		if c.MediaStoreURL() != "http://localhost:9999" {
			t.Errorf("expected override without trailing slash, got %s", c.MediaStoreURL())
		}
	})
}
