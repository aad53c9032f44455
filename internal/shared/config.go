package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	sandboxBaseURL    = "https://mediastore-sandbox.cleeng.com"
	productionBaseURL = "https://mediastore.cleeng.com"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	App      AppConfig      `toml:"app"`
	Cleeng   CleengConfig   `toml:"cleeng"`
	Identity IdentityConfig `toml:"identity"`
	Storage  StorageConfig  `toml:"storage"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
}

// AppConfig contains general client settings.
type AppConfig struct {
	Name        string `toml:"name"`
	AccessModel string `toml:"access_model"`
	LogLevel    string `toml:"log_level"`
}

// CleengConfig contains commerce backend settings.
type CleengConfig struct {
	PublisherID       string  `toml:"publisher_id"`
	Sandbox           bool    `toml:"sandbox"`
	BaseURL           string  `toml:"base_url"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// IdentityConfig contains OpenID Connect provider settings used for third-party sign-in.
type IdentityConfig struct {
	Issuer       string `toml:"issuer"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
}

// StorageConfig selects the durable key/value backend for session persistence.
type StorageConfig struct {
	Backend  string `toml:"backend"`
	BoltPath string `toml:"bolt_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MediaStoreURL returns the commerce backend base URL, honoring an explicit override.
func (c CleengConfig) MediaStoreURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	if c.Sandbox {
		return sandboxBaseURL
	}
	return productionBaseURL
}

// Configured reports whether a publisher is set. Without one every account operation is disabled.
func (c CleengConfig) Configured() bool {
	return c.PublisherID != ""
}

// Enabled reports whether third-party sign-in has enough settings to start a flow.
func (c IdentityConfig) Enabled() bool {
	return c.Issuer != "" && c.ClientID != ""
}

// Addr returns the host:port the callback server listens on.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	switch strings.ToUpper(c.App.AccessModel) {
	case "SVOD", "AVOD", "AUTHVOD":
	default:
		return fmt.Errorf("%w: unknown access model %q", ErrInvalidConfig, c.App.AccessModel)
	}

	switch c.Storage.Backend {
	case "", "sqlite", "bolt":
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
