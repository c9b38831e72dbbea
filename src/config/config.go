package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"energy-forecast/src/models"

	"gopkg.in/yaml.v3"
)

// Defaults applied to fields left empty in the YAML file.
const (
	DefaultUpstreamURL     = "https://www.smard.de/nip-download-manager/nip/download/market-data"
	DefaultTimeoutSeconds  = 30
	DefaultMaxAgeSeconds   = 24 * 60 * 60
	DefaultAcceptLanguage  = "de-DE,de;q=0.9"
	DefaultRegion          = "DE"
	DefaultCacheDir        = "cache"
	DefaultPrewarmSchedule = "@every 6h"

	ValidationStrict = "strict"
	ValidationLoose  = "loose"

	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new MConfig instance from YAML file
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	return Parse(data)
}

// -----------------------------------------------------------------------------

// Parse builds a validated Config from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// Default returns a config usable without a file (CLI and tests).
func Default() *Config {
	c := &Config{MConfig: &models.MConfig{
		Name: "energy-forecast",
		Host: "127.0.0.1",
		Port: 8080,
	}}
	c.ApplyDefaults()
	return c
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.DefaultRegion == "" {
		c.DefaultRegion = DefaultRegion
	}
	if len(c.Regions) == 0 {
		c.Regions = []string{c.DefaultRegion}
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir
	}
	if c.Cache.MaxAgeSeconds == 0 {
		c.Cache.MaxAgeSeconds = DefaultMaxAgeSeconds
	}
	if c.Cache.Validation == "" {
		c.Cache.Validation = ValidationStrict
	}

	if c.Upstream.URL == "" {
		c.Upstream.URL = DefaultUpstreamURL
	}
	if c.Upstream.RequestTimeout == 0 {
		c.Upstream.RequestTimeout = DefaultTimeoutSeconds
	}
	if c.Upstream.AcceptLanguage == "" {
		c.Upstream.AcceptLanguage = DefaultAcceptLanguage
	}

	if c.Pipeline.Endpoint == "" {
		c.Pipeline.Endpoint = fmt.Sprintf("http://127.0.0.1:%d/data.php", c.Port)
	}

	if c.Prewarm.Schedule == "" {
		c.Prewarm.Schedule = DefaultPrewarmSchedule
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535) {
		return fmt.Errorf("invalid grpc port number: %d (must be between 1025 and 65535)", c.GrpcPort)
	}

	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
		}
	}

	// Cache
	switch c.Cache.Backend {
	case BackendFile:
		if c.Cache.Dir == "" {
			return fmt.Errorf("cache dir cannot be empty for file backend")
		}
	case BackendSQLite:
		if c.Cache.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case BackendPostgres:
		if c.Cache.DBConnectionString == "" {
			return fmt.Errorf("connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unknown cache backend: %s", c.Cache.Backend)
	}
	if c.Cache.MaxAgeSeconds < 0 {
		return fmt.Errorf("cache max age cannot be negative")
	}
	if c.Cache.MemoryLimitMB < 0 {
		return fmt.Errorf("cache memory limit cannot be negative")
	}
	if c.Cache.Validation != ValidationStrict && c.Cache.Validation != ValidationLoose {
		return fmt.Errorf("cache validation must be '%s' or '%s', got '%s'", ValidationStrict, ValidationLoose, c.Cache.Validation)
	}

	// Upstream
	if !strings.HasPrefix(c.Upstream.URL, "http://") && !strings.HasPrefix(c.Upstream.URL, "https://") {
		return fmt.Errorf("upstream url must be http(s): %s", c.Upstream.URL)
	}
	if c.Upstream.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}

	// Pipeline
	if c.Pipeline.Retries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}

	// Prewarm
	if c.Prewarm.DaysAhead < 0 {
		return fmt.Errorf("prewarm days ahead cannot be negative")
	}

	for i, region := range c.Regions {
		if strings.TrimSpace(region) == "" {
			return fmt.Errorf("region %d cannot be empty", i)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// Location resolves the zone used for naive CSV timestamps.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// -----------------------------------------------------------------------------

// UpstreamTimeout returns the configured upstream timeout.
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.RequestTimeout) * time.Second
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
