// Package config provides configuration management for the CDSR STAC catalog service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Deleted-scene filter modes. The mode is always explicit; searching all
// scenes regardless of the deleted flag requires opting in via DeletedAll.
const (
	DeletedOnlyActive  = "only-active"
	DeletedOnlyDeleted = "only-deleted"
	DeletedAll         = "all"
)

// Config holds the complete application configuration loaded from environment variables.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DB_"`
	STAC     STACConfig     `envPrefix:"STAC_"`
	Assets   AssetConfig    `envPrefix:"ASSET_"`
	Catalog  CatalogConfig  `envPrefix:"CATALOG_"`
	Features FeatureConfig  `envPrefix:"FEATURE_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// DatabaseConfig contains scene catalog database configuration.
type DatabaseConfig struct {
	Host            string        `env:"HOST" envDefault:"localhost"`
	Port            int           `env:"PORT" envDefault:"3306"`
	User            string        `env:"USER" envDefault:"root"`
	Password        string        `env:"PASS" envDefault:""`
	Name            string        `env:"NAME" envDefault:"catalog"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"5m"`
}

// STACConfig contains STAC document metadata configuration.
type STACConfig struct {
	Version string `env:"VERSION" envDefault:"0.9.0"`
	// BaseURI is the public-facing URI prefix used to build every emitted link.
	BaseURI     string `env:"BASE_URI" envDefault:"http://localhost:8080"`
	Title       string `env:"TITLE" envDefault:"CDSR STAC Catalog"`
	Description string `env:"DESCRIPTION" envDefault:"Satellite imagery catalog for the CBERS and Amazonia programs"`
}

// AssetConfig contains the URL roots that asset hrefs are composed from.
type AssetConfig struct {
	ImageryRoot   string `env:"TIF_ROOT" envDefault:""`
	ThumbnailRoot string `env:"PNG_ROOT" envDefault:""`
}

// CatalogConfig contains catalog query behavior configuration.
type CatalogConfig struct {
	// DeletedFilter selects which scenes are visible: "only-active",
	// "only-deleted" or "all". The "all" mode is for administrative use.
	DeletedFilter string `env:"DELETED" envDefault:"only-active"`
}

// FeatureConfig contains paging limits.
type FeatureConfig struct {
	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit     int `env:"MAX_LIMIT" envDefault:"250"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
// It returns an error if required fields are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	// Links are built by joining path segments with "/", so the base URI
	// must not carry its own trailing slash.
	cfg.STAC.BaseURI = strings.TrimRight(cfg.STAC.BaseURI, "/")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive, got %s", c.Server.ReadTimeout)
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive, got %s", c.Server.WriteTimeout)
	}

	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server shutdown timeout must be positive, got %s", c.Server.ShutdownTimeout)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Name == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database max open conns must be at least 1, got %d", c.Database.MaxOpenConns)
	}

	if c.STAC.BaseURI == "" {
		return fmt.Errorf("STAC base URI is required")
	}

	if c.STAC.Version == "" {
		return fmt.Errorf("STAC version is required")
	}

	switch c.Catalog.DeletedFilter {
	case DeletedOnlyActive, DeletedOnlyDeleted, DeletedAll:
	default:
		return fmt.Errorf("invalid deleted filter %q, must be one of: %s, %s, %s",
			c.Catalog.DeletedFilter, DeletedOnlyActive, DeletedOnlyDeleted, DeletedAll)
	}

	if c.Features.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be at least 1, got %d", c.Features.DefaultLimit)
	}

	if c.Features.MaxLimit < c.Features.DefaultLimit {
		return fmt.Errorf("max limit (%d) must be >= default limit (%d)", c.Features.MaxLimit, c.Features.DefaultLimit)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}

// Address returns the server listen address in the format "host:port".
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
