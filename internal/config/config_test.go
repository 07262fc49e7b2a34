package config

import (
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("got port %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Port != 3306 {
		t.Errorf("got database port %d, want 3306", cfg.Database.Port)
	}
	if cfg.STAC.Version != "0.9.0" {
		t.Errorf("got stac version %q", cfg.STAC.Version)
	}
	if cfg.Catalog.DeletedFilter != DeletedOnlyActive {
		t.Errorf("got deleted filter %q, want only-active by default", cfg.Catalog.DeletedFilter)
	}
	if cfg.Features.DefaultLimit != 10 || cfg.Features.MaxLimit != 250 {
		t.Errorf("got limits %d/%d", cfg.Features.DefaultLimit, cfg.Features.MaxLimit)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("got logging %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_HOST", "catalog.internal")
	t.Setenv("DB_PASS", "secret")
	t.Setenv("STAC_BASE_URI", "https://stac.example/api/")
	t.Setenv("CATALOG_DELETED", "all")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("got port %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Host != "catalog.internal" || cfg.Database.Password != "secret" {
		t.Errorf("got database %q/%q", cfg.Database.Host, cfg.Database.Password)
	}
	if cfg.Catalog.DeletedFilter != DeletedAll {
		t.Errorf("got deleted filter %q", cfg.Catalog.DeletedFilter)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("got log format %q", cfg.Logging.Format)
	}

	// Trailing slash stripped so link joining never doubles it.
	if cfg.STAC.BaseURI != "https://stac.example/api" {
		t.Errorf("got base uri %q", cfg.STAC.BaseURI)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("failed to load defaults: %v", err)
		}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantMsg: "server port",
		},
		{
			name:    "zero read timeout",
			mutate:  func(c *Config) { c.Server.ReadTimeout = 0 },
			wantMsg: "read timeout",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantMsg: "database host",
		},
		{
			name:    "missing base uri",
			mutate:  func(c *Config) { c.STAC.BaseURI = "" },
			wantMsg: "base URI",
		},
		{
			name:    "bad deleted filter",
			mutate:  func(c *Config) { c.Catalog.DeletedFilter = "everything" },
			wantMsg: "deleted filter",
		},
		{
			name:    "max limit below default",
			mutate:  func(c *Config) { c.Features.MaxLimit = 5 },
			wantMsg: "max limit",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantMsg: "log level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantMsg: "log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("got error %q, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	s := &ServerConfig{Host: "0.0.0.0", Port: 8080}
	if got := s.Address(); got != "0.0.0.0:8080" {
		t.Errorf("got %q", got)
	}
}
