package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8000)
	}
	if cfg.Upload.MaxFileSize != 5*1024*1024 {
		t.Errorf("Upload.MaxFileSize = %d, want 5MiB", cfg.Upload.MaxFileSize)
	}
	if cfg.Database.MaxConns != 20 {
		t.Errorf("Database.MaxConns = %d, want 20", cfg.Database.MaxConns)
	}
	if cfg.Rate.RequestsPerMinute != 100 {
		t.Errorf("Rate.RequestsPerMinute = %d, want 100", cfg.Rate.RequestsPerMinute)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %q/%q, want info/text", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoad_Overrides(t *testing.T) {
	os.Setenv("DATABASE_URL", "postgres://localhost/catalog")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("UPLOAD_MAX_FILE_SIZE", "1048576")
	os.Setenv("SERVER_READ_TIMEOUT", "45s")
	os.Setenv("RATE_LIMIT_ENABLED", "false")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("UPLOAD_MAX_FILE_SIZE")
		os.Unsetenv("SERVER_READ_TIMEOUT")
		os.Unsetenv("RATE_LIMIT_ENABLED")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Upload.MaxFileSize != 1048576 {
		t.Errorf("Upload.MaxFileSize = %d, want 1048576", cfg.Upload.MaxFileSize)
	}
	if cfg.Server.ReadTimeout != 45*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 45s", cfg.Server.ReadTimeout)
	}
	if cfg.Rate.Enabled {
		t.Error("Rate.Enabled = true, want false")
	}
}

func TestLoad_AltEnvVars(t *testing.T) {
	os.Setenv("DB_URL", "postgres://localhost/alt")
	os.Setenv("PORT", "8181")
	defer func() {
		os.Unsetenv("DB_URL")
		os.Unsetenv("PORT")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Database.URL != "postgres://localhost/alt" {
		t.Errorf("Database.URL = %q, want alt value", cfg.Database.URL)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("Server.Port = %d, want 8181", cfg.Server.Port)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := Load()
	if err == nil {
		t.Fatal("Load() without DATABASE_URL should fail")
	}
	if !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("error = %v, want mention of DATABASE_URL", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "bad integer", key: "SERVER_PORT", value: "eight"},
		{name: "bad duration", key: "SERVER_READ_TIMEOUT", value: "soon"},
		{name: "bad boolean", key: "RATE_LIMIT_ENABLED", value: "maybe"},
		{name: "out of range port", key: "SERVER_PORT", value: "70000"},
		{name: "bad log level", key: "LOG_LEVEL", value: "verbose"},
		{name: "non-positive file size", key: "UPLOAD_MAX_FILE_SIZE", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("DATABASE_URL", "postgres://localhost/catalog")
			os.Setenv(tt.key, tt.value)
			defer func() {
				os.Unsetenv("DATABASE_URL")
				os.Unsetenv(tt.key)
			}()

			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%q should fail", tt.key, tt.value)
			}
		})
	}
}

func TestDatabaseConfig_UseMemoryStore(t *testing.T) {
	os.Setenv("DATABASE_URL", "memory")
	defer os.Unsetenv("DATABASE_URL")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Database.UseMemoryStore() {
		t.Error("UseMemoryStore() = false, want true for DATABASE_URL=memory")
	}
}

func TestServerConfig_Addr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8000}
	if got := c.Addr(); got != "127.0.0.1:8000" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8000")
	}
}
