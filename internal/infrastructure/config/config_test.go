package config

import (
	"os"
	"path/filepath"
	"testing"
)

// validJWTSecret meets the 32-character minimum requirement.
const validJWTSecret = "test-secret-key-at-least-32-chars!"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

// validConfig returns a config that passes validation; cases mutate a copy.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWT.Secret = validJWTSecret
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
site:
  id: "test-site"
database:
  path: "/tmp/test.db"
  wal_mode: true
storage:
  backend: "file"
  dir: "/tmp/acre-storage"
mqtt:
  broker:
    host: "localhost"
    port: 1883
  qos: 1
panel:
  name: "SPC Panel (10.0.0.5)"
api:
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
  pin_rate_limit:
    attempts_per_minute: 10
    burst: 3
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Storage.Backend != StorageBackendFile {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, StorageBackendFile)
	}
	if cfg.Storage.Dir != "/tmp/acre-storage" {
		t.Errorf("Storage.Dir = %q, want %q", cfg.Storage.Dir, "/tmp/acre-storage")
	}
	if cfg.Panel.Name != "SPC Panel (10.0.0.5)" {
		t.Errorf("Panel.Name = %q", cfg.Panel.Name)
	}
	if cfg.Security.PINRateLimit.AttemptsPerMinute != 10 {
		t.Errorf("PINRateLimit.AttemptsPerMinute = %v, want 10", cfg.Security.PINRateLimit.AttemptsPerMinute)
	}
	// Unset keys keep their defaults.
	if cfg.Panel.CommandTimeout != 5 {
		t.Errorf("Panel.CommandTimeout = %d, want default 5", cfg.Panel.CommandTimeout)
	}
	if !cfg.Security.PINRateLimit.Enabled {
		t.Error("PINRateLimit.Enabled should default to true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
site:
  id: ""
`)

	_, err := Load(path)
	if err == nil {
		t.Error("Load() expected validation error for empty site.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing site ID", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "file backend", mutate: func(c *Config) { c.Storage.Backend = StorageBackendFile }},
		{
			name: "file backend without dir",
			mutate: func(c *Config) {
				c.Storage.Backend = StorageBackendFile
				c.Storage.Dir = ""
			},
			wantErr: true,
		},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "redis" }, wantErr: true},
		{name: "invalid QoS", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: true},
		{name: "zero command timeout", mutate: func(c *Config) { c.Panel.CommandTimeout = 0 }, wantErr: true},
		{name: "invalid port low", mutate: func(c *Config) { c.API.Port = 0 }, wantErr: true},
		{name: "invalid port high", mutate: func(c *Config) { c.API.Port = 70000 }, wantErr: true},
		{name: "zero ping interval", mutate: func(c *Config) { c.WebSocket.PingInterval = 0 }, wantErr: true},
		{name: "zero websocket message size", mutate: func(c *Config) { c.WebSocket.MaxMessageSize = 0 }, wantErr: true},
		{name: "missing JWT secret", mutate: func(c *Config) { c.Security.JWT.Secret = "" }, wantErr: true},
		{name: "JWT secret too short", mutate: func(c *Config) { c.Security.JWT.Secret = "short" }, wantErr: true},
		{name: "zero PIN rate", mutate: func(c *Config) { c.Security.PINRateLimit.AttemptsPerMinute = 0 }, wantErr: true},
		{name: "zero PIN burst", mutate: func(c *Config) { c.Security.PINRateLimit.Burst = 0 }, wantErr: true},
		{
			name: "rate limit disabled ignores limits",
			mutate: func(c *Config) {
				c.Security.PINRateLimit.Enabled = false
				c.Security.PINRateLimit.Burst = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
		Panel: PanelConfig{CommandTimeout: 7},
	}

	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
	if got := cfg.GetCommandTimeout().Seconds(); got != 7 {
		t.Errorf("GetCommandTimeout() = %v, want 7", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("ACRE_DATABASE_PATH", "/custom/path.db")
	t.Setenv("ACRE_STORAGE_BACKEND", "file")
	t.Setenv("ACRE_STORAGE_DIR", "/custom/storage")
	t.Setenv("ACRE_MQTT_HOST", "mqtt.example.com")
	t.Setenv("ACRE_MQTT_USERNAME", "testuser")
	t.Setenv("ACRE_MQTT_PASSWORD", "testpass")
	t.Setenv("ACRE_API_HOST", "192.168.1.1")
	t.Setenv("ACRE_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("ACRE_JWT_SECRET", "jwt-secret")

	applyEnvOverrides(cfg)

	checks := []struct {
		field string
		got   string
		want  string
	}{
		{"Database.Path", cfg.Database.Path, "/custom/path.db"},
		{"Storage.Backend", cfg.Storage.Backend, "file"},
		{"Storage.Dir", cfg.Storage.Dir, "/custom/storage"},
		{"MQTT.Broker.Host", cfg.MQTT.Broker.Host, "mqtt.example.com"},
		{"MQTT.Auth.Username", cfg.MQTT.Auth.Username, "testuser"},
		{"MQTT.Auth.Password", cfg.MQTT.Auth.Password, "testpass"},
		{"API.Host", cfg.API.Host, "192.168.1.1"},
		{"InfluxDB.Token", cfg.InfluxDB.Token, "secret-token"},
		{"Security.JWT.Secret", cfg.Security.JWT.Secret, "jwt-secret"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Site.ID == "" {
		t.Error("defaultConfig should have non-empty Site.ID")
	}
	if cfg.Storage.Backend != StorageBackendSQLite {
		t.Errorf("defaultConfig Storage.Backend = %q, want %q", cfg.Storage.Backend, StorageBackendSQLite)
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("defaultConfig MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("defaultConfig API.Port = %d, want 8080", cfg.API.Port)
	}
	if cfg.Security.JWT.Secret != "" {
		t.Error("defaultConfig must not ship a session secret")
	}
}
