package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Push modes supported by the dispatcher.
const (
	PushModeSync       = "sync"
	PushModeAsync      = "async"
	PushModeAsyncAwait = "async_await"
)

// Role toggle values for the gating policy.
const (
	RoleToggleExcludeListed = "exclude_listed"
	RoleToggleIncludeListed = "include_listed"
)

// Config represents the top-level application config.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Meta     MetaConfig     `koanf:"meta"`
	Tracking TrackingConfig `koanf:"tracking"`
	Audit    AuditConfig    `koanf:"audit"`
}

type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // debug | release
}

type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// MetaConfig holds the outbound Conversions API client settings.
type MetaConfig struct {
	BaseURL     string `koanf:"base_url"`
	SendTimeout string `koanf:"send_timeout"` // parsed and validated on startup
}

func (c MetaConfig) SendTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.SendTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// TrackingConfig is the delivery configuration one event's construction and
// send runs under. It is read as a snapshot per dispatch and treated as
// immutable for the duration of the call.
type TrackingConfig struct {
	Enabled         bool     `koanf:"enabled"`
	PixelID         string   `koanf:"pixel_id"`
	AccessToken     string   `koanf:"access_token"`
	AdjustmentTypes []string `koanf:"adjustment_types"`
	RoleToggle      string   `koanf:"role_toggle"` // exclude_listed | include_listed
	Roles           []string `koanf:"roles"`
	TestEvents      bool     `koanf:"test_events"`
	TestEventCode   string   `koanf:"test_event_code"`
	LogEvents       bool     `koanf:"log_events"`
	PushMode        string   `koanf:"push_mode"` // sync | async | async_await
	AdminPaths      []string `koanf:"admin_paths"`
}

// AuditConfig controls the send-record retention sweeper.
type AuditConfig struct {
	RetentionEnabled bool   `koanf:"retention_enabled"`
	MaxAge           string `koanf:"max_age"`
	SweepInterval    string `koanf:"sweep_interval"`
	PruneBatchSize   int    `koanf:"prune_batch_size"`
}

func (c AuditConfig) MaxAgeDuration() (time.Duration, error) {
	return time.ParseDuration(c.MaxAge)
}

func (c AuditConfig) SweepIntervalDuration() (time.Duration, error) {
	return time.ParseDuration(c.SweepInterval)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if strings.TrimSpace(c.Meta.BaseURL) == "" {
		return fmt.Errorf("meta.base_url is required")
	}
	if _, err := time.ParseDuration(c.Meta.SendTimeout); err != nil {
		return fmt.Errorf("invalid meta.send_timeout %q: %w", c.Meta.SendTimeout, err)
	}

	switch c.Tracking.PushMode {
	case PushModeSync, PushModeAsync, PushModeAsyncAwait:
	default:
		return fmt.Errorf("invalid tracking.push_mode %q (must be sync, async or async_await)", c.Tracking.PushMode)
	}
	switch c.Tracking.RoleToggle {
	case RoleToggleExcludeListed, RoleToggleIncludeListed:
	default:
		return fmt.Errorf("invalid tracking.role_toggle %q (must be exclude_listed or include_listed)", c.Tracking.RoleToggle)
	}
	if c.Tracking.TestEvents && strings.TrimSpace(c.Tracking.TestEventCode) == "" {
		return fmt.Errorf("tracking.test_event_code is required when tracking.test_events is true")
	}

	if c.Audit.RetentionEnabled {
		maxAge, err := c.Audit.MaxAgeDuration()
		if err != nil {
			return fmt.Errorf("invalid audit.max_age %q: %w", c.Audit.MaxAge, err)
		}
		if maxAge <= 0 {
			return fmt.Errorf("audit.max_age must be > 0")
		}
		interval, err := c.Audit.SweepIntervalDuration()
		if err != nil {
			return fmt.Errorf("invalid audit.sweep_interval %q: %w", c.Audit.SweepInterval, err)
		}
		if interval <= 0 {
			return fmt.Errorf("audit.sweep_interval must be > 0")
		}
		if c.Audit.PruneBatchSize <= 0 {
			return fmt.Errorf("audit.prune_batch_size must be > 0")
		}
	}

	return nil
}

// Load parses config from file + env and validates it.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":              8080,
		"server.host":              "0.0.0.0",
		"server.max_body_size_mb":  1,
		"server.mode":              "release",
		"database.type":            "postgres",
		"database.dsn":             "",
		"database.max_open_conns":  25,
		"database.max_idle_conns":  25,
		"database.auto_migrate":    true,
		"meta.base_url":            "https://graph.facebook.com/v21.0",
		"meta.send_timeout":        "10s",
		"tracking.enabled":         true,
		"tracking.pixel_id":        "",
		"tracking.access_token":    "",
		"tracking.role_toggle":     RoleToggleExcludeListed,
		"tracking.test_events":     false,
		"tracking.test_event_code": "",
		"tracking.log_events":      false,
		"tracking.push_mode":       PushModeAsync,
		"tracking.admin_paths":     []string{"/admin"},
		"audit.retention_enabled":  false,
		"audit.max_age":            "2160h", // 90 days
		"audit.sweep_interval":     "1h",
		"audit.prune_batch_size":   10000,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("CAPIRELAY_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CAPIRELAY_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
