package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/claude/planform/internal/controller"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Form      FormConfig      `yaml:"form"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type FormConfig struct {
	Title           string `yaml:"title"`
	SubcategoryMode string `yaml:"subcategory_mode"`
}

// Mode returns the parsed subcategory mode. Load has already validated it.
func (f FormConfig) Mode() controller.Mode {
	m, _ := controller.ParseMode(f.SubcategoryMode)
	return m
}

type SessionsConfig struct {
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// Database drivers. An empty driver disables plan history.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Enabled reports whether plan history is configured.
func (d DatabaseConfig) Enabled() bool { return d.Driver != "" }

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(sslmode),
	}
	return u.String()
}

// Target returns what storage.Open expects for the configured driver:
// the file path for sqlite, the connection string for postgres.
func (d DatabaseConfig) Target() string {
	if d.Driver == DriverSQLite {
		return d.Path
	}
	return d.DSN()
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SlogLevel maps the configured level name; unknown names fall back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

func defaults() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8080},
		Upstream: UpstreamConfig{Timeout: 15 * time.Second},
		Form:     FormConfig{SubcategoryMode: string(controller.ModeDerived)},
		Sessions: SessionsConfig{IdleTTL: 30 * time.Minute},
		Database: DatabaseConfig{Path: "planform.db"},
		Log:      LogConfig{Level: "info", Format: "text"},
		Tailscale: TailscaleConfig{
			Hostname: "planform",
			StateDir: "tsnet-state",
		},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix PLANFORM_ and underscore-separated paths:
//
//	PLANFORM_SERVER_HOST, PLANFORM_SERVER_PORT,
//	PLANFORM_UPSTREAM_URL, PLANFORM_UPSTREAM_TIMEOUT,
//	PLANFORM_SUBCATEGORY_MODE, PLANFORM_SESSION_TTL,
//	PLANFORM_DB_DRIVER, PLANFORM_DB_PATH, PLANFORM_DB_HOST, PLANFORM_DB_PORT,
//	PLANFORM_DB_NAME, PLANFORM_DB_USER, PLANFORM_DB_PASSWORD, PLANFORM_DB_SSLMODE,
//	PLANFORM_LOG_LEVEL, PLANFORM_LOG_FORMAT, PLANFORM_TAILSCALE_ENABLED
//
// An empty path skips the file and uses defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	setString("PLANFORM_SERVER_HOST", &cfg.Server.Host)
	setInt("PLANFORM_SERVER_PORT", &cfg.Server.Port)
	setString("PLANFORM_UPSTREAM_URL", &cfg.Upstream.BaseURL)
	setDuration("PLANFORM_UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)
	setString("PLANFORM_SUBCATEGORY_MODE", &cfg.Form.SubcategoryMode)
	setDuration("PLANFORM_SESSION_TTL", &cfg.Sessions.IdleTTL)
	setString("PLANFORM_DB_DRIVER", &cfg.Database.Driver)
	setString("PLANFORM_DB_PATH", &cfg.Database.Path)
	setString("PLANFORM_DB_HOST", &cfg.Database.Host)
	setInt("PLANFORM_DB_PORT", &cfg.Database.Port)
	setString("PLANFORM_DB_NAME", &cfg.Database.Name)
	setString("PLANFORM_DB_USER", &cfg.Database.User)
	setString("PLANFORM_DB_PASSWORD", &cfg.Database.Password)
	setString("PLANFORM_DB_SSLMODE", &cfg.Database.SSLMode)
	setString("PLANFORM_LOG_LEVEL", &cfg.Log.Level)
	setString("PLANFORM_LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv("PLANFORM_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	u, err := url.Parse(c.Upstream.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("upstream.base_url must be an absolute http(s) URL, got %q", c.Upstream.BaseURL)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if _, err := controller.ParseMode(c.Form.SubcategoryMode); err != nil {
		return fmt.Errorf("form.subcategory_mode: %w", err)
	}
	if c.Sessions.IdleTTL <= 0 {
		return fmt.Errorf("sessions.idle_ttl must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}

	switch c.Database.Driver {
	case "":
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
