package main

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ruslano69/dbcodec/pkg/retry"
)

// Config represents the main configuration structure
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Toggles  map[string]any `yaml:"toggles,omitempty"` // toggle name -> bool or null
	Probe    ProbeConfig    `yaml:"probe,omitempty"`
	Retry    retry.Config   `yaml:"retry,omitempty"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Type     string        `yaml:"type"`               // postgres, mysql
	DSN      string        `yaml:"dsn,omitempty"`      // Full connection string, overrides the fields below
	Host     string        `yaml:"host,omitempty"`     // Database host
	Port     int           `yaml:"port,omitempty"`     // Database port
	Database string        `yaml:"database,omitempty"` // Database name
	User     string        `yaml:"user,omitempty"`     // Username
	Password string        `yaml:"password,omitempty"` // Password
	Schema   string        `yaml:"schema,omitempty"`   // PostgreSQL schema (default: public)
	SSLMode  string        `yaml:"sslmode,omitempty"`  // PostgreSQL SSL mode
	Loc      string        `yaml:"loc,omitempty"`      // MySQL driver location (default: UTC)
	Timeout  time.Duration `yaml:"timeout,omitempty"`  // Connect timeout
}

// ProbeConfig contains liveness probe settings
type ProbeConfig struct {
	SQL     string        `yaml:"sql,omitempty"`     // Probe statement; empty = driver validity check
	Timeout time.Duration `yaml:"timeout,omitempty"` // 0 = no timeout
}

// defaultConfig returns configuration with defaults applied
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{Timeout: 10 * time.Second},
		Probe:    ProbeConfig{Timeout: 5 * time.Second},
		Retry:    retry.DefaultConfig(),
	}
}

// LoadConfig loads configuration from YAML file with DBCODEC_* environment fallbacks
func LoadConfig(filename string) (*Config, error) {
	return loadConfig(filename, os.LookupEnv)
}

func loadConfig(filename string, lookup func(string) (string, bool)) (*Config, error) {
	config := defaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case os.IsNotExist(err) && hasEnvDSN(lookup):
			// конфигурация целиком из окружения
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// config file takes precedence; environment is the fallback
	fallback := func(dst *string, name string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}
	fallback(&config.Database.Type, "DBCODEC_DB_TYPE")
	fallback(&config.Database.DSN, "DBCODEC_DSN")
	fallback(&config.Probe.SQL, "DBCODEC_PROBE_SQL")

	if config.Database.Type == "" {
		return nil, fmt.Errorf("database.type is required (or set DBCODEC_DB_TYPE)")
	}
	if err := config.Retry.Validate(); err != nil {
		return nil, fmt.Errorf("invalid retry config: %w", err)
	}

	return config, nil
}

func hasEnvDSN(lookup func(string) (string, bool)) bool {
	v, ok := lookup("DBCODEC_DSN")
	return ok && v != ""
}

// SaveConfig saves configuration to YAML file
func SaveConfig(filename string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// CreateSampleConfig creates sample configuration for different database types
func CreateSampleConfig(dbType string) *Config {
	config := defaultConfig()
	config.Database.Type = dbType
	config.Retry = retry.EnableRetry(3, time.Second)
	config.Probe.SQL = "SELECT 1"

	switch dbType {
	case "postgres", "postgresql":
		config.Database.Host = "localhost"
		config.Database.Port = 5432
		config.Database.Database = "mydb"
		config.Database.User = "postgres"
		config.Database.Password = "password"
		config.Database.Schema = "public"
		config.Database.SSLMode = "disable"
		config.Toggles = map[string]any{
			"postgresql.array.raw":      false,
			"postgresql.hstore.raw":     false,
			"postgresql.interval.raw":   false,
			"postgresql.generated_keys": false,
		}

	case "mysql":
		config.Database.Host = "localhost"
		config.Database.Port = 3306
		config.Database.Database = "mydb"
		config.Database.User = "root"
		config.Database.Password = "password"
		config.Database.Loc = "Local"
		config.Toggles = map[string]any{
			"mysql.stop_cleanup_thread": nil,
			"mysql.kill_cancel_timer":   nil,
		}
	}

	return config
}

// BuildDSN constructs database connection string from config
func (c *DatabaseConfig) BuildDSN() string {
	if c.DSN != "" {
		return c.DSN
	}

	switch c.Type {
	case "postgres", "postgresql":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		schema := c.Schema
		if schema == "" {
			schema = "public"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(c.User, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			Path:     "/" + c.Database,
			RawQuery: url.Values{"sslmode": {sslMode}, "search_path": {schema}}.Encode(),
		}
		return u.String()

	case "mysql":
		loc := c.Loc
		if loc == "" {
			loc = "UTC"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&loc=%s",
			c.User, c.Password, c.Host, c.Port, c.Database, url.QueryEscape(loc))

	default:
		return ""
	}
}
