// Package config loads application settings from an optional YAML file,
// KB_-prefixed environment variables and a handful of short legacy names.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type AppConfig struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Session  SessionConfig  `koanf:"session"`
}

type ServerConfig struct {
	Port        string `koanf:"port"`
	Mode        string `koanf:"mode"` // debug, release, test
	FrontendURL string `koanf:"frontend_url"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver"` // sqlite, postgres
	DSN      string `koanf:"dsn"`
	LogLevel string `koanf:"log_level"` // silent, error, warn, info
}

type SessionConfig struct {
	Name   string        `koanf:"name"`
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
	Secure bool          `koanf:"secure"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSessionTTL = 7 * 24 * time.Hour
)

// Load reads configuration. An empty path or a missing file is not an error;
// environment variables alone are enough to run.
func Load(path string) (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	// KB_DATABASE_DRIVER -> database.driver. Only the first underscore after
	// the section separates levels so keys like frontend_url survive.
	if err := k.Load(env.Provider("KB_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "KB_"))
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		log.Printf("Error loading KB_ environment variables: %v", err)
	}

	loadLegacyEnvVars(k)

	conf := &AppConfig{}
	if err := k.Unmarshal("", conf); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	setDefaults(conf)

	if err := validate(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// MustLoad is Load that exits the process on failure.
func MustLoad(path string) *AppConfig {
	conf, err := Load(path)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return conf
}

func loadLegacyEnvVars(k *koanf.Koanf) {
	set := func(envName, key string) {
		if v := os.Getenv(envName); v != "" {
			k.Set(key, v)
		}
	}

	set("PORT", "server.port")
	set("GIN_MODE", "server.mode")
	set("FRONTEND_URL", "server.frontend_url")
	set("DB_DRIVER", "database.driver")
	set("DB_DSN", "database.dsn")
	set("sqlite_db", "database.dsn")
	set("LOG_LEVEL", "database.log_level")
	set("SESSION_SECRET", "session.secret")
	set("SESSION_TTL", "session.ttl")
}

func setDefaults(c *AppConfig) {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.FrontendURL == "" {
		c.Server.FrontendURL = "http://localhost:5173"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.DSN == "" && c.Database.Driver == DriverSQLite {
		c.Database.DSN = "kbdesk.db"
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Session.Name == "" {
		c.Session.Name = "kbdesk-session"
	}
	if c.Session.TTL <= 0 {
		c.Session.TTL = DefaultSessionTTL
	}
}

func validate(c *AppConfig) error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Database.DSN == "" {
		return errors.New("database.dsn is required for the postgres driver")
	}

	if c.Session.Secret == "" {
		if c.Server.Mode == "release" {
			return errors.New("SESSION_SECRET environment variable not set")
		}
		log.Println("Warning: session secret is empty, using an insecure development secret")
		c.Session.Secret = "kbdesk-dev-secret"
	}
	return nil
}
