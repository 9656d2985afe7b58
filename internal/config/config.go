package config

import (
	"errors"
	"os"
	"time"
)

// ErrMissingDatabaseURL is returned when no database_url / DATABASE_URL is set.
var ErrMissingDatabaseURL = errors.New("database url is required (set DATABASE_URL or database_url)")

// Config holds application configuration.
type Config struct {
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL       string        `yaml:"redis_url" env:"REDIS_URL"`
	ServerPort     string        `yaml:"server_port" env:"SERVER_PORT"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat      string        `yaml:"log_format" env:"LOG_FORMAT"`
	UserAgent      string        `yaml:"user_agent" env:"IMPORT_USER_AGENT"`
	Timeout        time.Duration `yaml:"timeout" env:"IMPORT_TIMEOUT"`
	SessionTTL     time.Duration `yaml:"session_ttl" env:"SESSION_TTL"`
	SaveLockTTL    time.Duration `yaml:"save_lock_ttl" env:"SAVE_LOCK_TTL"`
	MigrationsPath string        `yaml:"migrations_path" env:"MIGRATIONS_PATH"`
}

const (
	defaultPort        = "8080"
	defaultUserAgent   = "SectionVault/1.0"
	defaultTimeout     = 30 * time.Second
	defaultSessionTTL  = 12 * time.Hour
	defaultSaveLockTTL = 30 * time.Second
)

// Load builds config from environment variables.
// If DATABASE_URL is not set, Load first applies .env.local and .env from the
// working directory or the executable's directory.
func Load() (*Config, error) {
	if os.Getenv("DATABASE_URL") == "" {
		loadEnvFiles()
	}
	c := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ServerPort:     os.Getenv("SERVER_PORT"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFormat:      os.Getenv("LOG_FORMAT"),
		UserAgent:      os.Getenv("IMPORT_USER_AGENT"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
	}
	c.Timeout = envDuration("IMPORT_TIMEOUT")
	c.SessionTTL = envDuration("SESSION_TTL")
	c.SaveLockTTL = envDuration("SAVE_LOCK_TTL")
	c.applyDefaults()
	if c.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	return c, nil
}

// LoadOptionalDB is Load without the database requirement, for commands
// that can run against the in-memory store.
func LoadOptionalDB() *Config {
	c, err := Load()
	if err == nil {
		return c
	}
	c = &Config{
		RedisURL:       os.Getenv("REDIS_URL"),
		ServerPort:     os.Getenv("SERVER_PORT"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFormat:      os.Getenv("LOG_FORMAT"),
		UserAgent:      os.Getenv("IMPORT_USER_AGENT"),
		MigrationsPath: os.Getenv("MIGRATIONS_PATH"),
		Timeout:        envDuration("IMPORT_TIMEOUT"),
		SessionTTL:     envDuration("SESSION_TTL"),
		SaveLockTTL:    envDuration("SAVE_LOCK_TTL"),
	}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = defaultPort
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = defaultSessionTTL
	}
	if c.SaveLockTTL <= 0 {
		c.SaveLockTTL = defaultSaveLockTTL
	}
	if c.MigrationsPath == "" {
		c.MigrationsPath = "migrations"
	}
}

// envDuration parses a duration variable; unset or invalid values yield 0
// so applyDefaults fills them in.
func envDuration(key string) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
