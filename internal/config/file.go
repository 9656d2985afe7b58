package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL    string `yaml:"database_url"`
	RedisURL       string `yaml:"redis_url"`
	ServerPort     string `yaml:"server_port"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	UserAgent      string `yaml:"user_agent"`
	Timeout        string `yaml:"timeout"`
	SessionTTL     string `yaml:"session_ttl"`
	SaveLockTTL    string `yaml:"save_lock_ttl"`
	MigrationsPath string `yaml:"migrations_path"`
}

// LoadFromFile loads config from a YAML file. database_url is required.
// Durations use Go syntax ("30s", "12h").
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if f.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}
	c := &Config{
		DatabaseURL:    f.DatabaseURL,
		RedisURL:       f.RedisURL,
		ServerPort:     f.ServerPort,
		LogLevel:       f.LogLevel,
		LogFormat:      f.LogFormat,
		UserAgent:      f.UserAgent,
		MigrationsPath: f.MigrationsPath,
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
		key string
	}{
		{f.Timeout, &c.Timeout, "timeout"},
		{f.SessionTTL, &c.SessionTTL, "session_ttl"},
		{f.SaveLockTTL, &c.SaveLockTTL, "save_lock_ttl"},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		*d.dst = v
	}
	c.applyDefaults()
	return c, nil
}
