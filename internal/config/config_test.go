package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sections")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("SAVE_LOCK_TTL", "not-a-duration")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost/sections", c.DatabaseURL)
	assert.Equal(t, "redis://localhost:6379/0", c.RedisURL)
	assert.Equal(t, "8080", c.ServerPort)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
	assert.Equal(t, 30*time.Second, c.SaveLockTTL)
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, "SectionVault/1.0", c.UserAgent)
	assert.Equal(t, "migrations", c.MigrationsPath)
}

func TestLoadOptionalDB(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SERVER_PORT", "9090")

	c := LoadOptionalDB()
	assert.Empty(t, c.DatabaseURL)
	assert.Equal(t, "9090", c.ServerPort)
	assert.Equal(t, 12*time.Hour, c.SessionTTL)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database_url: postgres://db/sections
server_port: "9000"
log_format: console
session_ttl: 1h
`), 0o600))

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "9000", c.ServerPort)
	assert.Equal(t, "console", c.LogFormat)
	assert.Equal(t, time.Hour, c.SessionTTL)
	assert.Equal(t, 30*time.Second, c.Timeout)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("server_port: \"1\"\n"), 0o600))
	_, err := LoadFromFile(missing)
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("database_url: x\ntimeout: soon\n"), 0o600))
	_, err = LoadFromFile(bad)
	assert.ErrorContains(t, err, "timeout")
}

func TestParseEnvFile(t *testing.T) {
	got := parseEnvFile([]byte(`
# comment
DATABASE_URL="postgres://u:p@h/db"
export REDIS_URL='redis://r'
=orphan
NOVALUE
LOG_LEVEL = debug
`))
	assert.Equal(t, map[string]string{
		"DATABASE_URL": "postgres://u:p@h/db",
		"REDIS_URL":    "redis://r",
		"LOG_LEVEL":    "debug",
	}, got)
}
