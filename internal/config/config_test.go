package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.NotEmpty(t, cfg.Database.DSN)
	assert.Equal(t, ":5050", cfg.HTTP.Addr)
	assert.Equal(t, 30*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volhours.yaml")
	yamlDoc := `
database:
  driver: postgres
  dsn: postgres://localhost/volhours?sslmode=disable
http:
  addr: ":9000"
  rate_limit_rps: 5
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0o644))

	t.Setenv("VOLHOURS_HTTP_ADDR", ":9100")
	t.Setenv("VOLHOURS_TOKEN_TTL", "2h")

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/volhours?sslmode=disable", cfg.Database.DSN)
	assert.Equal(t, ":9100", cfg.HTTP.Addr, "environment wins over yaml")
	assert.Equal(t, 5, cfg.HTTP.RateLimitRPS)
	assert.Equal(t, 40, cfg.HTTP.RateLimitBurst, "unset keys keep defaults")
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_CLIUser(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "volhours.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cli:\n  user: ann@example.org\n"), 0o644))

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.org", cfg.CLI.User)

	t.Setenv("VOLHOURS_USER", "bob@example.org")
	cfg, err = Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.org", cfg.CLI.User)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("VOLHOURS_JWT_SECRET=from-dotenv\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("VOLHOURS_JWT_SECRET") })

	cfg, err := Load("", envPath)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Auth.JWTSecret)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("VOLHOURS_DB_DRIVER", "mongodb")

	_, err := Load("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), "")
	require.Error(t, err)
}
