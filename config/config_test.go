package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment does not
// leak into the test.
func clearEnv(t *testing.T) {
	for _, name := range []string{
		"PORT", "GIN_MODE", "FRONTEND_URL", "DB_DRIVER", "DB_DSN", "sqlite_db",
		"LOG_LEVEL", "SESSION_SECRET", "SESSION_TTL",
	} {
		t.Setenv(name, "")
	}
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "KB_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", conf.Server.Port)
	assert.Equal(t, "debug", conf.Server.Mode)
	assert.Equal(t, "http://localhost:5173", conf.Server.FrontendURL)
	assert.Equal(t, DriverSQLite, conf.Database.Driver)
	assert.Equal(t, "kbdesk.db", conf.Database.DSN)
	assert.Equal(t, "warn", conf.Database.LogLevel)
	assert.Equal(t, "kbdesk-session", conf.Session.Name)
	assert.Equal(t, DefaultSessionTTL, conf.Session.TTL)
	assert.NotEmpty(t, conf.Session.Secret)
}

func TestLoad_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
  frontend_url: https://kb.example.com
database:
  driver: postgres
  dsn: host=localhost user=kb dbname=kb
session:
  secret: from-file
  ttl: 2h
`), 0o644))

	conf, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", conf.Server.Port)
	assert.Equal(t, "https://kb.example.com", conf.Server.FrontendURL)
	assert.Equal(t, DriverPostgres, conf.Database.Driver)
	assert.Equal(t, "host=localhost user=kb dbname=kb", conf.Database.DSN)
	assert.Equal(t, "from-file", conf.Session.Secret)
	assert.Equal(t, 2*time.Hour, conf.Session.TTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KB_SERVER_FRONTEND_URL", "https://frontend.test")
	t.Setenv("KB_SESSION_NAME", "kb")
	t.Setenv("PORT", "3000")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("sqlite_db", "data/kb.db")

	conf, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://frontend.test", conf.Server.FrontendURL)
	assert.Equal(t, "kb", conf.Session.Name)
	assert.Equal(t, "3000", conf.Server.Port)
	assert.Equal(t, "s3cret", conf.Session.Secret)
	assert.Equal(t, 30*time.Minute, conf.Session.TTL)
	assert.Equal(t, "data/kb.db", conf.Database.DSN)
}

func TestLoad_UnknownDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_PostgresNeedsDSN(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "postgres")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoad_ReleaseNeedsSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("GIN_MODE", "release")

	_, err := Load("")
	assert.Error(t, err)

	t.Setenv("SESSION_SECRET", "prod-secret")
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "release", conf.Server.Mode)
}
