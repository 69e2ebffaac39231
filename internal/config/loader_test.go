package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ReadsFileAndDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: mysql
  host: db
  port: 3306
  user: app
  password: secret
  name: exec
messaging:
  queues:
    billing_events: https://sqs/billing
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "app:secret@tcp(db:3306)/exec?charset=utf8mb4&parseTime=True&loc=UTC", cfg.Database.DSN())
	assert.Equal(t, "https://sqs/billing", cfg.Messaging.Queues.BillingEvents)
	assert.Equal(t, "execution-service-events", cfg.Messaging.MessageGroupID)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.True(t, cfg.Features.EnableConsumers)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9000\n")
	t.Setenv("EXECUTION_SERVER_PORT", "9191")
	t.Setenv("EXECUTION_AUTH_ADMIN_API_KEY", "token")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "token", cfg.Auth.AdminAPIKey)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "h", Port: 5432, User: "u", Password: "p", Name: "n", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=n sslmode=disable", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite"}
	assert.Equal(t, "file::memory:?cache=shared", lite.DSN())
}
