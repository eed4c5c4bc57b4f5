package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CONFIG_FILE", "")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.ServerHost)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, 3306, cfg.MySQLPort)
	assert.Equal(t, "flibusta", cfg.SourceName)
	assert.Equal(t, 2, cfg.WorkerProcesses)
	assert.Equal(t, 30, cfg.WorkerMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.WorkerPollInterval)
	assert.Equal(t, 10*time.Minute, cfg.JobTimeout)
	assert.Equal(t, 5, cfg.UpdateHour)
	assert.NotEmpty(t, cfg.Hostname)
	assert.Empty(t, cfg.Webhooks)
}

func TestNewEnvOverrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SOURCE_NAME", "other")
	t.Setenv("WORKER_POLL_INTERVAL", "250ms")
	t.Setenv("MYSQL_PASSWORD", "hunter2")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "other", cfg.SourceName)
	assert.Equal(t, 250*time.Millisecond, cfg.WorkerPollInterval)
	assert.Equal(t, "hunter2", cfg.MySQLPassword)
}

func TestNewConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
remote_base_url: http://remote.example
webhooks:
  - method: POST
    url: http://hook.example/done
    headers:
      Authorization: Bearer tok
  - method: GET
    url: http://other.example/ping
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "http://remote.example", cfg.RemoteBaseURL)
	require.Len(t, cfg.Webhooks, 2)
	assert.Equal(t, http.MethodPost, cfg.Webhooks[0].Method)
	assert.Equal(t, "http://hook.example/done", cfg.Webhooks[0].URL)
	assert.Equal(t, "Bearer tok", cfg.Webhooks[0].Headers["Authorization"])
	assert.Equal(t, http.MethodGet, cfg.Webhooks[1].Method)
}

func TestEnvWinsOverConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source_name: from_file\n"), 0600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SOURCE_NAME", "from_env")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "from_env", cfg.SourceName)
}
