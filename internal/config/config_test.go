package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHTTPAddr, cfg.Server.Addr)
	assert.Equal(t, DefaultRedisURL, cfg.Redis.URL)
	assert.Equal(t, DefaultJobStream, cfg.Queue.Stream)
	assert.Equal(t, int32(DefaultHistoryLimit), cfg.History.Limit)
	assert.Equal(t, int64(DefaultMessageTTLSec), cfg.History.MessageTTLSec)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[server]
addr = ":9090"

[postgres]
host = "db.internal"
port = 5433
user = "router"
database = "chat"

[platforms]
slack_signing_secret = "shh"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 5433, cfg.Postgres.Port)
	assert.Equal(t, "shh", cfg.Platforms.SlackSigningSecret)
	// Unset sections keep their defaults.
	assert.Equal(t, DefaultRedisURL, cfg.Redis.URL)
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("SLACK_SIGNING_SECRET", "from-env")
	t.Setenv("INFERENCE_API_KEY", "key-env")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Platforms.SlackSigningSecret)
	assert.Equal(t, "key-env", cfg.Inference.APIKey)
}

func TestDSN(t *testing.T) {
	pg := PostgresConfig{Host: "h", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", pg.DSN())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server]\naddr = \"\"\n"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}
