package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/hora/internal/domain"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoader_Load_NoConfigFiles(t *testing.T) {
	loader := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir()).WithEnv(noEnv)

	cfg, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, domain.NewDefaultConfig(), cfg)
}

func TestLoader_Load_LocalConfigOnly(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, domain.LocalConfigPath(dataDir), `
[store]
backend = "git"
namespace = "shop"

[billing]
rate_cents_per_minute = 12.5

[log]
level = "debug"
`)

	cfg, err := NewLoaderWithGlobalDir(dataDir, t.TempDir()).WithEnv(noEnv).Load()
	require.NoError(t, err)

	assert.Equal(t, domain.BackendGit, cfg.Store.Backend)
	assert.Equal(t, "shop", cfg.Store.Namespace)
	assert.Equal(t, "12.5", cfg.Billing.RateCentsPerMinute)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, domain.DefaultHTTPAddr, cfg.HTTP.Addr)
	assert.Empty(t, cfg.Warnings)
}

func TestLoader_Load_MergeLocalOverridesGlobal(t *testing.T) {
	dataDir := t.TempDir()
	globalDir := t.TempDir()

	writeFile(t, filepath.Join(globalDir, domain.ConfigFileName), `
[billing]
rate_cents_per_minute = "40"

[chat]
webhook_url = "https://chat.example.com/global"
`)
	writeFile(t, domain.LocalConfigPath(dataDir), `
[billing]
rate_cents_per_minute = 60
`)

	cfg, err := NewLoaderWithGlobalDir(dataDir, globalDir).WithEnv(noEnv).Load()
	require.NoError(t, err)

	assert.Equal(t, "60", cfg.Billing.RateCentsPerMinute)
	assert.Equal(t, "https://chat.example.com/global", cfg.Chat.WebhookURL)
}

func TestLoader_Load_EnvOverrides(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, domain.LocalConfigPath(dataDir), `
[store]
backend = "postgres"
database_url = "postgres://file"

[http]
addr = ":9000"
`)
	writeFile(t, domain.EnvFilePath(dataDir), `
HORA_DATABASE_URL=postgres://dotenv
HORA_HTTP_ADDR=:9100
`)

	env := envMap(map[string]string{EnvHTTPAddr: ":9200", EnvLogLevel: "warn", EnvEncryptionKey: "00ff"})
	cfg, err := NewLoaderWithGlobalDir(dataDir, t.TempDir()).WithEnv(env).Load()
	require.NoError(t, err)
	assert.Equal(t, "00ff", cfg.Store.EncryptionKey)

	// .env beats the file, the process env beats .env
	assert.Equal(t, "postgres://dotenv", cfg.Store.DatabaseURL)
	assert.Equal(t, ":9200", cfg.HTTP.Addr)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, domain.BackendPostgres, cfg.Store.Backend)
}

func TestLoader_LoadGlobal_NotFound(t *testing.T) {
	loader := NewLoaderWithGlobalDir(t.TempDir(), t.TempDir())

	_, err := loader.LoadGlobal()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoader_Load_InvalidTOML(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, domain.LocalConfigPath(dataDir), "[store\nbackend = ")

	_, err := NewLoaderWithGlobalDir(dataDir, t.TempDir()).WithEnv(noEnv).Load()
	assert.Error(t, err)
}

func TestLoader_Load_UnknownKeys(t *testing.T) {
	dataDir := t.TempDir()
	writeFile(t, domain.LocalConfigPath(dataDir), `
[store]
backend = "json"
encrypt = true

[billing]
rate_cents_per_minute = true

[agents]
default = "x"
`)

	cfg, err := NewLoaderWithGlobalDir(dataDir, t.TempDir()).WithEnv(noEnv).Load()
	require.NoError(t, err)

	expected := []string{
		"invalid value for [billing].rate_cents_per_minute",
		"unknown key in [store]: encrypt",
		"unknown section: agents",
	}
	assert.Equal(t, expected, cfg.Warnings)
	assert.Equal(t, "50", cfg.Billing.RateCentsPerMinute)
}
