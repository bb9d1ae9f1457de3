package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/infra/crypto"
	"github.com/runoshun/hora/internal/infra/gitstore"
	"github.com/runoshun/hora/internal/infra/jsonstore"
	"github.com/runoshun/hora/internal/infra/notify"
	"github.com/runoshun/hora/internal/usecase"
)

func isolate(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, key := range []string{
		"HORA_DATABASE_URL", "HORA_RATE_CENTS_PER_MINUTE", "HORA_LOG_LEVEL",
		"HORA_HTTP_ADDR", "HORA_CHAT_WEBHOOK_URL", "HORA_ENCRYPTION_KEY",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return t.TempDir()
}

func writeConfig(t *testing.T, dataDir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, domain.ConfigFileName), []byte(content), 0o644))
}

func TestNew_DefaultsToJSONStore(t *testing.T) {
	dataDir := isolate(t)

	c, err := New(dataDir)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.IsType(t, &jsonstore.Store{}, c.Store)
	assert.IsType(t, &notify.LogNotifier{}, c.Notifier)
	assert.Equal(t, "50", c.Billing.Rate().String())
}

func TestNew_GitBackend(t *testing.T) {
	dataDir := isolate(t)
	writeConfig(t, dataDir, "[store]\nbackend = \"git\"\nnamespace = \"team\"\n")

	c, err := New(dataDir)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.IsType(t, &gitstore.Store{}, c.Store)
	assert.DirExists(t, domain.GitStorePath(dataDir))
}

func TestNew_WebhookNotifier(t *testing.T) {
	dataDir := isolate(t)
	writeConfig(t, dataDir, "[chat]\nwebhook_url = \"http://127.0.0.1:1/hook\"\n")

	c, err := New(dataDir)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	assert.IsType(t, &notify.WebhookNotifier{}, c.Notifier)
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr error
	}{
		{
			name:    "unknown backend",
			config:  "[store]\nbackend = \"sqlite\"\n",
			wantErr: domain.ErrUnknownBackend,
		},
		{
			name:    "postgres without url",
			config:  "[store]\nbackend = \"postgres\"\n",
			wantErr: nil,
		},
		{
			name:    "bad encryption key",
			config:  "[store]\nbackend = \"git\"\nencryption_key = \"abc\"\n",
			wantErr: crypto.ErrInvalidKey,
		},
		{
			name:    "negative rate",
			config:  "[billing]\nrate_cents_per_minute = \"-1\"\n",
			wantErr: domain.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := isolate(t)
			writeConfig(t, dataDir, tt.config)

			c, err := New(dataDir)
			require.Error(t, err)
			assert.Nil(t, c)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestContainer_EndToEnd(t *testing.T) {
	dataDir := isolate(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	c, err := New(dataDir)
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	_, err = c.InitStoreUseCase().Execute(ctx, usecase.InitStoreInput{})
	require.NoError(t, err)

	created, err := c.CreateTaskUseCase().Execute(ctx, usecase.CreateTaskInput{
		Requester:        "alice",
		Title:            "Walk the dog",
		EstimatedMinutes: 30,
		IsImmediate:      true,
	})
	require.NoError(t, err)

	_, err = c.AcceptTaskUseCase().Execute(ctx, usecase.AcceptTaskInput{
		TaskID: created.Task.ID,
		Caller: "bob",
	})
	require.NoError(t, err)

	status, err := c.WorklogStatusUseCase().Execute(ctx, usecase.WorklogStatusInput{
		TaskID: created.Task.ID,
	})
	require.NoError(t, err)
	assert.False(t, status.Worklog.HasOpen)

	assert.FileExists(t, domain.TaskLogPath(dataDir, created.Task.ID))
}
