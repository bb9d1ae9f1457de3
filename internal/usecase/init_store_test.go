package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runoshun/hora/internal/domain"
	"github.com/runoshun/hora/internal/testutil"
)

func TestInitStore_Execute(t *testing.T) {
	store := testutil.NewMockStore()

	out, err := NewInitStore(store, testutil.NewMockLogger(), domain.BackendGit).Execute(context.Background(), InitStoreInput{})
	require.NoError(t, err)
	assert.Equal(t, domain.BackendGit, out.Backend)
	assert.True(t, store.Initialized)

	store.InitErr = errors.New("permission denied")
	_, err = NewInitStore(store, testutil.NewMockLogger(), domain.BackendGit).Execute(context.Background(), InitStoreInput{})
	assert.ErrorContains(t, err, "initialize store")
}

func TestInitConfig_Execute(t *testing.T) {
	manager := &testutil.MockConfigManager{
		LocalInfo:  domain.ConfigInfo{Path: "/data/config.toml"},
		GlobalInfo: domain.ConfigInfo{Path: "/home/u/.config/hora/config.toml"},
	}
	uc := NewInitConfig(manager)

	out, err := uc.Execute(context.Background(), InitConfigInput{})
	require.NoError(t, err)
	assert.Equal(t, "/data/config.toml", out.Path)
	assert.True(t, manager.LocalInited)

	out, err = uc.Execute(context.Background(), InitConfigInput{Global: true})
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.config/hora/config.toml", out.Path)
	assert.True(t, manager.GlobalInited)

	manager.InitLocalErr = domain.ErrConfigExists
	_, err = uc.Execute(context.Background(), InitConfigInput{})
	assert.ErrorIs(t, err, domain.ErrConfigExists)
}

func TestShowConfig_Execute(t *testing.T) {
	manager := &testutil.MockConfigManager{
		LocalInfo: domain.ConfigInfo{Path: "/data/config.toml", Content: "[log]\n", Exists: true},
	}
	loader := testutil.NewMockConfigLoader()
	loader.Config.Log.Level = "debug"

	out, err := NewShowConfig(manager, loader).Execute(context.Background(), ShowConfigInput{})
	require.NoError(t, err)
	assert.True(t, out.LocalConfig.Exists)
	assert.False(t, out.GlobalConfig.Exists)
	assert.Equal(t, "debug", out.Effective.Log.Level)

	loader.LoadErr = errors.New("bad toml")
	_, err = NewShowConfig(manager, loader).Execute(context.Background(), ShowConfigInput{})
	assert.ErrorContains(t, err, "load config")
}
