package config_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TanaroSch/page-regex-replace/internal/config"
)

func TestLoad_CreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg, err := config.Load(context.Background(), path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.True(t, cfg.UseNotifications)
	assert.Equal(t, 1, cfg.HistoryDepth)
	assert.Equal(t, time.Second, cfg.MatchTimeout())
	assert.Equal(t, filepath.Join(filepath.Dir(path), config.DefaultDatabaseName), cfg.DatabaseFile())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"history_depth": 0, "pages": ["a.html"], "database_path": "/var/db/x.db"}`), 0o600))

	cfg, err := config.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.HistoryDepth)
	assert.Equal(t, []string{"a.html"}, cfg.Pages)
	assert.Equal(t, "ctrl+alt+r", cfg.ApplyHotkey)
	assert.Equal(t, "/var/db/x.db", cfg.DatabaseFile())
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err := config.Load(context.Background(), path)
	assert.Error(t, err)
}

func TestSecrets_ResolvedFromKeyring(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.json")
	kr := keyring.NewArrayKeyring(nil)

	cfg, err := config.Load(ctx, path, config.WithKeyring(kr))
	require.NoError(t, err)
	require.NoError(t, cfg.AddSecretReference("token", "s3cr3t"))
	require.NoError(t, cfg.AddSecretReference("api", "k"))
	assert.Equal(t, []string{"api", "token"}, cfg.GetSecretNames())

	var onDisk map[string]any
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &onDisk))
	assert.Equal(t, map[string]any{"api": "managed", "token": "managed"}, onDisk["secrets"])
	assert.NotContains(t, string(data), "s3cr3t")

	reloaded, err := config.Load(ctx, path, config.WithKeyring(kr))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"token": "s3cr3t", "api": "k"}, reloaded.GetResolvedSecrets())

	require.NoError(t, reloaded.RemoveSecretReference(ctx, "token"))
	require.NoError(t, reloaded.RemoveSecretReference(ctx, "token"))
	assert.Equal(t, []string{"api"}, reloaded.GetSecretNames())
}

func TestSecrets_MissingFromKeyringIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"secrets": {"gone": "managed"}}`), 0o600))

	cfg, err := config.Load(context.Background(), path, config.WithKeyring(keyring.NewArrayKeyring(nil)))
	require.NoError(t, err)
	assert.Empty(t, cfg.GetResolvedSecrets())
}
