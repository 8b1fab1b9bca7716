package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `{
	"db": {"dsn": "postgres://ragline@localhost/ragline?sslmode=disable"},
	"port": 8080,
	"ai": {"providers": {"openai": {"api_key": "sk-test"}}},
	"embed": {"provider": "gemini", "model": "text-embedding-004"}
}`

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	require.Equal(t, "info", cfg.LogConfig.Level)
	require.Equal(t, "local", cfg.FileStore.Type)
	require.Equal(t, "openai", cfg.AI.DefaultProvider)
	require.Equal(t, 0.7, cfg.AI.Temperature)
	require.Equal(t, 4096, cfg.Embed.CacheSize)
	require.Equal(t, 3600, cfg.Embed.CacheTTLSec)
	require.Equal(t, 15, cfg.Stream.HeartbeatSec)
	require.Equal(t, 1000, cfg.Stream.BufferSize)
	require.Equal(t, 5, cfg.Stream.MaxReconnectAttempts)
	require.Equal(t, 1800, cfg.Stream.SessionTTLSec)
	require.Equal(t, "@every 5m", cfg.Jobs.StreamSweepSpec)
	require.Equal(t, "@daily", cfg.Jobs.CacheCleanupSpec)
	require.Equal(t, 30, cfg.Jobs.CacheKeepDays)
	require.Equal(t, 4, cfg.Jobs.IngestBatchSize)
}

func TestLoad_ExplicitValuesSurviveDefaulting(t *testing.T) {
	cfg, err := Load(writeConfig(t, `{
		"db": {"host": "db.internal", "db_name": "ragline"},
		"port": 9000,
		"ai": {
			"providers": {"openai": {}, "claude": {}},
			"default_provider": "claude",
			"temperature": 0.2
		},
		"embed": {"provider": "openai", "model": "text-embedding-3-small", "cache_size": 128},
		"stream": {"heartbeat_sec": 30}
	}`))
	require.NoError(t, err)

	require.Equal(t, "claude", cfg.AI.DefaultProvider)
	require.Equal(t, 0.2, cfg.AI.Temperature)
	require.Equal(t, 128, cfg.Embed.CacheSize)
	require.Equal(t, 30, cfg.Stream.HeartbeatSec)
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing db",
			content: `{"port": 8080, "ai": {"providers": {"p": {}}}, "embed": {"provider": "p", "model": "m"}}`,
			wantErr: "db.dsn",
		},
		{
			name:    "missing port",
			content: `{"db": {"dsn": "x"}, "ai": {"providers": {"p": {}}}, "embed": {"provider": "p", "model": "m"}}`,
			wantErr: "port",
		},
		{
			name:    "no providers",
			content: `{"db": {"dsn": "x"}, "port": 1, "embed": {"provider": "p", "model": "m"}}`,
			wantErr: "ai.providers",
		},
		{
			name:    "default provider not configured",
			content: `{"db": {"dsn": "x"}, "port": 1, "ai": {"providers": {"p": {}}, "default_provider": "q"}, "embed": {"provider": "p", "model": "m"}}`,
			wantErr: "default_provider",
		},
		{
			name:    "missing embed model",
			content: `{"db": {"dsn": "x"}, "port": 1, "ai": {"providers": {"p": {}}}, "embed": {"provider": "p"}}`,
			wantErr: "embed.model",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
