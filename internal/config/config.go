package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	DB        DatabaseConfig   `json:"db"`
	Port      int              `json:"port"`
	LogConfig logger.LogConfig `json:"log_config"`
	FileStore FileStoreConfig  `json:"file_store"`
	AI        AIConfig         `json:"ai"`
	Embed     EmbedConfig      `json:"embed"`
	Stream    StreamConfig     `json:"stream"`
	Jobs      JobConfig        `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AIConfig names the chat providers available for conversations. Each
// entry's args are decoded by the provider factory it names.
type AIConfig struct {
	Providers       map[string]interface{} `json:"providers"`
	DefaultProvider string                 `json:"default_provider"`
	DefaultModel    string                 `json:"default_model"`
	Temperature     float64                `json:"temperature"`
}

type EmbedConfig struct {
	Provider    string      `json:"provider"`
	Args        interface{} `json:"args"`
	Model       string      `json:"model"`
	CacheSize   int         `json:"cache_size"`
	CacheTTLSec int         `json:"cache_ttl_sec"`
}

type StreamConfig struct {
	HeartbeatSec         int `json:"heartbeat_sec"`
	BufferSize           int `json:"buffer_size"`
	MaxReconnectAttempts int `json:"max_reconnect_attempts"`
	SessionTTLSec        int `json:"session_ttl_sec"`
}

type JobConfig struct {
	StreamSweepSpec  string `json:"stream_sweep_spec"`
	CacheCleanupSpec string `json:"cache_cleanup_spec"`
	CacheKeepDays    int    `json:"cache_keep_days"`
	IngestScanSpec   string `json:"ingest_scan_spec"`
	IngestBatchSize  int    `json:"ingest_batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DB.DSN == "" && (cfg.DB.Host == "" || cfg.DB.DBName == "") {
		return nil, fmt.Errorf("db.dsn or db.host/db.db_name is required")
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	if len(cfg.AI.Providers) == 0 {
		return nil, fmt.Errorf("ai.providers is required")
	}
	if cfg.AI.DefaultProvider == "" {
		for name := range cfg.AI.Providers {
			cfg.AI.DefaultProvider = name
			break
		}
	}
	if _, ok := cfg.AI.Providers[cfg.AI.DefaultProvider]; !ok {
		return nil, fmt.Errorf("ai.default_provider %q is not configured", cfg.AI.DefaultProvider)
	}
	if cfg.AI.Temperature == 0 {
		cfg.AI.Temperature = 0.7
	}
	if cfg.Embed.Provider == "" {
		return nil, fmt.Errorf("embed.provider is required")
	}
	if cfg.Embed.Model == "" {
		return nil, fmt.Errorf("embed.model is required")
	}
	if cfg.Embed.CacheSize == 0 {
		cfg.Embed.CacheSize = 4096
	}
	if cfg.Embed.CacheTTLSec == 0 {
		cfg.Embed.CacheTTLSec = 3600
	}
	if cfg.Stream.HeartbeatSec == 0 {
		cfg.Stream.HeartbeatSec = 15
	}
	if cfg.Stream.BufferSize == 0 {
		cfg.Stream.BufferSize = 1000
	}
	if cfg.Stream.MaxReconnectAttempts == 0 {
		cfg.Stream.MaxReconnectAttempts = 5
	}
	if cfg.Stream.SessionTTLSec == 0 {
		cfg.Stream.SessionTTLSec = 1800
	}
	if cfg.Jobs.StreamSweepSpec == "" {
		cfg.Jobs.StreamSweepSpec = "@every 5m"
	}
	if cfg.Jobs.CacheCleanupSpec == "" {
		cfg.Jobs.CacheCleanupSpec = "@daily"
	}
	if cfg.Jobs.CacheKeepDays == 0 {
		cfg.Jobs.CacheKeepDays = 30
	}
	if cfg.Jobs.IngestScanSpec == "" {
		cfg.Jobs.IngestScanSpec = "@every 30s"
	}
	if cfg.Jobs.IngestBatchSize == 0 {
		cfg.Jobs.IngestBatchSize = 4
	}
	return &cfg, nil
}
