// Package config defines all configuration for the order book daemon.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// overridable fields settable via LOB_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file structure.
type Config struct {
	Book      BookConfig      `mapstructure:"book"`
	Feed      FeedConfig      `mapstructure:"feed"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Persist   PersistConfig   `mapstructure:"persist"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BookConfig configures one OrderBook instance. TickSize is fixed at
// construction per spec §3/§4.1. Venues is loaded from the file but not
// applied anywhere: the book recognizes the full build-time 14-venue
// table whatever this list contains.
type BookConfig struct {
	Symbol   string   `mapstructure:"symbol"`
	TickSize float64  `mapstructure:"tick_size"`
	Venues   []string `mapstructure:"venues"`
}

// FeedConfig points the REST snapshot loader and the incremental
// websocket stream at one venue aggregator.
type FeedConfig struct {
	SnapshotURL     string        `mapstructure:"snapshot_url"`
	StreamURL       string        `mapstructure:"stream_url"`
	SnapshotRPS     float64       `mapstructure:"snapshot_rps"`
	SnapshotBurst   float64       `mapstructure:"snapshot_burst"`
	ReconnectMinWait time.Duration `mapstructure:"reconnect_min_wait"`
	ReconnectMaxWait time.Duration `mapstructure:"reconnect_max_wait"`
}

// BatchConfig tunes the batching driver that coalesces events between
// calls to OrderBook.OnBatch.
type BatchConfig struct {
	MaxEvents   int           `mapstructure:"max_events"`
	MaxInterval time.Duration `mapstructure:"max_interval"`
}

// PublisherConfig controls the HTTP/WebSocket fan-out of notifications.
type PublisherConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PersistConfig sets where book checkpoints are written (JSON files).
type PersistConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	DataDir  string        `mapstructure:"data_dir"`
	Interval time.Duration `mapstructure:"interval"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("LOB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if sym := os.Getenv("LOB_SYMBOL"); sym != "" {
		cfg.Book.Symbol = sym
	}
	if url := os.Getenv("LOB_STREAM_URL"); url != "" {
		cfg.Feed.StreamURL = url
	}

	return &cfg, nil
}

// Validate checks all required fields and value ranges.
func (c *Config) Validate() error {
	if c.Book.Symbol == "" {
		return fmt.Errorf("book.symbol is required")
	}
	if c.Book.TickSize <= 0 {
		return fmt.Errorf("book.tick_size must be > 0")
	}
	if c.Feed.StreamURL == "" {
		return fmt.Errorf("feed.stream_url is required")
	}
	if c.Batch.MaxEvents <= 0 {
		return fmt.Errorf("batch.max_events must be > 0")
	}
	if c.Batch.MaxInterval <= 0 {
		return fmt.Errorf("batch.max_interval must be > 0")
	}
	if c.Persist.Enabled && c.Persist.DataDir == "" {
		return fmt.Errorf("persist.data_dir is required when persist.enabled is true")
	}
	return nil
}
