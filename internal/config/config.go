// Package config defines the top-level configuration for tradewatch and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by TRADEWATCH_* environment
// variables.
type Config struct {
	Source   SourceConfig `toml:"source"`
	Store    StoreConfig  `toml:"store"`
	Ingest   IngestConfig `toml:"ingest"`
	Report   ReportConfig `toml:"report"`
	Notify   NotifyConfig `toml:"notify"`
	Redis    RedisConfig  `toml:"redis"`
	S3       S3Config     `toml:"s3"`
	Mode     string       `toml:"mode"`
	LogLevel string       `toml:"log_level"`
}

// SourceConfig names the exchange feed and trading pair this process owns.
// Each process instance watches exactly one exchange/symbol pair.
type SourceConfig struct {
	Exchange string `toml:"exchange"`
	Symbol   string `toml:"symbol"`
}

// StoreConfig selects and parameterizes the record store backend.
type StoreConfig struct {
	// Driver is "csv" (append-only file, the default) or "postgres".
	Driver       string `toml:"driver"`
	CSVPath      string `toml:"csv_path"`
	DSN          string `toml:"dsn"`
	PoolMaxConns int    `toml:"pool_max_conns"`
}

// IngestConfig holds the reconnect policy for the stream ingestor.
type IngestConfig struct {
	ReconnectBase   duration `toml:"reconnect_base"`
	ReconnectMax    duration `toml:"reconnect_max"`
	ReconnectFactor float64  `toml:"reconnect_factor"`
	ReconnectJitter float64  `toml:"reconnect_jitter"`
}

// ReportConfig holds the reporting cadence.
type ReportConfig struct {
	Interval duration `toml:"interval"`
	// StartupNotice controls whether a start/stop message is sent to the
	// notification channels.
	StartupNotice bool `toml:"startup_notice"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	TelegramTopicID   string `toml:"telegram_topic_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// RedisConfig holds the optional live stats cache connection parameters.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// S3Config holds the optional report archive parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "15m", "10s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "15m" or "10s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
func Defaults() Config {
	return Config{
		Source: SourceConfig{
			Exchange: "gateio",
		},
		Store: StoreConfig{
			Driver:       "csv",
			CSVPath:      "trades.csv",
			PoolMaxConns: 4,
		},
		Ingest: IngestConfig{
			ReconnectBase:   duration{10 * time.Second},
			ReconnectMax:    duration{60 * time.Second},
			ReconnectFactor: 2.0,
			ReconnectJitter: 0.2,
		},
		Report: ReportConfig{
			Interval:      duration{15 * time.Minute},
			StartupNotice: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		Mode:     "watch",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"watch":  true,
	"report": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validStoreDrivers enumerates the accepted values for Store.Driver.
var validStoreDrivers = map[string]bool{
	"csv":      true,
	"postgres": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: watch, report)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Source — both fields are mandatory; the process must not start
	// either loop without them.
	if strings.TrimSpace(c.Source.Exchange) == "" {
		errs = append(errs, "source: exchange must not be empty")
	}
	if strings.TrimSpace(c.Source.Symbol) == "" {
		errs = append(errs, "source: symbol must not be empty")
	}

	// Store
	if !validStoreDrivers[strings.ToLower(c.Store.Driver)] {
		errs = append(errs, fmt.Sprintf("store: unknown driver %q (valid: csv, postgres)", c.Store.Driver))
	}
	switch strings.ToLower(c.Store.Driver) {
	case "csv":
		if c.Store.CSVPath == "" {
			errs = append(errs, "store: csv_path must not be empty for driver csv")
		}
	case "postgres":
		if strings.TrimSpace(c.Store.DSN) == "" {
			errs = append(errs, "store: dsn must not be empty for driver postgres")
		}
		if c.Store.PoolMaxConns < 1 {
			errs = append(errs, "store: pool_max_conns must be >= 1")
		}
	}

	// Ingest
	if c.Ingest.ReconnectBase.Duration <= 0 {
		errs = append(errs, "ingest: reconnect_base must be > 0")
	}
	if c.Ingest.ReconnectMax.Duration < c.Ingest.ReconnectBase.Duration {
		errs = append(errs, "ingest: reconnect_max must be >= reconnect_base")
	}
	if c.Ingest.ReconnectFactor < 1 {
		errs = append(errs, "ingest: reconnect_factor must be >= 1")
	}
	if c.Ingest.ReconnectJitter < 0 || c.Ingest.ReconnectJitter > 1 {
		errs = append(errs, "ingest: reconnect_jitter must be in [0, 1]")
	}

	// Report
	if c.Report.Interval.Duration <= 0 {
		errs = append(errs, "report: interval must be > 0")
	}

	// Notify — telegram fields must be set together.
	tt := c.Notify.TelegramToken != ""
	tc := c.Notify.TelegramChatID != ""
	if tt != tc {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	// Redis
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty when enabled")
	}

	// S3
	if c.S3.Enabled && c.S3.Bucket == "" {
		errs = append(errs, "s3: bucket must not be empty when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
