package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[source]
exchange = "gateio"
symbol = "BTC/USDT"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "watch", cfg.Mode)
	assert.Equal(t, "csv", cfg.Store.Driver)
	assert.Equal(t, "trades.csv", cfg.Store.CSVPath)
	assert.Equal(t, 15*time.Minute, cfg.Report.Interval.Duration)
	assert.Equal(t, 10*time.Second, cfg.Ingest.ReconnectBase.Duration)
	assert.Equal(t, 60*time.Second, cfg.Ingest.ReconnectMax.Duration)
	require.NoError(t, cfg.Validate())
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
[source]
exchange = "binance"
symbol = "ETH/USDT"

[report]
interval = "5m"

[ingest]
reconnect_base = "2s"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Report.Interval.Duration)
	assert.Equal(t, 2*time.Second, cfg.Ingest.ReconnectBase.Duration)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
[source]
exchange = "gateio"
symbol = "BTC/USDT"
`)

	t.Setenv("TRADEWATCH_SOURCE_SYMBOL", "SOL/USDT")
	t.Setenv("TRADEWATCH_REPORT_INTERVAL", "1m")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "chat")
	t.Setenv("TOPIC_ID", "99")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "SOL/USDT", cfg.Source.Symbol)
	assert.Equal(t, time.Minute, cfg.Report.Interval.Duration)
	assert.Equal(t, "tok", cfg.Notify.TelegramToken)
	assert.Equal(t, "chat", cfg.Notify.TelegramChatID)
	assert.Equal(t, "99", cfg.Notify.TelegramTopicID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing exchange", func(c *Config) { c.Source.Exchange = "" }, "exchange"},
		{"missing symbol", func(c *Config) { c.Source.Symbol = "" }, "symbol"},
		{"bad mode", func(c *Config) { c.Mode = "daemon" }, "mode"},
		{"bad driver", func(c *Config) { c.Store.Driver = "sqlite" }, "driver"},
		{"csv without path", func(c *Config) { c.Store.CSVPath = "" }, "csv_path"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = "postgres" }, "dsn"},
		{"zero interval", func(c *Config) { c.Report.Interval.Duration = 0 }, "interval"},
		{"max below base", func(c *Config) { c.Ingest.ReconnectMax.Duration = time.Second }, "reconnect_max"},
		{"jitter out of range", func(c *Config) { c.Ingest.ReconnectJitter = 1.5 }, "jitter"},
		{"token without chat", func(c *Config) { c.Notify.TelegramToken = "tok" }, "telegram"},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis"},
		{"s3 enabled without bucket", func(c *Config) { c.S3.Enabled = true }, "bucket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Source.Exchange = "gateio"
			cfg.Source.Symbol = "BTC/USDT"
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	cfg := Defaults()
	// Exchange and symbol both missing; both must appear in the error.
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange")
	assert.Contains(t, err.Error(), "symbol")
}
