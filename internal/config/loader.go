package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies TRADEWATCH_* environment variable overrides,
// and returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known TRADEWATCH_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Source ──
	setStr(&cfg.Source.Exchange, "TRADEWATCH_SOURCE_EXCHANGE")
	setStr(&cfg.Source.Symbol, "TRADEWATCH_SOURCE_SYMBOL")

	// ── Store ──
	setStr(&cfg.Store.Driver, "TRADEWATCH_STORE_DRIVER")
	setStr(&cfg.Store.CSVPath, "TRADEWATCH_STORE_CSV_PATH")
	setStr(&cfg.Store.DSN, "TRADEWATCH_STORE_DSN")
	setInt(&cfg.Store.PoolMaxConns, "TRADEWATCH_STORE_POOL_MAX_CONNS")

	// ── Ingest ──
	setDuration(&cfg.Ingest.ReconnectBase, "TRADEWATCH_INGEST_RECONNECT_BASE")
	setDuration(&cfg.Ingest.ReconnectMax, "TRADEWATCH_INGEST_RECONNECT_MAX")
	setFloat64(&cfg.Ingest.ReconnectFactor, "TRADEWATCH_INGEST_RECONNECT_FACTOR")
	setFloat64(&cfg.Ingest.ReconnectJitter, "TRADEWATCH_INGEST_RECONNECT_JITTER")

	// ── Report ──
	setDuration(&cfg.Report.Interval, "TRADEWATCH_REPORT_INTERVAL")
	setBool(&cfg.Report.StartupNotice, "TRADEWATCH_REPORT_STARTUP_NOTICE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "TRADEWATCH_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN") // compatibility alias
	setStr(&cfg.Notify.TelegramChatID, "TRADEWATCH_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHAT_ID") // compatibility alias
	setStr(&cfg.Notify.TelegramTopicID, "TRADEWATCH_NOTIFY_TELEGRAM_TOPIC_ID")
	setStr(&cfg.Notify.TelegramTopicID, "TOPIC_ID") // compatibility alias
	setStr(&cfg.Notify.DiscordWebhookURL, "TRADEWATCH_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "TRADEWATCH_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "TRADEWATCH_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "TRADEWATCH_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "TRADEWATCH_REDIS_DB")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "TRADEWATCH_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "TRADEWATCH_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "TRADEWATCH_S3_REGION")
	setStr(&cfg.S3.Bucket, "TRADEWATCH_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "TRADEWATCH_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "TRADEWATCH_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "TRADEWATCH_S3_FORCE_PATH_STYLE")

	// ── Top-level ──
	setStr(&cfg.Mode, "TRADEWATCH_MODE")
	setStr(&cfg.LogLevel, "TRADEWATCH_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}
