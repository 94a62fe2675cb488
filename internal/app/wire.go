package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	s3blob "github.com/alanyoungcy/tradewatch/internal/blob/s3"
	"github.com/alanyoungcy/tradewatch/internal/cache/redis"
	"github.com/alanyoungcy/tradewatch/internal/config"
	"github.com/alanyoungcy/tradewatch/internal/domain"
	"github.com/alanyoungcy/tradewatch/internal/notify"
	"github.com/alanyoungcy/tradewatch/internal/pipeline"
	"github.com/alanyoungcy/tradewatch/internal/platform"
	"github.com/alanyoungcy/tradewatch/internal/store/csvstore"
	"github.com/alanyoungcy/tradewatch/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency the application modes
// need. It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	Store  domain.RecordStore
	Source domain.StreamSource

	Notifier *notify.Notifier

	// Optional integrations; nil when disabled in config.
	StatsCache domain.StatsCache
	Archiver   pipeline.ReportArchiver
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Record store ---
	switch strings.ToLower(cfg.Store.Driver) {
	case "csv":
		store, err := csvstore.Open(cfg.Store.CSVPath)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: csv store: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		deps.Store = store
	case "postgres":
		store, err := postgres.New(ctx, postgres.Config{
			DSN:      cfg.Store.DSN,
			MaxConns: cfg.Store.PoolMaxConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres store: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		deps.Store = store
	default:
		cleanup()
		return nil, nil, fmt.Errorf("wire: unknown store driver %q", cfg.Store.Driver)
	}

	// --- Stream source ---
	source, err := platform.Resolve(cfg.Source.Exchange)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: stream source: %w", err)
	}
	deps.Source = source

	// --- Redis stats cache ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.StatsCache = redis.NewStatsCache(redisClient)
	}

	// --- S3 report archive ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client), logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
			cfg.Notify.TelegramTopicID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	if deps.Notifier.SenderCount() == 0 {
		logger.Warn("no notification channels configured, reports will only be logged")
	}

	return deps, cleanup, nil
}
