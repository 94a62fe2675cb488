// Package app provides the top-level application lifecycle management for
// tradewatch. It wires together all dependencies (store, stream source,
// caches, blob storage, and notifications) and starts the loops for the
// configured operating mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/tradewatch/internal/config"
	"github.com/alanyoungcy/tradewatch/internal/ingest"
	"github.com/alanyoungcy/tradewatch/internal/pipeline"
	"github.com/alanyoungcy/tradewatch/internal/retry"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, and blocks until the context is cancelled or the mode
// completes. On return the caller is expected to invoke Close.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("exchange", a.cfg.Source.Exchange),
		slog.String("symbol", a.cfg.Source.Symbol),
	)
	a.logger.DebugContext(ctx, "effective configuration",
		slog.Any("config", config.RedactedConfig(a.cfg)))

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.cfg.Mode) {
	case "watch":
		return a.watchMode(ctx, deps)
	case "report":
		return a.reportMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// watchMode runs both long-lived loops (ingest and report) under the
// orchestrator until the context is cancelled.
func (a *App) watchMode(ctx context.Context, deps *Dependencies) error {
	if a.cfg.Report.StartupNotice {
		deps.Notifier.Notice(ctx, "tradewatch",
			fmt.Sprintf("watching %s on %s", a.cfg.Source.Symbol, a.cfg.Source.Exchange))
		defer func() {
			// Use a fresh context: the run context is already cancelled
			// when shutdown reaches this point.
			deps.Notifier.Notice(context.WithoutCancel(ctx), "tradewatch",
				fmt.Sprintf("stopped watching %s on %s", a.cfg.Source.Symbol, a.cfg.Source.Exchange))
		}()
	}

	ingestor := ingest.New(
		deps.Source,
		deps.Store,
		a.cfg.Source.Symbol,
		retry.Policy{
			Base:   a.cfg.Ingest.ReconnectBase.Duration,
			Max:    a.cfg.Ingest.ReconnectMax.Duration,
			Factor: a.cfg.Ingest.ReconnectFactor,
			Jitter: a.cfg.Ingest.ReconnectJitter,
		},
		a.logger,
	)

	orch := pipeline.NewOrchestrator(ingestor, a.buildReporter(deps), a.logger)
	return orch.Run(ctx)
}

// reportMode runs a single analyze-and-deliver cycle over whatever the store
// already holds, then exits. Used for ad-hoc and scheduled reports.
func (a *App) reportMode(ctx context.Context, deps *Dependencies) error {
	if err := a.buildReporter(deps).RunOnce(ctx); err != nil {
		return fmt.Errorf("app: report: %w", err)
	}
	return nil
}

// buildReporter assembles the reporter with whichever optional integrations
// were wired.
func (a *App) buildReporter(deps *Dependencies) *pipeline.Reporter {
	reporter := pipeline.NewReporter(
		deps.Store,
		deps.Notifier,
		a.cfg.Source.Symbol,
		a.cfg.Report.Interval.Duration,
		a.logger,
	)
	if deps.StatsCache != nil {
		reporter = reporter.WithStatsCache(deps.StatsCache)
	}
	if deps.Archiver != nil {
		reporter = reporter.WithArchiver(deps.Archiver)
	}
	return reporter
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
