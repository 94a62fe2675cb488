// Package pipeline ties the loops together: the reporter drives the periodic
// analyze-and-deliver cycle and the orchestrator supervises it alongside the
// ingestor.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/alanyoungcy/tradewatch/internal/analyze"
	"github.com/alanyoungcy/tradewatch/internal/domain"
	"github.com/alanyoungcy/tradewatch/internal/notify"
)

// ReportArchiver stores the artifacts of a completed report cycle.
type ReportArchiver interface {
	ArchiveReport(ctx context.Context, snap domain.AnalysisSnapshot, text string, images map[string][]byte) error
}

// Reporter runs the periodic reporting cycle: snapshot the store, analyze the
// full dataset, render text and charts, and deliver them. Every failure mode
// inside a cycle is absorbed; the next tick always runs.
type Reporter struct {
	store    domain.RecordStore
	notifier *notify.Notifier
	symbol   string
	interval time.Duration
	logger   *slog.Logger

	// Optional integrations; nil disables them.
	stats    domain.StatsCache
	archiver ReportArchiver
}

// NewReporter creates a Reporter for the given symbol and cycle interval.
func NewReporter(store domain.RecordStore, notifier *notify.Notifier, symbol string, interval time.Duration, logger *slog.Logger) *Reporter {
	return &Reporter{
		store:    store,
		notifier: notifier,
		symbol:   symbol,
		interval: interval,
		logger: logger.With(
			slog.String("component", "reporter"),
			slog.String("symbol", symbol),
		),
	}
}

// WithStatsCache enables publishing each cycle's summary to the cache.
func (r *Reporter) WithStatsCache(c domain.StatsCache) *Reporter {
	r.stats = c
	return r
}

// WithArchiver enables uploading each cycle's artifacts to object storage.
func (r *Reporter) WithArchiver(a ReportArchiver) *Reporter {
	r.archiver = a
	return r
}

// RunLoop runs one cycle immediately and then one per interval until ctx is
// cancelled. Cycle errors never end the loop.
func (r *Reporter) RunLoop(ctx context.Context) error {
	r.logger.InfoContext(ctx, "reporter started", slog.Duration("interval", r.interval))

	r.runCycle(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "reporter stopped")
			return ctx.Err()
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

// runCycle executes RunOnce and downgrades its errors to log lines.
func (r *Reporter) runCycle(ctx context.Context) {
	if err := r.RunOnce(ctx); err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			r.logger.InfoContext(ctx, "skipping cycle, not enough data yet")
			return
		}
		if ctx.Err() != nil {
			return
		}
		r.logger.ErrorContext(ctx, "report cycle failed", slog.String("error", err.Error()))
	}
}

// RunOnce performs a single full reporting cycle over the entire dataset. It
// is also the implementation behind the one-shot report mode.
func (r *Reporter) RunOnce(ctx context.Context) error {
	started := time.Now()

	records, err := r.store.Snapshot(ctx)
	if err != nil {
		return err
	}

	snap, err := analyze.Analyze(r.symbol, records)
	if err != nil {
		return err
	}

	text := analyze.RenderText(snap)

	// Chart rendering needs two points; with a single record the report
	// still goes out text-only.
	var images [][]byte
	imageMap := map[string][]byte{}
	charts, err := analyze.RenderCharts(r.symbol, records)
	switch {
	case err == nil:
		images = [][]byte{charts.PriceOverTime, charts.NotionalOverTime}
		imageMap["price_over_time.png"] = charts.PriceOverTime
		imageMap["notional_over_time.png"] = charts.NotionalOverTime
	case errors.Is(err, domain.ErrInsufficientData):
		r.logger.InfoContext(ctx, "skipping charts, not enough data points")
	default:
		r.logger.ErrorContext(ctx, "chart rendering failed", slog.String("error", err.Error()))
	}

	caption := snap.Symbol + " trade report"
	deliverErr := r.notifier.Deliver(ctx, snap.Symbol+" trade report", text, images, caption)

	r.publishStats(ctx, snap, records)

	if r.archiver != nil {
		if err := r.archiver.ArchiveReport(ctx, snap, text, imageMap); err != nil {
			r.logger.ErrorContext(ctx, "report archive failed", slog.String("error", err.Error()))
		}
	}

	r.logger.InfoContext(ctx, "report cycle complete",
		slog.Int("records", snap.RecordCount),
		slog.Int("anomalies", len(snap.Anomalies)),
		slog.Float64("threshold", snap.Threshold),
		slog.Duration("took", time.Since(started)),
	)
	return deliverErr
}

// publishStats pushes the cycle summary and the latest observed price to the
// stats cache when one is configured. Cache failures are advisory.
func (r *Reporter) publishStats(ctx context.Context, snap domain.AnalysisSnapshot, records []domain.TradeRecord) {
	if r.stats == nil {
		return
	}
	if err := r.stats.SetAnalysis(ctx, snap); err != nil {
		r.logger.WarnContext(ctx, "stats cache update failed", slog.String("error", err.Error()))
	}
	if len(records) > 0 {
		last := records[len(records)-1]
		if err := r.stats.SetLastPrice(ctx, r.symbol, last.Price); err != nil {
			r.logger.WarnContext(ctx, "price cache update failed", slog.String("error", err.Error()))
		}
	}
}
