// Package ingest runs the live trade ingestion loop: it owns the stream
// session, normalizes and classifies incoming events, and appends them to
// the record store, reconnecting whenever the transport drops.
package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alanyoungcy/tradewatch/internal/domain"
	"github.com/alanyoungcy/tradewatch/internal/retry"
)

// Ingestor keeps one exchange/symbol subscription alive indefinitely and is
// the record store's sole writer. Missed events during downtime are lost by
// design; liveness wins over completeness.
type Ingestor struct {
	source domain.StreamSource
	store  domain.RecordStore
	symbol string
	policy retry.Policy
	logger *slog.Logger
}

// New creates an Ingestor for the given source and symbol.
func New(source domain.StreamSource, store domain.RecordStore, symbol string, policy retry.Policy, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		source: source,
		store:  store,
		symbol: symbol,
		policy: policy,
		logger: logger.With(
			slog.String("component", "ingestor"),
			slog.String("exchange", source.Name()),
			slog.String("symbol", symbol),
		),
	}
}

// Run loops Disconnected -> Subscribing -> Streaming until ctx is cancelled.
// Every transport or append failure tears the session down and re-enters
// Subscribing after the policy's delay; the backoff attempt counter resets
// once a batch lands.
func (i *Ingestor) Run(ctx context.Context) error {
	attempt := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		session, err := i.source.Subscribe(ctx, i.symbol)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			i.logger.ErrorContext(ctx, "subscribe failed",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
			if err := i.policy.Wait(ctx, attempt); err != nil {
				return err
			}
			attempt++
			continue
		}

		sessionID := uuid.NewString()
		i.logger.InfoContext(ctx, "streaming", slog.String("session_id", sessionID))

		appended, err := i.stream(ctx, session, sessionID)
		_ = session.Close()

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if appended > 0 {
			attempt = 0
		}

		i.logger.ErrorContext(ctx, "stream interrupted, reconnecting",
			slog.String("session_id", sessionID),
			slog.Int64("batches_appended", appended),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if err := i.policy.Wait(ctx, attempt); err != nil {
			return err
		}
		attempt++
	}
}

// stream consumes one session until it fails, appending each normalized
// batch atomically. It returns the number of batches appended along with the
// error that ended the session. An append failure drops the whole batch; it
// is never retried piecemeal.
func (i *Ingestor) stream(ctx context.Context, session domain.StreamSession, sessionID string) (int64, error) {
	var appended int64

	for {
		events, err := session.Next(ctx)
		if err != nil {
			return appended, err
		}

		batch := i.normalizeBatch(ctx, events)
		if len(batch) == 0 {
			continue
		}

		if err := i.store.Append(ctx, batch); err != nil {
			return appended, err
		}
		appended++

		i.logger.InfoContext(ctx, "appended trades",
			slog.String("session_id", sessionID),
			slog.Int("count", len(batch)),
		)
	}
}

// normalizeBatch converts raw events into validated records. Malformed
// events are dropped with a warning and do not interrupt the batch.
func (i *Ingestor) normalizeBatch(ctx context.Context, events []domain.TradeEvent) []domain.TradeRecord {
	records := make([]domain.TradeRecord, 0, len(events))
	for _, ev := range events {
		rec, err := normalizeEvent(ev, i.symbol)
		if err != nil {
			i.logger.WarnContext(ctx, "dropping malformed event",
				slog.String("side", ev.Side),
				slog.String("price", ev.Price),
				slog.String("amount", ev.Amount),
				slog.String("error", err.Error()),
			)
			continue
		}
		records = append(records, rec)
	}
	return records
}
