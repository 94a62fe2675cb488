package domain

import (
	"context"
	"io"
)

// RecordStore is the durable, append-only table of trade records. It is the
// only state shared between the ingestor (sole writer) and the reporter
// (sole reader). Implementations must support concurrent Append and Snapshot
// without a reader ever observing a partially written batch.
type RecordStore interface {
	// Append persists a batch atomically: either every record in the batch
	// becomes visible to subsequent snapshots, or none does.
	Append(ctx context.Context, batch []TradeRecord) error

	// Snapshot returns a consistent point-in-time copy of every record
	// appended so far, in append order.
	Snapshot(ctx context.Context) ([]TradeRecord, error)

	// Count returns the number of persisted records.
	Count(ctx context.Context) (int64, error)

	Close() error
}

// StatsCache publishes the latest analysis summary for external consumers
// (dashboards, other processes). Failures are advisory; the reporting cycle
// logs and moves on.
type StatsCache interface {
	SetAnalysis(ctx context.Context, snap AnalysisSnapshot) error
	SetLastPrice(ctx context.Context, symbol string, price float64) error
}

// BlobWriter uploads report artifacts to object storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
