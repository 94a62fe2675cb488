package domain

import "time"

// Anomaly is a trade whose notional strictly exceeds the snapshot's outlier
// threshold, annotated with its share of the snapshot's total notional.
type Anomaly struct {
	Record       TradeRecord
	Notional     float64
	MarketImpact float64 // Notional / total notional in the snapshot
}

// AnalysisSnapshot is a point-in-time statistical summary over the full
// record store. It is rebuilt from scratch every reporting cycle, handed to
// the notifier, and discarded; it is never persisted.
type AnalysisSnapshot struct {
	Symbol         string
	GeneratedAt    time.Time
	RecordCount    int
	TotalNotional  float64
	MeanNotional   float64
	StddevNotional float64
	// Threshold is MeanNotional + 3*StddevNotional. Trades must strictly
	// exceed it to be flagged.
	Threshold float64
	// Anomalies preserves the chronological order of the underlying records.
	Anomalies []Anomaly
}
