// Package analyze computes the per-cycle statistical summary over a record
// store snapshot and renders it into deliverable artifacts (text table and
// charts). Every cycle re-scans the full dataset; at a minutes-scale cadence
// a full recompute is cheaper than maintaining rolling state, and cannot
// drift.
package analyze

import (
	"fmt"
	"math"
	"time"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

// sigmaMultiplier sets the outlier threshold at mean + 3 standard
// deviations. Changing it silently changes which trades get reported.
const sigmaMultiplier = 3.0

// Analyze builds an AnalysisSnapshot from a full snapshot of the record
// store. It returns domain.ErrInsufficientData when there is nothing to
// analyze. Anomalies are trades whose notional strictly exceeds the
// threshold; a trade exactly at the threshold is not flagged. Anomaly order
// follows the snapshot (chronological), not notional size.
func Analyze(symbol string, records []domain.TradeRecord) (domain.AnalysisSnapshot, error) {
	if len(records) == 0 {
		return domain.AnalysisSnapshot{}, fmt.Errorf("analyze %s: %w", symbol, domain.ErrInsufficientData)
	}

	notionals := make([]float64, len(records))
	var total float64
	for i, r := range records {
		notionals[i] = r.Notional()
		total += notionals[i]
	}

	mean := total / float64(len(records))

	var sumSq float64
	for _, n := range notionals {
		d := n - mean
		sumSq += d * d
	}
	// Population variance: the snapshot is the whole population of observed
	// trades, not a sample of one.
	stddev := math.Sqrt(sumSq / float64(len(records)))

	threshold := mean + sigmaMultiplier*stddev

	var anomalies []domain.Anomaly
	for i, r := range records {
		if notionals[i] > threshold {
			anomalies = append(anomalies, domain.Anomaly{
				Record:       r,
				Notional:     notionals[i],
				MarketImpact: notionals[i] / total,
			})
		}
	}

	return domain.AnalysisSnapshot{
		Symbol:         symbol,
		GeneratedAt:    time.Now().UTC(),
		RecordCount:    len(records),
		TotalNotional:  total,
		MeanNotional:   mean,
		StddevNotional: stddev,
		Threshold:      threshold,
		Anomalies:      anomalies,
	}, nil
}
