package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

// StatsCache implements domain.StatsCache using Redis hashes. The latest
// analysis summary lives at "stats:{symbol}" and the last observed price at
// "price:{symbol}", so dashboards and sibling processes can read the
// watcher's state without touching the record store.
type StatsCache struct {
	c *Client
}

// NewStatsCache creates a StatsCache backed by the given Client.
func NewStatsCache(c *Client) *StatsCache {
	return &StatsCache{c: c}
}

func statsKey(symbol string) string {
	return "stats:" + symbol
}

func priceKey(symbol string) string {
	return "price:" + symbol
}

// SetAnalysis stores the latest analysis summary for the symbol.
func (sc *StatsCache) SetAnalysis(ctx context.Context, snap domain.AnalysisSnapshot) error {
	fields := map[string]interface{}{
		"records":        strconv.Itoa(snap.RecordCount),
		"total_notional": formatFloat(snap.TotalNotional),
		"mean_notional":  formatFloat(snap.MeanNotional),
		"stddev":         formatFloat(snap.StddevNotional),
		"threshold":      formatFloat(snap.Threshold),
		"anomalies":      strconv.Itoa(len(snap.Anomalies)),
		"generated_at":   strconv.FormatInt(snap.GeneratedAt.UnixMilli(), 10),
	}
	if err := sc.c.Underlying().HSet(ctx, statsKey(snap.Symbol), fields).Err(); err != nil {
		return fmt.Errorf("redis: set analysis %s: %w", snap.Symbol, err)
	}
	return nil
}

// SetLastPrice stores the most recent trade price for the symbol.
func (sc *StatsCache) SetLastPrice(ctx context.Context, symbol string, price float64) error {
	if err := sc.c.Underlying().Set(ctx, priceKey(symbol), formatFloat(price), 0).Err(); err != nil {
		return fmt.Errorf("redis: set last price %s: %w", symbol, err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Compile-time interface check.
var _ domain.StatsCache = (*StatsCache)(nil)
