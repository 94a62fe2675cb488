package analyze

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

func makeRecords(price float64, amounts ...float64) []domain.TradeRecord {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := make([]domain.TradeRecord, len(amounts))
	for i, amt := range amounts {
		records[i] = domain.TradeRecord{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Symbol:    "BTC/USDT",
			Side:      domain.SideBuy,
			Price:     price,
			Amount:    amt,
			Category:  domain.Categorize(amt),
		}
	}
	return records
}

func TestAnalyzeSummaryStats(t *testing.T) {
	// Amounts 50/500/5000 at price 10 give notionals 500/5000/50000.
	records := makeRecords(10, 50, 500, 5000)

	snap, err := Analyze("BTC/USDT", records)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.RecordCount)
	assert.InDelta(t, 55500.0, snap.TotalNotional, 1e-9)
	assert.InDelta(t, 18500.0, snap.MeanNotional, 1e-9)
	assert.InDelta(t, math.Sqrt(499500000), snap.StddevNotional, 1e-6)
	assert.InDelta(t, 18500+3*math.Sqrt(499500000), snap.Threshold, 1e-6)

	// 50000 sits below mean + 3*stddev for this dataset, so nothing is
	// flagged.
	assert.Empty(t, snap.Anomalies)
}

func TestAnalyzeFlagsDominantTrade(t *testing.T) {
	amounts := make([]float64, 0, 11)
	for i := 0; i < 10; i++ {
		amounts = append(amounts, 10) // notional 100 each
	}
	amounts = append(amounts, 1000) // notional 10000
	records := makeRecords(10, amounts...)

	snap, err := Analyze("BTC/USDT", records)
	require.NoError(t, err)

	require.Len(t, snap.Anomalies, 1)
	a := snap.Anomalies[0]
	assert.Equal(t, 10000.0, a.Notional)
	assert.InDelta(t, 10000.0/11000.0, a.MarketImpact, 1e-9)
	assert.Equal(t, records[10].Timestamp, a.Record.Timestamp)
}

func TestAnalyzeThresholdIsExclusive(t *testing.T) {
	// Identical notionals give stddev 0, so every trade sits exactly at the
	// threshold and none may be flagged.
	records := makeRecords(10, 25, 25, 25, 25)

	snap, err := Analyze("BTC/USDT", records)
	require.NoError(t, err)

	assert.Zero(t, snap.StddevNotional)
	assert.Equal(t, snap.MeanNotional, snap.Threshold)
	assert.Empty(t, snap.Anomalies)
}

func TestAnalyzeAnomaliesChronological(t *testing.T) {
	// 100 baseline trades with two spikes, the later one larger; output
	// order must follow time, not size.
	amounts := make([]float64, 100)
	for i := range amounts {
		amounts[i] = 10 // notional 100 each
	}
	amounts[30] = 500  // notional 5000
	amounts[80] = 1000 // notional 10000
	records := makeRecords(10, amounts...)

	snap, err := Analyze("BTC/USDT", records)
	require.NoError(t, err)
	require.Len(t, snap.Anomalies, 2)
	assert.True(t, snap.Anomalies[0].Record.Timestamp.Before(snap.Anomalies[1].Record.Timestamp))
	assert.Equal(t, 5000.0, snap.Anomalies[0].Notional)
	assert.Equal(t, 10000.0, snap.Anomalies[1].Notional)
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	_, err := Analyze("BTC/USDT", nil)
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRenderText(t *testing.T) {
	records := makeRecords(10, 50, 500, 5000)
	snap, err := Analyze("BTC/USDT", records)
	require.NoError(t, err)

	text := RenderText(snap)
	assert.Contains(t, text, "Trade report for BTC/USDT")
	assert.Contains(t, text, "records:        3")
	assert.Contains(t, text, "mean notional:  18500.00")
	assert.Contains(t, text, "no anomalous trades this cycle")
}

func TestRenderTextWithAnomalies(t *testing.T) {
	amounts := make([]float64, 0, 11)
	for i := 0; i < 10; i++ {
		amounts = append(amounts, 10)
	}
	amounts = append(amounts, 1000)
	snap, err := Analyze("BTC/USDT", makeRecords(10, amounts...))
	require.NoError(t, err)

	text := RenderText(snap)
	assert.Contains(t, text, "anomalous trades (1):")
	assert.Contains(t, text, "10000.00")
}

func TestRenderChartsNeedsTwoPoints(t *testing.T) {
	_, err := RenderCharts("BTC/USDT", makeRecords(10, 50))
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
}

func TestRenderChartsProducesPNGs(t *testing.T) {
	charts, err := RenderCharts("BTC/USDT", makeRecords(10, 50, 500, 5000))
	require.NoError(t, err)

	pngMagic := []byte{0x89, 'P', 'N', 'G'}
	assert.Equal(t, pngMagic, charts.PriceOverTime[:4])
	assert.Equal(t, pngMagic, charts.NotionalOverTime[:4])
}
