package analyze

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

// Charts holds the rendered PNG artifacts for one reporting cycle.
type Charts struct {
	PriceOverTime    []byte
	NotionalOverTime []byte
}

// RenderCharts renders the two time-series charts the report ships with:
// trade price over time and notional over time. It needs at least two
// records to draw a line.
func RenderCharts(symbol string, records []domain.TradeRecord) (Charts, error) {
	if len(records) < 2 {
		return Charts{}, fmt.Errorf("render charts %s: %w", symbol, domain.ErrInsufficientData)
	}

	times := make([]float64, len(records))
	prices := make([]float64, len(records))
	notionals := make([]float64, len(records))
	for i, r := range records {
		// go-chart's time formatters interpret x values as nanoseconds.
		times[i] = float64(r.Timestamp.UnixNano())
		prices[i] = r.Price
		notionals[i] = r.Notional()
	}

	price, err := renderSeries(symbol+" trade price over time", "price", times, prices)
	if err != nil {
		return Charts{}, fmt.Errorf("render price chart: %w", err)
	}
	notional, err := renderSeries(symbol+" notional over time", "notional", times, notionals)
	if err != nil {
		return Charts{}, fmt.Errorf("render notional chart: %w", err)
	}

	return Charts{PriceOverTime: price, NotionalOverTime: notional}, nil
}

// renderSeries draws a single line+dot series against a time axis and
// returns the PNG bytes.
func renderSeries(title, yLabel string, xs, ys []float64) ([]byte, error) {
	graph := chart.Chart{
		Title:  title,
		Width:  1024,
		Height: 512,
		XAxis: chart.XAxis{
			Name:           "time",
			ValueFormatter: chart.TimeMinuteValueFormatter,
			Range:          seriesRange(xs),
		},
		YAxis: chart.YAxis{
			Name:  yLabel,
			Range: seriesRange(ys),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeWidth: 1.5,
					DotWidth:    2,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// seriesRange widens a flat series into a drawable range. go-chart refuses a
// zero-delta axis, and a quiet interval can have every trade at the same
// price.
func seriesRange(ys []float64) chart.Range {
	min, max := ys[0], ys[0]
	for _, y := range ys[1:] {
		if y < min {
			min = y
		}
		if y > max {
			max = y
		}
	}
	if min == max {
		pad := math.Abs(min) * 0.01
		if pad == 0 {
			pad = 1
		}
		min, max = min-pad, max+pad
	}
	return &chart.ContinuousRange{Min: min, Max: max}
}
