package analyze

import (
	"fmt"
	"strings"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// RenderText formats an analysis snapshot as a fixed-width report suitable
// for a chat message. Anomalies are listed in chronological order so the
// table reads as a timeline.
func RenderText(snap domain.AnalysisSnapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Trade report for %s (%s)\n", snap.Symbol, snap.GeneratedAt.Format(timeLayout))
	fmt.Fprintf(&b, "records:        %d\n", snap.RecordCount)
	fmt.Fprintf(&b, "total notional: %.2f\n", snap.TotalNotional)
	fmt.Fprintf(&b, "mean notional:  %.2f\n", snap.MeanNotional)
	fmt.Fprintf(&b, "stddev:         %.2f\n", snap.StddevNotional)
	fmt.Fprintf(&b, "threshold:      %.2f (mean + 3*stddev)\n", snap.Threshold)

	if len(snap.Anomalies) == 0 {
		b.WriteString("\nno anomalous trades this cycle\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nanomalous trades (%d):\n", len(snap.Anomalies))
	fmt.Fprintf(&b, "%-19s  %-4s  %12s  %12s  %14s  %7s\n",
		"time", "side", "price", "amount", "notional", "impact")

	for _, a := range snap.Anomalies {
		fmt.Fprintf(&b, "%-19s  %-4s  %12.6f  %12.4f  %14.2f  %6.2f%%\n",
			a.Record.Timestamp.Format(timeLayout),
			a.Record.Side,
			a.Record.Price,
			a.Record.Amount,
			a.Notional,
			a.MarketImpact*100,
		)
	}

	return b.String()
}
