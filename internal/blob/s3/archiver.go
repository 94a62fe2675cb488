package s3blob

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

// Archiver uploads the artifacts of each report cycle to object storage so
// past reports survive notification-channel retention limits. Artifacts land
// under reports/{symbol}/{timestamp}/.
type Archiver struct {
	writer domain.BlobWriter
	logger *slog.Logger
}

// NewArchiver creates an Archiver writing through the given BlobWriter.
func NewArchiver(w domain.BlobWriter, logger *slog.Logger) *Archiver {
	return &Archiver{
		writer: w,
		logger: logger.With("component", "archiver"),
	}
}

// ArchiveReport uploads the text report and chart images for one analysis
// cycle. Individual upload failures are logged and do not abort the
// remaining uploads; the first error encountered is returned.
func (a *Archiver) ArchiveReport(ctx context.Context, snap domain.AnalysisSnapshot, text string, images map[string][]byte) error {
	prefix := archivePrefix(snap.Symbol, snap.GeneratedAt)

	var firstErr error
	record := func(name string, err error) {
		if err == nil {
			return
		}
		a.logger.WarnContext(ctx, "report artifact upload failed",
			"artifact", name,
			"error", err,
		)
		if firstErr == nil {
			firstErr = err
		}
	}

	record("report.txt", a.writer.Put(ctx, prefix+"/report.txt", strings.NewReader(text), "text/plain; charset=utf-8"))

	for name, img := range images {
		record(name, a.writer.Put(ctx, prefix+"/"+name, bytes.NewReader(img), "image/png"))
	}

	if firstErr == nil {
		a.logger.InfoContext(ctx, "report archived",
			"symbol", snap.Symbol,
			"prefix", prefix,
			"artifacts", len(images)+1,
		)
	}
	return firstErr
}

// archivePrefix builds the object key prefix for one report cycle. Slashes in
// the symbol are replaced so BTC/USDT does not introduce extra path levels.
func archivePrefix(symbol string, at time.Time) string {
	sym := strings.ReplaceAll(symbol, "/", "_")
	return fmt.Sprintf("reports/%s/%s", sym, at.UTC().Format("20060102T150405Z"))
}
