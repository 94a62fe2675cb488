package s3blob

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

type fakeWriter struct {
	puts    map[string][]byte
	failKey string
}

func (f *fakeWriter) Put(ctx context.Context, path string, data io.Reader, contentType string) error {
	if f.failKey != "" && path == f.failKey {
		return errors.New("upload failed")
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	if f.puts == nil {
		f.puts = map[string][]byte{}
	}
	f.puts[path] = b
	return nil
}

func testSnap() domain.AnalysisSnapshot {
	return domain.AnalysisSnapshot{
		Symbol:      "BTC/USDT",
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		RecordCount: 3,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestArchiveReport(t *testing.T) {
	w := &fakeWriter{}
	a := NewArchiver(w, discardLogger())

	images := map[string][]byte{
		"price_over_time.png":    {0x89, 'P', 'N', 'G'},
		"notional_over_time.png": {0x89, 'P', 'N', 'G'},
	}
	require.NoError(t, a.ArchiveReport(context.Background(), testSnap(), "report body", images))

	prefix := "reports/BTC_USDT/20250601T120000Z/"
	assert.Equal(t, []byte("report body"), w.puts[prefix+"report.txt"])
	assert.Contains(t, w.puts, prefix+"price_over_time.png")
	assert.Contains(t, w.puts, prefix+"notional_over_time.png")
	assert.Len(t, w.puts, 3)
}

func TestArchiveReportPartialFailure(t *testing.T) {
	w := &fakeWriter{failKey: "reports/BTC_USDT/20250601T120000Z/report.txt"}
	a := NewArchiver(w, discardLogger())

	images := map[string][]byte{"price_over_time.png": {1}}
	err := a.ArchiveReport(context.Background(), testSnap(), "report body", images)

	// The failure is reported, but the chart upload still happened.
	require.Error(t, err)
	assert.Contains(t, w.puts, "reports/BTC_USDT/20250601T120000Z/price_over_time.png")
}
