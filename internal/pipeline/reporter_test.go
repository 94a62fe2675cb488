package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/tradewatch/internal/domain"
	"github.com/alanyoungcy/tradewatch/internal/notify"
)

type memStore struct {
	mu      sync.Mutex
	records []domain.TradeRecord
	err     error
}

func (m *memStore) Append(ctx context.Context, batch []domain.TradeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, batch...)
	return nil
}

func (m *memStore) Snapshot(ctx context.Context) ([]domain.TradeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.TradeRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.records)), nil
}

func (m *memStore) Close() error { return nil }

type captureSender struct {
	mu     sync.Mutex
	texts  []string
	photos int
	err    error
}

func (c *captureSender) Send(ctx context.Context, title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.texts = append(c.texts, message)
	return nil
}

func (c *captureSender) SendPhoto(ctx context.Context, image []byte, caption string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.photos++
	return nil
}

func (c *captureSender) Name() string { return "capture" }

type captureStats struct {
	snaps  []domain.AnalysisSnapshot
	prices []float64
}

func (c *captureStats) SetAnalysis(ctx context.Context, snap domain.AnalysisSnapshot) error {
	c.snaps = append(c.snaps, snap)
	return nil
}

func (c *captureStats) SetLastPrice(ctx context.Context, symbol string, price float64) error {
	c.prices = append(c.prices, price)
	return nil
}

type captureArchiver struct {
	calls int
	texts []string
}

func (c *captureArchiver) ArchiveReport(ctx context.Context, snap domain.AnalysisSnapshot, text string, images map[string][]byte) error {
	c.calls++
	c.texts = append(c.texts, text)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedRecords(amounts ...float64) []domain.TradeRecord {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := make([]domain.TradeRecord, len(amounts))
	for i, amt := range amounts {
		records[i] = domain.TradeRecord{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Symbol:    "BTC/USDT",
			Side:      domain.SideBuy,
			Price:     10,
			Amount:    amt,
			Category:  domain.Categorize(amt),
		}
	}
	return records
}

func TestRunOnceDeliversReport(t *testing.T) {
	store := &memStore{records: seedRecords(50, 500, 5000)}
	sender := &captureSender{}
	stats := &captureStats{}
	arch := &captureArchiver{}

	r := NewReporter(store, notify.NewNotifier([]notify.Sender{sender}, discardLogger()),
		"BTC/USDT", time.Minute, discardLogger()).
		WithStatsCache(stats).
		WithArchiver(arch)

	require.NoError(t, r.RunOnce(context.Background()))

	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "Trade report for BTC/USDT")
	assert.Equal(t, 2, sender.photos)

	require.Len(t, stats.snaps, 1)
	assert.Equal(t, 3, stats.snaps[0].RecordCount)
	assert.Equal(t, []float64{10}, stats.prices)

	assert.Equal(t, 1, arch.calls)
	assert.Contains(t, arch.texts[0], "mean notional")
}

func TestRunOnceEmptyStoreSkips(t *testing.T) {
	store := &memStore{}
	sender := &captureSender{}

	r := NewReporter(store, notify.NewNotifier([]notify.Sender{sender}, discardLogger()),
		"BTC/USDT", time.Minute, discardLogger())

	err := r.RunOnce(context.Background())
	assert.ErrorIs(t, err, domain.ErrInsufficientData)
	assert.Empty(t, sender.texts)
}

func TestRunOnceSingleRecordSendsTextOnly(t *testing.T) {
	store := &memStore{records: seedRecords(50)}
	sender := &captureSender{}

	r := NewReporter(store, notify.NewNotifier([]notify.Sender{sender}, discardLogger()),
		"BTC/USDT", time.Minute, discardLogger())

	require.NoError(t, r.RunOnce(context.Background()))
	assert.Len(t, sender.texts, 1)
	assert.Zero(t, sender.photos)
}

func TestRunOnceArchivesEvenWhenDeliveryFails(t *testing.T) {
	store := &memStore{records: seedRecords(50, 500)}
	sender := &captureSender{err: errors.New("channel down")}
	arch := &captureArchiver{}

	r := NewReporter(store, notify.NewNotifier([]notify.Sender{sender}, discardLogger()),
		"BTC/USDT", time.Minute, discardLogger()).
		WithArchiver(arch)

	err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, arch.calls)
}

func TestRunLoopSurvivesFailedCycles(t *testing.T) {
	// Snapshot failures must not end the loop; the loop ends only on ctx
	// cancellation.
	store := &memStore{err: errors.New("io error")}
	sender := &captureSender{}

	r := NewReporter(store, notify.NewNotifier([]notify.Sender{sender}, discardLogger()),
		"BTC/USDT", 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := r.RunLoop(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunLoopDeliversOnLaterTick(t *testing.T) {
	// Store starts empty; records arrive after the first cycle. A later tick
	// must pick them up.
	store := &memStore{}
	sender := &captureSender{}

	r := NewReporter(store, notify.NewNotifier([]notify.Sender{sender}, discardLogger()),
		"BTC/USDT", 20*time.Millisecond, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = store.Append(context.Background(), seedRecords(50, 500))
	}()

	_ = r.RunLoop(ctx)

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.NotEmpty(t, sender.texts)
}
