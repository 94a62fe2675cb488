// Package csvstore implements the append-only record store as a growing CSV
// file, the default backend. The file layout is one header row followed by
// one row per trade in field order: timestamp (epoch millis), symbol, side,
// price, amount, category. History is never compacted or rewritten.
package csvstore

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

var header = []string{"timestamp", "symbol", "side", "price", "amount", "category"}

// Store is a durable append-only table of trade records. The file is the
// ground truth; an in-memory mirror behind the same lock serves snapshots so
// readers never touch the file and never observe a torn record. Append and
// Snapshot are safe to call concurrently.
type Store struct {
	mu            sync.RWMutex
	file          *os.File
	records       []domain.TradeRecord
	headerWritten bool
	closed        bool
}

// Open opens (or creates) the CSV file at path and recovers any records
// already present. A trailing line torn by a crash is skipped; everything
// before it is kept.
func Open(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csvstore: open %s: %w", path, err)
	}

	records, headerWritten, err := loadExisting(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvstore: recover %s: %w", path, err)
	}

	return &Store{
		file:          f,
		records:       records,
		headerWritten: headerWritten,
	}, nil
}

// Append persists a batch of records. The whole batch is encoded into one
// buffer, written with a single write call, and fsynced before it becomes
// visible to Snapshot, so a snapshot sees either the entire batch or none of
// it. The header row is emitted exactly once, on the first append to a fresh
// file.
func (s *Store) Append(ctx context.Context, batch []domain.TradeRecord) error {
	if len(batch) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i, r := range batch {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("csvstore: append record %d: %w", i, err)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("csvstore: append: store closed")
	}

	if !s.headerWritten {
		if err := w.Write(header); err != nil {
			return fmt.Errorf("csvstore: encode header: %w", err)
		}
	}
	for i, r := range batch {
		if err := w.Write(encodeRecord(r)); err != nil {
			return fmt.Errorf("csvstore: encode record %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvstore: encode batch: %w", err)
	}

	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("csvstore: write batch: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("csvstore: sync: %w", err)
	}

	s.headerWritten = true
	s.records = append(s.records, batch...)
	return nil
}

// Snapshot returns a copy of every record appended so far, in append order.
func (s *Store) Snapshot(ctx context.Context) ([]domain.TradeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TradeRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Count returns the number of persisted records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// Close syncs and closes the underlying file. Safe to call once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.file.Sync(); err != nil {
		s.file.Close()
		return fmt.Errorf("csvstore: close sync: %w", err)
	}
	return s.file.Close()
}

// loadExisting reads the existing file contents into memory. It reports whether
// a header row is already present. Rows that fail to parse (a torn trailing
// line from a crash, or a stray malformed row) are skipped.
func loadExisting(f *os.File) ([]domain.TradeRecord, bool, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, false, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var (
		records       []domain.TradeRecord
		headerWritten bool
		first         = true
	)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Malformed row; skip it and keep going.
			continue
		}
		if first {
			first = false
			if len(row) > 0 && row[0] == header[0] {
				headerWritten = true
				continue
			}
		}

		rec, err := decodeRecord(row)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}

	// Position back at the end for appends.
	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return nil, false, err
	}
	return records, headerWritten, nil
}

func encodeRecord(r domain.TradeRecord) []string {
	return []string{
		strconv.FormatInt(r.Timestamp.UnixMilli(), 10),
		r.Symbol,
		string(r.Side),
		strconv.FormatFloat(r.Price, 'f', -1, 64),
		strconv.FormatFloat(r.Amount, 'f', -1, 64),
		string(r.Category),
	}
}

func decodeRecord(row []string) (domain.TradeRecord, error) {
	if len(row) != len(header) {
		return domain.TradeRecord{}, fmt.Errorf("want %d fields, got %d", len(header), len(row))
	}

	ms, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("timestamp: %w", err)
	}
	price, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("price: %w", err)
	}
	amount, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return domain.TradeRecord{}, fmt.Errorf("amount: %w", err)
	}

	rec := domain.TradeRecord{
		Timestamp: time.UnixMilli(ms),
		Symbol:    row[1],
		Side:      domain.Side(row[2]),
		Price:     price,
		Amount:    amount,
		Category:  domain.SizeCategory(row[5]),
	}
	if err := rec.Validate(); err != nil {
		return domain.TradeRecord{}, err
	}
	return rec, nil
}

// Compile-time interface check.
var _ domain.RecordStore = (*Store)(nil)
