package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

// normalizeEvent validates a raw stream event and converts it into a
// persistable record: required fields present, price/amount numeric and
// positive, side known, and the size category computed from the amount.
func normalizeEvent(ev domain.TradeEvent, symbol string) (domain.TradeRecord, error) {
	if ev.TimestampMs <= 0 {
		return domain.TradeRecord{}, fmt.Errorf("timestamp %d: %w", ev.TimestampMs, domain.ErrMalformedEvent)
	}

	side := domain.Side(strings.ToLower(strings.TrimSpace(ev.Side)))
	if !side.Valid() {
		return domain.TradeRecord{}, fmt.Errorf("side %q: %w", ev.Side, domain.ErrMalformedEvent)
	}

	price, err := strconv.ParseFloat(ev.Price, 64)
	if err != nil || price <= 0 {
		return domain.TradeRecord{}, fmt.Errorf("price %q: %w", ev.Price, domain.ErrMalformedEvent)
	}

	amount, err := strconv.ParseFloat(ev.Amount, 64)
	if err != nil || amount <= 0 {
		return domain.TradeRecord{}, fmt.Errorf("amount %q: %w", ev.Amount, domain.ErrMalformedEvent)
	}

	return domain.TradeRecord{
		Timestamp: time.UnixMilli(ev.TimestampMs),
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Amount:    amount,
		Category:  domain.Categorize(amount),
	}, nil
}
