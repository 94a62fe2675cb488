// Package domain defines the core types shared across the tradewatch
// pipeline: trade records, analysis snapshots, the stream source boundary,
// and the persistence contracts their implementations must satisfy.
package domain

import "time"

// Side is the taker direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// SizeCategory buckets a trade by its base-asset amount.
type SizeCategory string

const (
	CategorySmall  SizeCategory = "small"
	CategoryMedium SizeCategory = "medium"
	CategoryLarge  SizeCategory = "large"
)

// Size-bucket boundaries. These match the thresholds the reports have always
// used; changing them silently changes which trades count as large.
const (
	smallMax  = 100
	mediumMax = 1000
)

// Categorize returns the size bucket for a trade amount: amounts below 100
// are small, below 1000 medium, everything else large.
func Categorize(amount float64) SizeCategory {
	switch {
	case amount < smallMax:
		return CategorySmall
	case amount < mediumMax:
		return CategoryMedium
	default:
		return CategoryLarge
	}
}

// TradeRecord is one observed executed trade for the tracked symbol. Records
// are immutable once persisted; their identity is ordinal position plus
// timestamp.
type TradeRecord struct {
	Timestamp time.Time
	Symbol    string
	Side      Side
	Price     float64
	Amount    float64
	Category  SizeCategory
}

// Notional is the cash value of the trade (price times amount). It is derived
// at analysis time and never stored, so it cannot drift from its inputs.
func (r TradeRecord) Notional() float64 {
	return r.Price * r.Amount
}

// Validate checks the invariants every persisted record must hold.
func (r TradeRecord) Validate() error {
	if r.Timestamp.IsZero() {
		return ErrMalformedEvent
	}
	if !r.Side.Valid() {
		return ErrMalformedEvent
	}
	if r.Price <= 0 || r.Amount <= 0 {
		return ErrMalformedEvent
	}
	switch r.Category {
	case CategorySmall, CategoryMedium, CategoryLarge:
	default:
		return ErrMalformedEvent
	}
	return nil
}
