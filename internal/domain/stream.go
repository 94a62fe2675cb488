package domain

import "context"

// TradeEvent is a raw event as received from an exchange feed, before
// validation and normalization. Price and Amount stay strings until the
// ingestor parses them, since exchanges deliver decimals as JSON strings.
type TradeEvent struct {
	TimestampMs int64
	Symbol      string
	Side        string
	Price       string
	Amount      string
}

// StreamSession is ephemeral ownership of one live subscription. It is owned
// exclusively by the ingestor and rebuilt from scratch on every reconnect.
type StreamSession interface {
	// Next blocks until the next batch of trade events arrives. It returns a
	// transport error (wrapping ErrStreamDisconnect where detectable) when
	// the subscription is lost; the session is unusable afterwards.
	Next(ctx context.Context) ([]TradeEvent, error)

	// Close tears the subscription down. Safe to call after a Next error.
	Close() error
}

// StreamSource opens live trade subscriptions against one exchange.
type StreamSource interface {
	// Name returns the registry identifier of the exchange ("gateio", ...).
	Name() string

	// Subscribe opens a new session for the given trading pair.
	Subscribe(ctx context.Context, symbol string) (StreamSession, error)
}
