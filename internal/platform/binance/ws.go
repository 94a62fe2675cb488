// Package binance implements the stream source boundary against the Binance
// spot trade stream.
package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

const (
	defaultStreamBase = "wss://stream.binance.com:9443/ws"

	writeWait        = 10 * time.Second
	readWait         = 3 * time.Minute // Binance pings roughly every 3 minutes
	handshakeTimeout = 15 * time.Second
	maxMessageSize   = 1 << 20
)

// Source opens live trade subscriptions against Binance spot.
type Source struct {
	streamBase string
}

// NewSource creates a Source using the public Binance endpoint.
func NewSource() *Source {
	return &Source{streamBase: defaultStreamBase}
}

// NewSourceURL creates a Source against a custom endpoint (tests).
func NewSourceURL(base string) *Source {
	return &Source{streamBase: base}
}

// Name returns the registry identifier.
func (s *Source) Name() string { return "binance" }

// tradeEvent mirrors the Binance <symbol>@trade payload.
type tradeEvent struct {
	EventType    string `json:"e"`
	Symbol       string `json:"s"`
	Price        string `json:"p"`
	Qty          string `json:"q"`
	TradeTime    int64  `json:"T"`
	IsBuyerMaker bool   `json:"m"`
}

// Subscribe dials the raw <symbol>@trade stream and returns a session
// delivering trade event batches.
func (s *Source) Subscribe(ctx context.Context, symbol string) (domain.StreamSession, error) {
	stream := streamNameFor(symbol)
	url := strings.TrimRight(s.streamBase, "/") + "/" + stream

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: connect %s: %w", stream, err)
	}

	conn.SetReadLimit(maxMessageSize)
	// The default ping handler answers server pings with pongs while a read
	// is pending, which is all Binance requires for keep-alive.

	return &session{conn: conn, symbol: symbol}, nil
}

// streamNameFor converts "BASE/QUOTE" into the lowercase raw-stream name,
// e.g. "BTC/USDT" -> "btcusdt@trade".
func streamNameFor(symbol string) string {
	return strings.ToLower(strings.ReplaceAll(symbol, "/", "")) + "@trade"
}

// session is one live trade stream connection.
type session struct {
	conn   *websocket.Conn
	symbol string
	closed bool
}

// Next blocks until the next trade frame arrives and returns it as a
// one-event batch. The taker side is derived from the buyer-is-maker flag:
// when the buyer was the maker, the aggressing side was a sell.
func (s *session) Next(ctx context.Context) ([]domain.TradeEvent, error) {
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		s.conn.SetReadDeadline(time.Now().Add(readWait))

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("binance: read: %w (%w)", err, domain.ErrStreamDisconnect)
		}

		var te tradeEvent
		if err := json.Unmarshal(data, &te); err != nil {
			return nil, fmt.Errorf("binance: decode trade: %w", err)
		}
		if te.EventType != "trade" {
			continue
		}

		side := "buy"
		if te.IsBuyerMaker {
			side = "sell"
		}

		return []domain.TradeEvent{{
			TimestampMs: te.TradeTime,
			Symbol:      s.symbol,
			Side:        side,
			Price:       te.Price,
			Amount:      te.Qty,
		}}, nil
	}
}

// Close shuts the subscription down.
func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return s.conn.Close()
}

// Compile-time interface checks.
var (
	_ domain.StreamSource  = (*Source)(nil)
	_ domain.StreamSession = (*session)(nil)
)
