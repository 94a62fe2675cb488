// Package gateio implements the stream source boundary against the Gate.io
// spot WebSocket v4 API.
package gateio

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/tradewatch/internal/domain"
)

const (
	defaultWSURL = "wss://api.gateio.ws/ws/v4/"

	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// pongWait is the time allowed to read the next message from the peer
	// before the connection is considered dead.
	pongWait = 60 * time.Second

	// pingPeriod sends application-level pings at this interval. Must be
	// less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	handshakeTimeout = 15 * time.Second

	tradesChannel = "spot.trades"
)

// Source opens live trade subscriptions against Gate.io.
type Source struct {
	wsURL string
}

// NewSource creates a Source using the public Gate.io endpoint.
func NewSource() *Source {
	return &Source{wsURL: defaultWSURL}
}

// NewSourceURL creates a Source against a custom endpoint (tests).
func NewSourceURL(wsURL string) *Source {
	return &Source{wsURL: wsURL}
}

// Name returns the registry identifier.
func (s *Source) Name() string { return "gateio" }

// wsRequest is the client -> server subscription envelope.
type wsRequest struct {
	Time    int64    `json:"time"`
	Channel string   `json:"channel"`
	Event   string   `json:"event"`
	Payload []string `json:"payload,omitempty"`
}

// wsMessage is the server -> client envelope.
type wsMessage struct {
	Time    int64           `json:"time"`
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Error   *wsError        `json:"error"`
	Result  json.RawMessage `json:"result"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// tradeResult is one trade update on the spot.trades channel.
type tradeResult struct {
	ID           int64  `json:"id"`
	CreateTimeMs string `json:"create_time_ms"`
	Side         string `json:"side"`
	CurrencyPair string `json:"currency_pair"`
	Amount       string `json:"amount"`
	Price        string `json:"price"`
}

// Subscribe dials the WebSocket, subscribes to spot.trades for the pair, and
// returns a session delivering trade event batches.
func (s *Source) Subscribe(ctx context.Context, symbol string) (domain.StreamSession, error) {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}

	conn, _, err := dialer.DialContext(ctx, s.wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("gateio: connect: %w", err)
	}

	req := wsRequest{
		Time:    time.Now().Unix(),
		Channel: tradesChannel,
		Event:   "subscribe",
		Payload: []string{pairFor(symbol)},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("gateio: subscribe %s: %w", symbol, err)
	}

	sess := &session{
		conn:   conn,
		symbol: symbol,
		done:   make(chan struct{}),
	}
	go sess.pingLoop()
	return sess, nil
}

// pairFor converts a "BASE/QUOTE" symbol to Gate.io's "BASE_QUOTE" form.
func pairFor(symbol string) string {
	return strings.ToUpper(strings.ReplaceAll(symbol, "/", "_"))
}

// session is one live spot.trades subscription.
type session struct {
	conn   *websocket.Conn
	symbol string
	done   chan struct{}
}

// Next blocks until the next trade update arrives and returns it as a
// one-event batch (Gate.io delivers spot trades one per frame). Control
// frames and acks are consumed transparently.
func (s *session) Next(ctx context.Context) ([]domain.TradeEvent, error) {
	// Unblock the read when the caller goes away.
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("gateio: read: %w (%w)", err, domain.ErrStreamDisconnect)
		}

		if msg.Error != nil {
			return nil, fmt.Errorf("gateio: server error %d: %s (%w)",
				msg.Error.Code, msg.Error.Message, domain.ErrStreamDisconnect)
		}

		// Subscription acks and pongs carry no trades.
		if msg.Channel != tradesChannel || msg.Event != "update" {
			continue
		}

		var tr tradeResult
		if err := json.Unmarshal(msg.Result, &tr); err != nil {
			return nil, fmt.Errorf("gateio: decode trade: %w", err)
		}

		return []domain.TradeEvent{{
			TimestampMs: parseTimeMs(tr.CreateTimeMs, msg.Time),
			Symbol:      s.symbol,
			Side:        tr.Side,
			Price:       tr.Price,
			Amount:      tr.Amount,
		}}, nil
	}
}

// parseTimeMs parses Gate.io's "1234567890.123" millisecond string, falling
// back to the envelope's second-precision time.
func parseTimeMs(ms string, fallbackSec int64) int64 {
	if i := strings.IndexByte(ms, '.'); i >= 0 {
		ms = ms[:i]
	}
	if v, err := strconv.ParseInt(ms, 10, 64); err == nil && v > 0 {
		return v
	}
	return fallbackSec * 1000
}

// Close shuts the subscription down.
func (s *session) Close() error {
	select {
	case <-s.done:
		return nil
	default:
	}
	close(s.done)

	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = s.conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	return s.conn.Close()
}

// pingLoop sends application-level pings to keep the subscription alive.
// Gate.io expects spot.ping frames rather than protocol pings.
func (s *session) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			req := wsRequest{Time: time.Now().Unix(), Channel: "spot.ping"}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteJSON(req); err != nil {
				return
			}
		}
	}
}

// Compile-time interface checks.
var (
	_ domain.StreamSource  = (*Source)(nil)
	_ domain.StreamSession = (*session)(nil)
)
