package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamNameFor(t *testing.T) {
	assert.Equal(t, "btcusdt@trade", streamNameFor("BTC/USDT"))
	assert.Equal(t, "ethusdt@trade", streamNameFor("eth/usdt"))
}

func TestSubscribeAndNext(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{
			"e": "trade",
			"s": "BTCUSDT",
			"p": "101325.5",
			"q": "0.5",
			"T": 1748779200123,
			"m": true,
		}))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	src := NewSourceURL("ws" + strings.TrimPrefix(srv.URL, "http"))
	session, err := src.Subscribe(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	defer session.Close()

	assert.Equal(t, "/btcusdt@trade", gotPath)

	events, err := session.Next(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, int64(1748779200123), ev.TimestampMs)
	assert.Equal(t, "BTC/USDT", ev.Symbol)
	// Buyer was the maker, so the aggressing side was a sell.
	assert.Equal(t, "sell", ev.Side)
	assert.Equal(t, "101325.5", ev.Price)
	assert.Equal(t, "0.5", ev.Amount)
}

func TestNextSkipsNonTradeFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		require.NoError(t, conn.WriteJSON(map[string]any{"result": nil, "id": 1}))
		require.NoError(t, conn.WriteJSON(map[string]any{
			"e": "trade", "s": "BTCUSDT", "p": "10", "q": "1", "T": int64(1), "m": false,
		}))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	src := NewSourceURL("ws" + strings.TrimPrefix(srv.URL, "http"))
	session, err := src.Subscribe(context.Background(), "BTC/USDT")
	require.NoError(t, err)
	defer session.Close()

	events, err := session.Next(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "buy", events[0].Side)
}
