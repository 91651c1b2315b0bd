package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quantumtrade/tradebot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T, origins []string) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(origins, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestHub_BroadcastReachesClients(t *testing.T) {
	hub, srv := startHub(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	hub.Broadcast(core.Trade{ID: "t-1", Symbol: "AAPL", Signal: core.SignalBuy, Price: 133})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "trade", msg.Type)
	assert.Equal(t, "AAPL", msg.Data.Symbol)
	assert.Equal(t, core.SignalBuy, msg.Data.Signal)
}

func TestHub_UnregistersOnClose(t *testing.T) {
	hub, srv := startHub(t, nil)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub(nil, nil)
	// No Run loop: the queue absorbs records without blocking.
	for i := 0; i < sendBuffer+10; i++ {
		hub.Broadcast(core.Trade{Symbol: "BTC", Signal: core.SignalSell})
	}
	assert.Equal(t, 0, hub.Clients())
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest("GET", "http://bot.example.com/ws/signals", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	sameHost := originChecker(nil)
	assert.True(t, sameHost(req("")))
	assert.True(t, sameHost(req("http://bot.example.com")))
	assert.False(t, sameHost(req("http://evil.example.com")))

	listed := originChecker([]string{"http://localhost:5173"})
	assert.True(t, listed(req("http://localhost:5173")))
	assert.False(t, listed(req("http://bot.example.com")))

	wildcard := originChecker([]string{"*"})
	assert.True(t, wildcard(req("http://anything.test")))
}
