package ws

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/cache/memory"
	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	kind, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, kind)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHubStreamsOpportunities(t *testing.T) {
	bus := memory.NewSignalBus()
	hub := NewHub(bus, slog.New(slog.NewTextHandler(io.Discard, nil)), Config{Mode: "server"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	status := readEnvelope(t, conn)
	assert.Equal(t, "status", status.Type)
	assert.Contains(t, string(status.Payload), `"mode":"server"`)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	evt := domain.OpportunityEvent{Pair: "BTC/USDT", Pct: 1.5, BuyExchange: "gate", SellExchange: "okx"}
	payload, err := json.Marshal(evt)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, domain.ChannelOpportunities, payload))

	got := readEnvelope(t, conn)
	assert.Equal(t, "event", got.Type)
	assert.Equal(t, domain.ChannelOpportunities, got.Channel)
	var decoded domain.OpportunityEvent
	require.NoError(t, json.Unmarshal(got.Payload, &decoded))
	assert.Equal(t, evt.Pair, decoded.Pair)
	assert.InDelta(t, 1.5, decoded.Pct, 1e-9)
}

func TestClientSubscriptions(t *testing.T) {
	c := &client{subs: map[string]bool{"opportunities": true}}
	c.applySubscription(subscribeMsg{Action: "unsubscribe", Channels: []string{"opportunities"}})
	assert.False(t, c.isSubscribed("opportunities"))
	c.applySubscription(subscribeMsg{Action: "subscribe", Channels: []string{"opportunities", "status"}})
	assert.True(t, c.isSubscribed("opportunities"))
	assert.True(t, c.isSubscribed("status"))
	c.applySubscription(subscribeMsg{Action: "noop", Channels: []string{"x"}})
	assert.False(t, c.isSubscribed("x"))
}
