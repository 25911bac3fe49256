package exchange

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/spreadbot/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// venueServer serves canned book-ticker responses for every venue and
// records the symbol each one was asked for.
func venueServer(t *testing.T) (*httptest.Server, func(path string) string) {
	t.Helper()
	var mu sync.Mutex
	seen := make(map[string]string)
	mux := http.NewServeMux()
	handle := func(path, param, body string) {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			seen[path] = r.URL.Query().Get(param)
			mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, body)
		})
	}
	handle("/api/v3/ticker/bookTicker", "symbol", `{"symbol":"BTCUSDT","bidPrice":"100.5","askPrice":"100.6"}`)
	handle("/api/spot/v1/market/bestBidAsk", "symbol", `{"code":"00000","data":[{"bestBid":"101","bestAsk":"101.2"}]}`)
	handle("/market/detail/merged", "symbol", `{"status":"ok","tick":{"bid":[99.9,1.5],"ask":[100.1,2]}}`)
	handle("/api/v1/market/orderbook/level1", "symbol", `{"code":"200000","data":{"bestBid":"100.2","bestAsk":"100.3"}}`)
	handle("/v5/market/tickers", "symbol", `{"retCode":0,"result":{"list":[{"bid1Price":"100.4","ask1Price":"100.7"}]}}`)
	handle("/api/v5/market/ticker", "instId", `{"code":"0","data":[{"bidPx":"100.8","askPx":"100.9"}]}`)
	handle("/api/v4/spot/tickers", "currency_pair", `[{"currency_pair":"BTC_USDT","highest_bid":"100.1","lowest_ask":"100.2"}]`)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, func(path string) string {
		mu.Lock()
		defer mu.Unlock()
		return seen[path]
	}
}

func allAt(url string) map[string]string {
	out := make(map[string]string, len(DefaultNames))
	for _, n := range DefaultNames {
		out[n] = url
	}
	return out
}

func TestAdaptersParseQuotes(t *testing.T) {
	srv, _ := venueServer(t)
	adapters, err := New(Config{Timeout: time.Second, BaseURLs: allAt(srv.URL)}, discardLogger())
	require.NoError(t, err)
	require.Len(t, adapters, len(DefaultNames))

	want := map[string][2]float64{
		"binance": {100.5, 100.6},
		"mexc":    {100.5, 100.6},
		"bitget":  {101, 101.2},
		"htx":     {99.9, 100.1},
		"kucoin":  {100.2, 100.3},
		"bybit":   {100.4, 100.7},
		"okx":     {100.8, 100.9},
		"gate":    {100.1, 100.2},
	}
	pair := domain.MustPair("BTC")
	for _, a := range adapters {
		q, ok := a.Quote(context.Background(), pair)
		require.True(t, ok, a.Name())
		assert.Equal(t, a.Name(), q.Exchange)
		assert.Equal(t, a.Label(), q.Label)
		assert.InDelta(t, want[a.Name()][0], q.Bid, 1e-9, a.Name())
		assert.InDelta(t, want[a.Name()][1], q.Ask, 1e-9, a.Name())
	}
}

func TestAdapterSymbols(t *testing.T) {
	srv, seen := venueServer(t)
	adapters, err := New(Config{Timeout: time.Second, BaseURLs: allAt(srv.URL)}, discardLogger())
	require.NoError(t, err)
	for _, a := range adapters {
		a.Quote(context.Background(), domain.MustPair("BTC"))
	}

	assert.Equal(t, "BTCUSDT", seen("/api/v3/ticker/bookTicker"))
	assert.Equal(t, "BTCUSDT", seen("/api/spot/v1/market/bestBidAsk"))
	assert.Equal(t, "BTCUSDT", seen("/v5/market/tickers"))
	assert.Equal(t, "btcusdt", seen("/market/detail/merged"))
	assert.Equal(t, "BTC-USDT", seen("/api/v1/market/orderbook/level1"))
	assert.Equal(t, "BTC-USDT", seen("/api/v5/market/ticker"))
	assert.Equal(t, "BTC_USDT", seen("/api/v4/spot/tickers"))
}

func TestAdapterAbsentOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non-2xx", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"code":-1121,"msg":"Invalid symbol."}`, http.StatusBadRequest)
		}},
		{"malformed", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"bidPrice":`)
		}},
		{"missing field", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"symbol":"BTCUSDT"}`)
		}},
		{"non-numeric", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"bidPrice":"abc","askPrice":"1"}`)
		}},
		{"negative", func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"bidPrice":"-1","askPrice":"1"}`)
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			adapters, err := New(Config{
				Enabled:  []string{"binance"},
				Timeout:  100 * time.Millisecond,
				BaseURLs: map[string]string{"binance": srv.URL},
			}, discardLogger())
			require.NoError(t, err)

			_, ok := adapters[0].Quote(context.Background(), domain.MustPair("BTC"))
			assert.False(t, ok)
		})
	}
}

func TestAdapterNetworkFault(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	adapters, err := New(Config{Enabled: []string{"okx"}, Timeout: time.Second, BaseURLs: map[string]string{"okx": url}}, discardLogger())
	require.NoError(t, err)
	_, ok := adapters[0].Quote(context.Background(), domain.MustPair("ETH"))
	assert.False(t, ok)
}

func TestNewRejectsUnknownAndDuplicate(t *testing.T) {
	_, err := New(Config{Enabled: []string{"binance", "nasdaq"}}, discardLogger())
	require.Error(t, err)

	_, err = New(Config{Enabled: []string{"okx", "OKX"}}, discardLogger())
	require.Error(t, err)

	adapters, err := New(Config{Enabled: []string{" Gate ", "binance"}}, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, "gate", adapters[0].Name())
	assert.Equal(t, "binance", adapters[1].Name())
	assert.True(t, Known("HTX"))
	assert.False(t, Known("ftx"))
}

func TestNumberDecoding(t *testing.T) {
	var r struct {
		A number `json:"a"`
		B number `json:"b"`
		C number `json:"c"`
		D number `json:"d"`
	}
	require.NoError(t, jsonUnmarshal(`{"a":"1.25","b":2.5,"c":null,"d":""}`, &r))
	assert.Equal(t, number(1.25), r.A)
	assert.Equal(t, number(2.5), r.B)
	assert.Equal(t, number(0), r.C)
	assert.Equal(t, number(0), r.D)
}
