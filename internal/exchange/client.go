package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// maxBodySize caps ticker responses; book tickers are a few hundred bytes.
const maxBodySize = 1 << 20

// httpClient issues rate-limited GET requests.
type httpClient struct {
	http    *http.Client
	limiter *rate.Limiter
}

func newHTTPClient(timeout time.Duration, limiter *rate.Limiter) *httpClient {
	return &httpClient{
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
	}
}

// get performs a GET and returns the body of a 2xx response.
func (c *httpClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(body) > 200 {
			body = body[:200]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// number decodes a JSON number or a numeric string. Exchanges disagree on
// which one they send for prices.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse number %q: %w", s, err)
		}
		*n = number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = number(f)
	return nil
}

// prices returns the two prices, failing when either is missing.
func prices(bid, ask number) (float64, float64, error) {
	if bid == 0 || ask == 0 {
		return 0, 0, errMissingField
	}
	return float64(bid), float64(ask), nil
}

func symbolParam(key string) func(string) url.Values {
	return func(symbol string) url.Values {
		return url.Values{key: []string{symbol}}
	}
}
