package marketdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/valyala/fastjson"
)

// maxResponseBytes caps a candle response body.
const maxResponseBytes = 8 << 20

// Fetcher loads candles for a request.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]Candle, error)
}

// Client fetches candles from a REST endpoint of the form
// GET {base}/candles?symbol=&timeframe=&limit=.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	log     zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }

// WithAPIKey sets the key sent in the X-API-Key header.
func WithAPIKey(key string) ClientOption { return func(c *Client) { c.apiKey = key } }

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l.With().Str("component", "marketdata").Logger() }
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Fetch performs a single request. There is no retry.
func (c *Client) Fetch(ctx context.Context, req Request) ([]Candle, error) {
	if c.baseURL == "" {
		return nil, errors.New("market data url not configured")
	}
	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("timeframe", req.Timeframe)
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	u := c.baseURL + "/candles?" + q.Encode()
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		hreq.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch candles: unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read candles: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("read candles: response larger than %d bytes", maxResponseBytes)
	}
	candles, err := ParseCandles(body)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("symbol", req.Symbol).Int("candles", len(candles)).Msg("fetched candles")
	return candles, nil
}

// ParseCandles decodes either a bare JSON array of candles or an object with a
// "candles" array. Times may be epoch seconds, epoch milliseconds or a
// YYYY-MM-DD date.
func ParseCandles(body []byte) ([]Candle, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("parse candles: %w", err)
	}
	if v.Type() == fastjson.TypeObject {
		v = v.Get("candles")
		if v == nil {
			return nil, errors.New("parse candles: missing candles field")
		}
	}
	arr, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("parse candles: %w", err)
	}
	out := make([]Candle, 0, len(arr))
	for i, item := range arr {
		ts, err := parseTime(item.Get("time"))
		if err != nil {
			return nil, fmt.Errorf("candle %d: %w", i, err)
		}
		c := Candle{Time: ts}
		for _, f := range []struct {
			name     string
			dst      *float64
			optional bool
		}{
			{"open", &c.Open, false},
			{"high", &c.High, false},
			{"low", &c.Low, false},
			{"close", &c.Close, false},
			{"volume", &c.Volume, true},
		} {
			if *f.dst, err = numberField(item, f.name, f.optional); err != nil {
				return nil, fmt.Errorf("candle %d: %w", i, err)
			}
		}
		if c.High < c.Low {
			return nil, fmt.Errorf("candle %d: high %v below low %v", i, c.High, c.Low)
		}
		out = append(out, c)
	}
	for i := 1; i < len(out); i++ {
		if out[i].Time <= out[i-1].Time {
			return nil, fmt.Errorf("candle %d: times not ascending", i)
		}
	}
	return out, nil
}

// numberField reads a numeric field. Numbers sent as strings are accepted.
func numberField(item *fastjson.Value, name string, optional bool) (float64, error) {
	v := item.Get(name)
	if v == nil {
		if optional {
			return 0, nil
		}
		return 0, fmt.Errorf("missing %s", name)
	}
	switch v.Type() {
	case fastjson.TypeNumber:
		return v.Float64()
	case fastjson.TypeString:
		n, err := strconv.ParseFloat(string(v.GetStringBytes()), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s %s", name, v.String())
		}
		return n, nil
	}
	return 0, fmt.Errorf("invalid %s %s", name, v.String())
}

func parseTime(v *fastjson.Value) (int64, error) {
	if v == nil {
		return 0, errors.New("missing time")
	}
	switch v.Type() {
	case fastjson.TypeNumber:
		n := v.GetInt64()
		if n > 1e12 {
			n /= 1000
		}
		return n, nil
	case fastjson.TypeString:
		s := string(v.GetStringBytes())
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		return d.Unix(), nil
	}
	return 0, fmt.Errorf("invalid time %s", v.String())
}
