package marketdata

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"1m", time.Minute, false},
		{"15m", 15 * time.Minute, false},
		{"4h", 4 * time.Hour, false},
		{"1D", 24 * time.Hour, false},
		{"1w", 7 * 24 * time.Hour, false},
		{"m", 0, true},
		{"0h", 0, true},
		{"3y", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseTimeframe(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseCandlesArrayAndObject(t *testing.T) {
	arr := `[{"time":1700000000,"open":1,"high":2,"low":0.5,"close":1.5,"volume":10},
	         {"time":1700000060000,"open":1.5,"high":2,"low":1,"close":1.8,"volume":3}]`
	got, err := ParseCandles([]byte(arr))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1700000060), got[1].Time)
	assert.Equal(t, 1.8, got[1].Close)

	obj := `{"candles":[{"time":"2024-01-02","open":1,"high":2,"low":1,"close":2,"volume":1}]}`
	got, err = ParseCandles([]byte(obj))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).Unix(), got[0].Time)
}

func TestParseCandlesRejectsBadInput(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"data":[]}`,
		`[{"open":1}]`,
		`[{"time":1,"open":1,"high":2,"low":1}]`,
		`[{"time":1,"open":"abc","high":2,"low":1,"close":1}]`,
		`[{"time":1,"open":1,"high":true,"low":1,"close":1}]`,
		`[{"time":1,"open":1,"high":2,"low":1,"close":1,"volume":null}]`,
		`[{"time":2,"open":1,"high":1,"low":2,"close":1}]`,
		`[{"time":2,"open":1,"high":2,"low":1,"close":1},{"time":1,"open":1,"high":2,"low":1,"close":1}]`,
	} {
		_, err := ParseCandles([]byte(body))
		assert.Error(t, err, body)
	}
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/candles", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "1d", r.URL.Query().Get("timeframe"))
		assert.Equal(t, "2", r.URL.Query().Get("limit"))
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		_, _ = w.Write([]byte(`[{"time":1,"open":1,"high":2,"low":1,"close":2,"volume":1},{"time":2,"open":2,"high":3,"low":2,"close":3,"volume":1}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", WithAPIKey("secret"))
	got, err := c.Fetch(context.Background(), Request{Symbol: "AAPL", Timeframe: "1d", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestParseCandlesNumericStringsAndOptionalVolume(t *testing.T) {
	got, err := ParseCandles([]byte(`[{"time":1,"open":"1.5","high":2,"low":1,"close":"1.75"}]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, Candle{Time: 1, Open: 1.5, High: 2, Low: 1, Close: 1.75}, got[0])
}

func TestLoadFallsBackOnMalformedCandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"time":1,"open":1,"high":2,"low":1}]`))
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	res := Load(context.Background(), NewClient(srv.URL), Request{Symbol: "X", Timeframe: "1d", Limit: 5}, now, zerolog.Nop())
	assert.True(t, res.Fallback)
	assert.Len(t, res.Candles, 5)
}

func TestClientFetchRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte(" "), maxResponseBytes+1))
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL).Fetch(context.Background(), Request{Symbol: "X", Timeframe: "1d"})
	assert.ErrorContains(t, err, "larger than")
}

func TestClientFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := NewClient(srv.URL).Fetch(context.Background(), Request{Symbol: "X", Timeframe: "1d"})
	assert.ErrorContains(t, err, "502")
}

func TestSyntheticIsDeterministicPerDay(t *testing.T) {
	day := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	a := Synthetic("BTC", "1h", 50, day)
	b := Synthetic("BTC", "1h", 50, day.Add(time.Hour))
	require.Len(t, a, 50)
	assert.Equal(t, a[0].Open, b[0].Open)

	for i, c := range a {
		assert.LessOrEqual(t, c.Low, c.Open)
		assert.LessOrEqual(t, c.Low, c.Close)
		assert.GreaterOrEqual(t, c.High, c.Open)
		assert.GreaterOrEqual(t, c.High, c.Close)
		if i > 0 {
			assert.Equal(t, int64(3600), c.Time-a[i-1].Time)
			step := (c.Close - c.Open) / c.Open
			assert.InDelta(t, 0, step, maxStep+0.001)
		}
	}
	assert.Equal(t, Bucket(day, time.Hour).Unix(), a[len(a)-1].Time)
}

type fetchFunc func(context.Context, Request) ([]Candle, error)

func (f fetchFunc) Fetch(ctx context.Context, r Request) ([]Candle, error) { return f(ctx, r) }

func TestLoadFallsBack(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	req := Request{Symbol: "ETH", Timeframe: "1d", Limit: 10}

	res := Load(context.Background(), fetchFunc(func(context.Context, Request) ([]Candle, error) {
		return nil, errors.New("down")
	}), req, now, zerolog.Nop())
	assert.True(t, res.Fallback)
	assert.Contains(t, res.Warning, "ETH")
	assert.Len(t, res.Candles, 10)

	live := []Candle{{Time: 1, Open: 1, High: 1, Low: 1, Close: 1}}
	res = Load(context.Background(), fetchFunc(func(context.Context, Request) ([]Candle, error) {
		return live, nil
	}), req, now, zerolog.Nop())
	assert.False(t, res.Fallback)
	assert.Equal(t, live, res.Candles)

	res = Load(context.Background(), nil, req, now, zerolog.Nop())
	assert.True(t, res.Fallback)
}
