// Package marketdata supplies OHLC candles to the chart, from a REST endpoint
// or from a deterministic synthetic generator when the endpoint fails.
package marketdata

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Candle is one OHLCV bar. Time is the bar open in seconds since the epoch.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Request identifies the series to load.
type Request struct {
	Symbol    string
	Timeframe string
	Limit     int
}

// ParseTimeframe converts strings such as "1m", "15m", "4h", "1d" or "1w" into
// a bar duration.
func ParseTimeframe(tf string) (time.Duration, error) {
	tf = strings.ToLower(strings.TrimSpace(tf))
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	n, err := strconv.Atoi(tf[:len(tf)-1])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	var unit time.Duration
	switch tf[len(tf)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	return time.Duration(n) * unit, nil
}

// Intraday reports whether bars of duration d are shorter than a day.
func Intraday(d time.Duration) bool { return d < 24*time.Hour }

// Bucket truncates t to the start of its bar. Daily and longer bars start at
// midnight UTC.
func Bucket(t time.Time, d time.Duration) time.Time {
	t = t.UTC()
	if Intraday(d) {
		return t.Truncate(d)
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if d == 24*time.Hour {
		return day
	}
	return day.Truncate(d)
}
