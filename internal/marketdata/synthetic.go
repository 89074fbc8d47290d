package marketdata

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// maxStep bounds the close-to-close move of a synthetic bar.
const maxStep = 0.03

// Synthetic generates limit candles ending at the bar containing now. The
// series is seeded by the date of now and the symbol, so every call on the
// same day yields the same bars. It is mock data, nothing more.
func Synthetic(symbol, timeframe string, limit int, now time.Time) []Candle {
	d, err := ParseTimeframe(timeframe)
	if err != nil {
		d = 24 * time.Hour
	}
	if limit <= 0 {
		limit = 100
	}
	now = now.UTC()
	seed := int64(now.Year()*10000 + int(now.Month())*100 + now.Day())
	h := fnv.New32a()
	_, _ = h.Write([]byte(symbol))
	seed = seed*31 + int64(h.Sum32())
	rng := rand.New(rand.NewSource(seed))

	last := Bucket(now, d)
	price := 50 + float64(h.Sum32()%450)
	out := make([]Candle, limit)
	for i := 0; i < limit; i++ {
		open := price
		change := (rng.Float64()*2 - 1) * maxStep
		closePrice := open * (1 + change)
		hi := math.Max(open, closePrice) * (1 + rng.Float64()*maxStep/3)
		lo := math.Min(open, closePrice) * (1 - rng.Float64()*maxStep/3)
		t := last.Add(-time.Duration(limit-1-i) * d)
		out[i] = Candle{
			Time:   t.Unix(),
			Open:   round2(open),
			High:   round2(hi),
			Low:    round2(lo),
			Close:  round2(closePrice),
			Volume: math.Round(1000 + rng.Float64()*9000),
		}
		price = closePrice
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Result is the outcome of Load.
type Result struct {
	Candles  []Candle
	Fallback bool
	// Warning is a user facing message set when Fallback is true.
	Warning string
}

// Load fetches candles once and falls back to Synthetic on any failure. It
// never returns an error.
func Load(ctx context.Context, f Fetcher, req Request, now time.Time, log zerolog.Logger) Result {
	if f != nil {
		candles, err := f.Fetch(ctx, req)
		if err == nil && len(candles) > 0 {
			return Result{Candles: candles}
		}
		if err == nil {
			err = fmt.Errorf("no candles returned")
		}
		log.Warn().Err(err).Str("symbol", req.Symbol).Msg("market data unavailable, using synthetic candles")
	}
	return Result{
		Candles:  Synthetic(req.Symbol, req.Timeframe, req.Limit, now),
		Fallback: true,
		Warning:  fmt.Sprintf("live data for %s unavailable, showing sample data", req.Symbol),
	}
}
