package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/example/chartink/internal/chart"
	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/marketdata"
	"github.com/example/chartink/internal/session"
)

// chartFlags are the flags shared by commands that open a chart session.
type chartFlags struct {
	symbol    string
	timeframe string
	limit     int
	width     int
	height    int
	sessionID string
	newSess   bool
	offline   bool
}

func (c *chartFlags) register(fs *flag.FlagSet, r *root) {
	cc := r.config.Chart
	fs.StringVar(&c.symbol, "symbol", cc.Symbol, "ticker symbol")
	fs.StringVar(&c.timeframe, "timeframe", cc.Timeframe, "candle timeframe such as 15m, 1h or 1d")
	fs.IntVar(&c.limit, "limit", cc.Limit, "number of candles to load")
	fs.IntVar(&c.width, "width", cc.Width, "chart width in pixels")
	fs.IntVar(&c.height, "height", cc.Height, "chart height in pixels")
	fs.StringVar(&c.sessionID, "session", "", "session id to open (default: latest for the symbol)")
	fs.BoolVar(&c.newSess, "new", false, "start a new session instead of resuming the latest")
	fs.BoolVar(&c.offline, "offline", false, "skip the market data service and use sample candles")
}

func (c *chartFlags) validate() error {
	if c.width <= 0 || c.height <= 0 {
		return fmt.Errorf("invalid chart size %dx%d", c.width, c.height)
	}
	if c.limit <= 0 {
		return fmt.Errorf("invalid candle limit %d", c.limit)
	}
	if _, err := marketdata.ParseTimeframe(c.timeframe); err != nil {
		return err
	}
	return nil
}

// workspace is an opened session with its candles and drawings loaded.
type workspace struct {
	repo     *session.Repository
	session  session.Session
	viewport *chart.Viewport
	store    *drawing.Store
	data     marketdata.Result
}

func (w *workspace) Close() error { return w.repo.Close() }

func (r *root) openRepository() (*session.Repository, error) {
	repo, err := session.Open(r.config.DBPath(), r.log)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	return repo, nil
}

func (r *root) fetcher() marketdata.Fetcher {
	md := r.config.MarketData
	if md.BaseURL == "" {
		return nil
	}
	return marketdata.NewClient(md.BaseURL,
		marketdata.WithAPIKey(md.APIKey),
		marketdata.WithLogger(r.log),
	)
}

// resolveSession picks the session named by -session, else the latest one for
// the symbol and timeframe, creating one when none exists.
func resolveSession(ctx context.Context, repo *session.Repository, c *chartFlags) (session.Session, error) {
	if c.sessionID != "" {
		return repo.GetSession(ctx, c.sessionID)
	}
	if !c.newSess {
		s, err := repo.LatestSession(ctx, c.symbol, c.timeframe)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, session.ErrSessionNotFound) {
			return session.Session{}, err
		}
	}
	return repo.CreateSession(ctx, c.symbol, c.timeframe)
}

func (r *root) openWorkspace(ctx context.Context, c *chartFlags) (*workspace, error) {
	repo, err := r.openRepository()
	if err != nil {
		return nil, err
	}
	ws, err := r.loadWorkspace(ctx, repo, c)
	if err != nil {
		repo.Close()
		return nil, err
	}
	return ws, nil
}

func (r *root) loadWorkspace(ctx context.Context, repo *session.Repository, c *chartFlags) (*workspace, error) {
	sess, err := resolveSession(ctx, repo, c)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	items, err := repo.Drawings(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load drawings: %w", err)
	}
	store := drawing.NewStore()
	if err := store.Load(items); err != nil {
		return nil, fmt.Errorf("load drawings: %w", err)
	}

	var f marketdata.Fetcher
	if !c.offline {
		f = r.fetcher()
	}
	timeout := r.config.MarketData.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	fctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	req := marketdata.Request{Symbol: sess.Symbol, Timeframe: sess.Timeframe, Limit: c.limit}
	data := marketdata.Load(fctx, f, req, time.Now(), r.log)
	if data.Fallback && f != nil {
		r.notifier.Fallback(data.Warning)
	}

	v := chart.NewViewport(c.width, c.height, chart.WithTheme(r.activeTheme))
	v.SetCandles(data.Candles)

	r.log.Info().
		Str("session", sess.ID).
		Str("symbol", sess.Symbol).
		Str("timeframe", sess.Timeframe).
		Int("drawings", len(items)).
		Bool("fallback", data.Fallback).
		Msg("session opened")

	return &workspace{repo: repo, session: sess, viewport: v, store: store, data: data}, nil
}
