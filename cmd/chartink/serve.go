package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/chartink/internal/server"
)

type serveCmd struct {
	*root
	fs      *flag.FlagSet
	addr    string
	offline bool
}

func (s *serveCmd) Program() string        { return s.fs.Name() }
func (s *serveCmd) FlagSet() *flag.FlagSet { return s.fs }
func (s *serveCmd) Template() string       { return "serve.txt" }

func parseServeCmd(args []string, r *root) (*serveCmd, error) {
	s := &serveCmd{root: r, fs: r.newFlagSet("serve")}
	s.fs.StringVar(&s.addr, "addr", r.config.Server.Addr, "listen address")
	s.fs.BoolVar(&s.offline, "offline", false, "render charts from sample candles only")
	s.fs.Usage = usageFunc(s)
	if err := s.fs.Parse(args); err != nil {
		return nil, err
	}
	if s.fs.NArg() > 0 {
		return nil, &UsageError{of: s, msg: fmt.Sprintf("unexpected argument %q", s.fs.Arg(0))}
	}
	return s, nil
}

func (s *serveCmd) Run() error {
	repo, err := s.openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	cfg := server.Config{
		Addr:     s.addr,
		Log:      s.log,
		Sessions: repo,
		Theme:    s.activeTheme,
		Width:    s.config.Chart.Width,
		Height:   s.config.Chart.Height,
		Limit:    s.config.Chart.Limit,
	}
	if !s.offline {
		cfg.Fetcher = s.fetcher()
	}
	srv := server.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
