package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chartink/internal/config"
	"github.com/example/chartink/internal/drawing"
	"github.com/example/chartink/internal/session"
)

// isolate points HOME, the working directory and the chartink environment at
// a fresh temp dir and returns the session database path.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	for _, k := range []string{config.EnvMarketDataURL, config.EnvAPIKey, config.EnvChatURL, config.EnvTheme, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	db := filepath.Join(dir, "sessions.db")
	t.Setenv(config.EnvDB, db)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return db
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := newRoot(&stdout, &stderr).Run(append([]string{"-log-level", "error", "-log-pretty=false"}, args...))
	return stdout.String(), err
}

func seedSession(t *testing.T, db string) session.Session {
	t.Helper()
	repo, err := session.Open(db, zerolog.Nop())
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()
	s, err := repo.CreateSession(ctx, "TEST", "1d")
	require.NoError(t, err)
	line := drawing.New(drawing.KindHorizontal, drawing.DefaultStyle(drawing.KindHorizontal), drawing.Point{Time: 0, Price: 101.5})
	line.ID = "line-1"
	require.NoError(t, repo.AddDrawing(ctx, s.ID, line))
	note := drawing.New(drawing.KindNote, drawing.DefaultStyle(drawing.KindNote), drawing.Point{Time: 86400, Price: 99})
	note.ID = "note-1"
	note.Text = "breakout\nwatch"
	require.NoError(t, repo.AddDrawing(ctx, s.ID, note))
	return s
}

func TestRootWithoutCommandShowsUsage(t *testing.T) {
	isolate(t)
	_, err := run(t)
	var uerr *UsageError
	require.True(t, errors.As(err, &uerr))
	assert.Contains(t, err.Error(), "Commands:")
	assert.Contains(t, err.Error(), "-theme")
}

func TestUnknownCommand(t *testing.T) {
	isolate(t)
	_, err := run(t, "paint")
	var uerr *UsageError
	assert.True(t, errors.As(err, &uerr))
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "chartink "))
}

func TestParseRenderValidation(t *testing.T) {
	r := newRoot(&bytes.Buffer{}, &bytes.Buffer{})
	r.config = config.New()

	tests := []struct {
		name   string
		format outputFormat
		args   []string
		want   string
	}{
		{"bad timeframe", formatPNG, []string{"-timeframe", "7x"}, "timeframe"},
		{"zero width", formatPNG, []string{"-width", "0"}, "invalid chart size"},
		{"wrong extension", formatPDF, []string{"-o", "chart.png"}, "must be a .pdf file"},
		{"extra argument", formatPNG, []string{"AAPL"}, "unexpected argument"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRenderCmd(tt.args, r, tt.format)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRenderWritesPNG(t *testing.T) {
	db := isolate(t)
	seedSession(t, db)
	out := filepath.Join(t.TempDir(), "chart.png")

	stdout, err := run(t, "render", "-offline", "-symbol", "TEST", "-timeframe", "1d", "-width", "320", "-height", "200", "-o", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "saved "+out)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("\x89PNG")))
}

func TestExportWritesPDF(t *testing.T) {
	db := isolate(t)
	s := seedSession(t, db)
	out := filepath.Join(t.TempDir(), "chart.pdf")

	_, err := run(t, "export", "-offline", "-session", s.ID, "-width", "320", "-height", "200", "-o", out)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))
}

func TestDrawingsListAndClear(t *testing.T) {
	db := isolate(t)
	s := seedSession(t, db)

	out, err := run(t, "drawings", "list")
	require.NoError(t, err)
	assert.Contains(t, out, s.ID)
	assert.Contains(t, out, "horizontal")
	assert.Contains(t, out, "breakout watch")

	out, err = run(t, "drawings", "list", "-json")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "note-1"`)

	out, err = run(t, "drawings", "clear", "-session", s.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "removed 2 drawings")

	out, err = run(t, "drawings", "list", "-session", s.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "no drawings")
}

func TestDrawingsUnknownSession(t *testing.T) {
	isolate(t)
	_, err := run(t, "drawings", "list", "-session", "missing")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestDrawingsRequiresAction(t *testing.T) {
	isolate(t)
	_, err := run(t, "drawings", "prune")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown action "prune"`)
}

func TestConfigPrintAndSave(t *testing.T) {
	isolate(t)

	out, err := run(t, "-theme", "light", "config", "print")
	require.NoError(t, err)
	assert.Contains(t, out, "theme = light")

	path := filepath.Join(t.TempDir(), "saved.rc")
	_, err = run(t, "-theme", "light", "config", "save", "-o", path)
	require.NoError(t, err)

	cfg, err := config.NewLoader("test", path).Load()
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Theme)
}
