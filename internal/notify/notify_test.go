package notify

import (
	"bytes"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/chartink/internal/config"
	"github.com/example/chartink/internal/platform"
)

type sent struct {
	title, body string
	opts        platform.Options
}

func capture(calls *[]sent) Sender {
	return func(title, body string, opts platform.Options) error {
		*calls = append(*calls, sent{title, body, opts})
		return nil
	}
}

func TestDisabledEventsAreSilent(t *testing.T) {
	var calls []sent
	n := New(DefaultPreferences(), config.Notify{}, WithSender(capture(&calls)))
	n.Save("chart.png")
	n.Copy("", nil)
	n.Fallback("market data unavailable")
	assert.Empty(t, calls)

	var nilNotifier *Notifier
	assert.NotPanics(t, func() { nilNotifier.Fallback("x") })
}

func TestSaveUsesAbsolutePathAndPNGIcon(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("png"), 0o600))

	var calls []sent
	n := New(DefaultPreferences(), config.Notify{Save: true}, WithSender(capture(&calls)))
	n.Save(path)
	n.Save(filepath.Join(dir, "chart.pdf"))

	require.Len(t, calls, 2)
	assert.Equal(t, "chartink", calls[0].title)
	assert.Equal(t, "Saved "+path, calls[0].body)
	assert.Equal(t, path, calls[0].opts.IconPath)
	assert.Empty(t, calls[1].opts.IconPath)
}

func TestCopyPreviewIsRemoved(t *testing.T) {
	var calls []sent
	n := New(DefaultPreferences(), config.Notify{Copy: true}, WithSender(capture(&calls)))
	n.Copy("", image.NewRGBA(image.Rect(0, 0, 4, 4)))

	require.Len(t, calls, 1)
	assert.Equal(t, "Copied chart to clipboard", calls[0].body)
	require.NotEmpty(t, calls[0].opts.IconPath)
	_, err := os.Stat(calls[0].opts.IconPath)
	assert.True(t, os.IsNotExist(err))
}

func TestFallbackFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	n := New(DefaultPreferences(), config.Notify{Fallback: true},
		WithSender(func(string, string, platform.Options) error { return errors.New("no bus") }),
		WithLogger(zerolog.New(&buf)))
	n.Fallback("using synthetic data")
	assert.Contains(t, buf.String(), "notification failed")
	assert.Contains(t, buf.String(), "no bus")
}
