package theme

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		err  bool
	}{
		{"#2962FF", color.RGBA{0x29, 0x62, 0xFF, 0xFF}, false},
		{"#2962FF30", color.RGBA{0x29, 0x62, 0xFF, 0x30}, false},
		{"orange", color.RGBA{255, 165, 0, 255}, false},
		{"#123", color.RGBA{}, true},
		{"nocolor", color.RGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	th, err := Parse(strings.NewReader("Name: custom\n# comment\nCandleUp: #00FF00\nUnknown: #000000\n"))
	require.NoError(t, err)
	assert.Equal(t, "custom", th.Name)
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, th.CandleUp)
	assert.Equal(t, Default().CandleDown, th.CandleDown)

	_, err = Parse(strings.NewReader("Grid: #zz\n"))
	assert.Error(t, err)
}

func TestLoaderEmbedded(t *testing.T) {
	l := &Loader{ConfigDir: t.TempDir(), SystemDir: t.TempDir()}
	th, err := l.Load("light")
	require.NoError(t, err)
	assert.Equal(t, "light", th.Name)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, th.PlotBackground)

	th, err = l.Load("")
	require.NoError(t, err)
	assert.Equal(t, "Default", th.Name)

	_, err = l.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoaderSearchOrder(t *testing.T) {
	l := &Loader{ConfigDir: t.TempDir(), SystemDir: t.TempDir()}
	require.NoError(t, os.WriteFile(filepath.Join(l.ConfigDir, "light.theme"), []byte("Grid: #010203\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(l.SystemDir, "desk.theme"), []byte("Grid: #040506\n"), 0o644))

	th, err := l.Load("light")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, th.Grid, "user file shadows the built-in theme")

	th, err = l.Load("desk.theme")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{4, 5, 6, 255}, th.Grid)

	path := filepath.Join(t.TempDir(), "mine.theme")
	require.NoError(t, os.WriteFile(path, []byte("Grid: #070809\n"), 0o644))
	th, err = l.Load(path)
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{7, 8, 9, 255}, th.Grid)

	require.NoError(t, os.WriteFile(filepath.Join(l.ConfigDir, "broken.theme"), []byte("Grid: #zz\n"), 0o644))
	_, err = l.Load("broken")
	assert.ErrorContains(t, err, "broken.theme")
}

func TestApply(t *testing.T) {
	th := Default()
	require.NoError(t, th.Apply(map[string]string{"Grid": "#010203"}))
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, th.Grid)
}

func TestStringRoundTrip(t *testing.T) {
	th := Default()
	th.Name = "custom"
	th.Grid = color.RGBA{R: 1, G: 2, B: 3, A: 128}
	got, err := Parse(strings.NewReader(th.String()))
	require.NoError(t, err)
	assert.Equal(t, th, got)
}
