//go:build linux || freebsd || openbsd || netbsd || dragonfly

package clipboard

import (
	"image"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteWithoutDisplay(t *testing.T) {
	t.Setenv("DISPLAY", "")
	t.Setenv("WAYLAND_DISPLAY", "")

	initOnce = sync.Once{}
	initErr = nil
	t.Cleanup(func() {
		initOnce = sync.Once{}
		initErr = nil
	})

	assert.ErrorIs(t, WriteText("hello"), ErrNoDisplay)
	assert.ErrorIs(t, WriteImage(image.NewRGBA(image.Rect(0, 0, 1, 1))), ErrNoDisplay)
}
