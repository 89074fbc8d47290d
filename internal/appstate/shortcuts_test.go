package appstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"golang.org/x/mobile/event/key"
)

func TestKeyShortcutMatches(t *testing.T) {
	tests := []struct {
		name string
		sc   KeyShortcut
		e    key.Event
		want bool
	}{
		{"rune", KeyShortcut{Rune: 't'}, key.Event{Rune: 't'}, true},
		{"upper rune with shift", KeyShortcut{Rune: 't'}, key.Event{Rune: 'T', Modifiers: key.ModShift}, true},
		{"extra control", KeyShortcut{Rune: 't'}, key.Event{Rune: 't', Modifiers: key.ModControl}, false},
		{"control rune", KeyShortcut{Rune: 's', Modifiers: key.ModControl}, key.Event{Rune: 's', Modifiers: key.ModControl}, true},
		{"code", KeyShortcut{Code: key.CodeLeftArrow}, key.Event{Code: key.CodeLeftArrow}, true},
		{"release", KeyShortcut{Rune: 't'}, key.Event{Rune: 't', Direction: key.DirRelease}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sc.Matches(tt.e))
		})
	}
}

func TestShortcutsFirstMatchWins(t *testing.T) {
	var got []string
	s := &Shortcuts{}
	s.Register("a", func() { got = append(got, "a") }, KeyShortcut{Rune: 'x'})
	s.Register("b", func() { got = append(got, "b") }, KeyShortcut{Rune: 'x'}, KeyShortcut{Rune: 'y'})

	name, ok := s.Dispatch(key.Event{Rune: 'x'})
	assert.True(t, ok)
	assert.Equal(t, "a", name)
	s.Dispatch(key.Event{Rune: 'y'})
	_, ok = s.Dispatch(key.Event{Rune: 'z'})
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestSnackbarExpires(t *testing.T) {
	var s snackbar
	now := time.Unix(100, 0)
	assert.False(t, s.Visible(now))
	s.Show("saved", time.Second, now)
	assert.True(t, s.Visible(now.Add(999*time.Millisecond)))
	assert.False(t, s.Visible(now.Add(time.Second)))
}
