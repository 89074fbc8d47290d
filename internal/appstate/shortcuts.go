package appstate

import (
	"unicode"

	"golang.org/x/mobile/event/key"
)

// KeyShortcut describes a keyboard combination that triggers an action.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

// Matches reports whether e is a press of the shortcut. Runes compare
// case-insensitively; modifiers must match exactly, ignoring Shift for runes.
func (s KeyShortcut) Matches(e key.Event) bool {
	if e.Direction == key.DirRelease {
		return false
	}
	mods := e.Modifiers
	if s.Rune != 0 {
		mods &^= key.ModShift
		if unicode.ToLower(e.Rune) != unicode.ToLower(s.Rune) {
			return false
		}
	} else if e.Code != s.Code {
		return false
	}
	return mods == s.Modifiers
}

type shortcutAction struct {
	name string
	keys []KeyShortcut
	fn   func()
}

// Shortcuts maps key combinations to named actions. The first registered
// action whose shortcut matches wins.
type Shortcuts struct {
	actions []shortcutAction
}

// Register adds an action.
func (s *Shortcuts) Register(name string, fn func(), keys ...KeyShortcut) {
	s.actions = append(s.actions, shortcutAction{name: name, keys: keys, fn: fn})
}

// Dispatch runs the action bound to e and returns its name.
func (s *Shortcuts) Dispatch(e key.Event) (string, bool) {
	for _, a := range s.actions {
		for _, k := range a.keys {
			if k.Matches(e) {
				a.fn()
				return a.name, true
			}
		}
	}
	return "", false
}
