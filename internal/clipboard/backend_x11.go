//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && !cgo

package clipboard

import (
	"fmt"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// owner holds the CLIPBOARD selection on a hidden window and answers
// conversion requests until another client takes ownership.
type owner struct {
	conn   *xgb.Conn
	window xproto.Window
	atoms  atoms

	mu      sync.RWMutex
	content []byte
	target  xproto.Atom
}

type atoms struct {
	clipboard xproto.Atom
	targets   xproto.Atom
	utf8      xproto.Atom
	textPlain xproto.Atom
	png       xproto.Atom
}

var x11 *owner

func initBackend() error {
	conn, err := xgb.NewConn()
	if err != nil {
		return fmt.Errorf("connect to X server: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)
	window, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return err
	}
	err = xproto.CreateWindowChecked(conn, screen.RootDepth, window, screen.Root,
		0, 0, 1, 1, 0, xproto.WindowClassInputOutput, screen.RootVisual,
		xproto.CwEventMask, []uint32{xproto.EventMaskPropertyChange}).Check()
	if err != nil {
		conn.Close()
		return fmt.Errorf("create clipboard window: %w", err)
	}
	a, err := internAtoms(conn)
	if err != nil {
		xproto.DestroyWindow(conn, window)
		conn.Close()
		return err
	}
	x11 = &owner{conn: conn, window: window, atoms: a}
	go x11.serve()
	return nil
}

func internAtoms(conn *xgb.Conn) (atoms, error) {
	names := []string{"CLIPBOARD", "TARGETS", "UTF8_STRING", "text/plain;charset=utf-8", "image/png"}
	out := make([]xproto.Atom, len(names))
	for i, name := range names {
		reply, err := xproto.InternAtom(conn, false, uint16(len(name)), name).Reply()
		if err != nil {
			return atoms{}, fmt.Errorf("intern atom %s: %w", name, err)
		}
		out[i] = reply.Atom
	}
	return atoms{clipboard: out[0], targets: out[1], utf8: out[2], textPlain: out[3], png: out[4]}, nil
}

func writeImage(data []byte) error { return x11.own(data, x11.atoms.png) }

func writeText(text string) error { return x11.own([]byte(text), x11.atoms.utf8) }

func (o *owner) own(data []byte, target xproto.Atom) error {
	o.mu.Lock()
	o.content = append([]byte(nil), data...)
	o.target = target
	o.mu.Unlock()
	return xproto.SetSelectionOwnerChecked(o.conn, o.window, o.atoms.clipboard, xproto.TimeCurrentTime).Check()
}

func (o *owner) serve() {
	for {
		ev, err := o.conn.WaitForEvent()
		if err != nil {
			return
		}
		switch e := ev.(type) {
		case xproto.SelectionRequestEvent:
			o.answer(e)
		case xproto.SelectionClearEvent:
			o.mu.Lock()
			o.content, o.target = nil, 0
			o.mu.Unlock()
		}
	}
}

// accepts reports whether a requested target can be served from what we hold.
func (o *owner) accepts(requested, held xproto.Atom) bool {
	if held == o.atoms.png {
		return requested == o.atoms.png
	}
	switch requested {
	case o.atoms.utf8, o.atoms.textPlain, xproto.AtomString:
		return held == o.atoms.utf8
	}
	return false
}

func (o *owner) answer(e xproto.SelectionRequestEvent) {
	property := e.Property
	if property == xproto.AtomNone {
		property = e.Target
	}
	o.mu.RLock()
	content, held := o.content, o.target
	o.mu.RUnlock()

	switch {
	case len(content) == 0:
		property = xproto.AtomNone
	case e.Target == o.atoms.targets:
		list := []xproto.Atom{o.atoms.targets, held}
		if held == o.atoms.utf8 {
			list = append(list, xproto.AtomString, o.atoms.textPlain)
		}
		buf := make([]byte, 4*len(list))
		for i, a := range list {
			xgb.Put32(buf[i*4:], uint32(a))
		}
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			xproto.AtomAtom, 32, uint32(len(list)), buf)
	case o.accepts(e.Target, held):
		xproto.ChangeProperty(o.conn, xproto.PropModeReplace, e.Requestor, property,
			held, 8, uint32(len(content)), content)
	default:
		property = xproto.AtomNone
	}

	reply := xproto.SelectionNotifyEvent{
		Time:      e.Time,
		Requestor: e.Requestor,
		Selection: e.Selection,
		Target:    e.Target,
		Property:  property,
	}
	xproto.SendEvent(o.conn, false, e.Requestor, 0, string(reply.Bytes()))
}
