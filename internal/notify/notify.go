// Package notify turns application events into desktop notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/chartink/internal/config"
	"github.com/example/chartink/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventSave fires when a chart image or PDF is written to disk.
	EventSave Event = "save"
	// EventCopy fires when a chart image is copied to the clipboard.
	EventCopy Event = "copy"
	// EventFallback fires when market data could not be fetched and synthetic
	// candles are shown instead.
	EventFallback Event = "fallback"
)

// Preferences describes notification behaviour.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: "chartink",
		Templates: map[Event]string{
			EventSave:     "Saved %s",
			EventCopy:     "Copied %s to clipboard",
			EventFallback: "%s",
		},
	}
}

// Sender delivers a notification; platform.Notify in production.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends OS-level notifications for enabled events.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    Sender
	log     zerolog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSender replaces the platform backend.
func WithSender(s Sender) Option { return func(n *Notifier) { n.send = s } }

// WithLogger sets the logger used for delivery failures.
func WithLogger(log zerolog.Logger) Option {
	return func(n *Notifier) { n.log = log.With().Str("component", "notify").Logger() }
}

// New creates a Notifier with events enabled from cfg.
func New(prefs Preferences, cfg config.Notify, opts ...Option) *Notifier {
	templates := make(map[Event]string, len(prefs.Templates))
	for k, v := range prefs.Templates {
		templates[k] = v
	}
	n := &Notifier{
		prefs: Preferences{Title: prefs.Title, Templates: templates},
		enabled: map[Event]bool{
			EventSave:     cfg.Save,
			EventCopy:     cfg.Copy,
			EventFallback: cfg.Fallback,
		},
		send: platform.Notify,
		log:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Save reports a written file. PNG files are used as the notification icon.
func (n *Notifier) Save(path string) {
	if !n.enabledFor(EventSave) {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if strings.EqualFold(filepath.Ext(abs), ".png") {
			if _, statErr := os.Stat(abs); statErr == nil {
				opts.IconPath = abs
			}
		}
	}
	n.dispatch(EventSave, detail, opts)
}

// Copy reports a clipboard copy, with an optional preview of the image.
func (n *Notifier) Copy(detail string, img image.Image) {
	if !n.enabledFor(EventCopy) {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "chart"
	}
	opts := platform.Options{}
	if img != nil {
		if path, cleanup, err := createPreview(img); err != nil {
			n.log.Warn().Err(err).Msg("notification preview")
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventCopy, detail, opts)
}

// Fallback reports that synthetic data replaced a failed market-data fetch.
func (n *Notifier) Fallback(warning string) {
	n.dispatch(EventFallback, warning, platform.Options{Urgency: platform.UrgencyLow})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.prefs.Templates[event])
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.log.Warn().Err(err).Str("event", string(event)).Msg("notification failed")
	}
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "chartink-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
