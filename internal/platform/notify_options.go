// Package platform sends desktop notifications through the host OS.
package platform

// Urgency mirrors the freedesktop notification urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender; "chartink" when empty.
	AppName string
	// IconPath, when non-empty, points to an image shown with the
	// notification where the platform supports it.
	IconPath string
	Urgency  Urgency
	// ExpireMillis is the display time; zero selects 5000.
	ExpireMillis int32
}

func (o Options) app() string {
	if o.AppName == "" {
		return "chartink"
	}
	return o.AppName
}

func (o Options) expire() int32 {
	if o.ExpireMillis <= 0 {
		return 5000
	}
	return o.ExpireMillis
}
