// Package notify announces playback on the desktop through the
// freedesktop notification service.
package notify

import "time"

const (
	appName      = "mediaplayer"
	desktopEntry = "mediaplayer"
)

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop notification.
type Notification struct {
	Title string
	Body  string
	Icon  string // file path or icon name

	// Timeout <= 0 leaves expiry to the notification server.
	Timeout time.Duration

	// ReplacesID updates an earlier notification in place when non-zero.
	ReplacesID uint32
	Urgency    Urgency
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify shows n and returns its server-assigned ID.
	Notify(n Notification) (uint32, error)
	// Close withdraws a notification by ID.
	Close(id uint32) error
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(Notification) (uint32, error) { return 0, nil }

func (Nop) Close(uint32) error { return nil }

// expireTimeout converts d to the protocol's milliseconds, -1 meaning the
// server default.
func expireTimeout(d time.Duration) int32 {
	if d <= 0 {
		return -1
	}
	return int32(d / time.Millisecond)
}
