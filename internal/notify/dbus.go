//go:build linux

package notify

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

const (
	busName   = "org.freedesktop.Notifications"
	busPath   = dbus.ObjectPath("/org/freedesktop/Notifications")
	busMethod = "org.freedesktop.Notifications."
)

type busNotifier struct {
	obj dbus.BusObject
}

// New connects to the session bus. It fails when no notification service
// can be reached; callers then run without notifications.
func New() (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &busNotifier{obj: conn.Object(busName, busPath)}, nil
}

// Notify calls Notify(app_name, replaces_id, app_icon, summary, body,
// actions, hints, expire_timeout).
func (b *busNotifier) Notify(n Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(desktopEntry),
	}
	if n.Urgency == UrgencyLow {
		hints["transient"] = dbus.MakeVariant(true)
	}

	var id uint32
	err := b.obj.Call(busMethod+"Notify", 0,
		appName,
		n.ReplacesID,
		n.Icon,
		n.Title,
		n.Body,
		[]string{},
		hints,
		expireTimeout(n.Timeout),
	).Store(&id)
	if err != nil {
		return 0, fmt.Errorf("send notification: %w", err)
	}
	return id, nil
}

func (b *busNotifier) Close(id uint32) error {
	return b.obj.Call(busMethod+"CloseNotification", 0, id).Err
}
