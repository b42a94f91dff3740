//go:build !linux

package notify

import "errors"

// New reports that desktop notifications need a freedesktop session bus.
func New() (Notifier, error) {
	return nil, errors.New("desktop notifications are only supported on linux")
}
