// Package mediaplayer implements a playback state machine over an
// asynchronous native media element.
//
// Callers issue commands (SetSource, PlayFrom, Pause, Resume, Stop, Reset);
// the native element answers later with events (metadata loaded, ready to
// play, waiting, playing, ended, error). Player reconciles both so that the
// observed state is deterministic, deferring seeks requested before the
// element has metadata.
package mediaplayer

import (
	"errors"
	"fmt"
	"time"
)

// MediaPlayer defines the playback control surface. Implementations are not
// safe for concurrent use; serialize calls onto one goroutine.
type MediaPlayer interface {
	// Commands. A command issued in a state that does not accept it moves
	// the player to StateError and returns a *CommandError.
	SetSource(mediaType MediaType, url, mimeType string) error
	PlayFrom(t time.Duration) error
	Pause() error
	Resume() error
	Stop() error
	Reset() error

	// Queries
	State() State
	Source() string
	MimeType() string
	CurrentTime() (time.Duration, bool)
	Range() (Range, bool)
	Err() error

	// Event subscription
	Subscribe() *Subscription
}

// ErrSourceFailed is reported when the source element could not be resolved.
var ErrSourceFailed = errors.New("source element emitted error")

// CommandError is returned when a command is issued in a state that does not
// accept it.
type CommandError struct {
	Command string
	State   State
}

func (e *CommandError) Error() string {
	if e.Command == "SetSource" {
		return fmt.Sprintf("cannot set source unless in the '%s' state", StateEmpty)
	}
	return fmt.Sprintf("cannot %s while in the '%s' state", e.Command, e.State)
}
