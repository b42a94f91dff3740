package mediaplayer

import "time"

// EventKind identifies what a player event reports.
type EventKind int

const (
	EventStopped EventKind = iota
	EventBuffering
	EventPlaying
	EventPaused
	EventComplete
	EventError
	// EventStatus is a periodic position report while playing. It is the
	// only event that is not a state change.
	EventStatus
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventStopped:
		return "stopped"
	case EventBuffering:
		return "buffering"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	case EventStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Event is emitted to subscribers on every state transition and on status
// updates while playing.
type Event struct {
	Kind  EventKind
	State State

	// Session increases with every SetSource, so subscribers can tell
	// sessions for the same source apart.
	Session   uint64
	Source    string
	MimeType  string
	MediaType MediaType

	// Position is the playback position when known.
	Position    time.Duration
	HasPosition bool

	// Message describes the failure for EventError.
	Message string
}

// Range is a seekable interval.
type Range struct {
	Start time.Duration
	End   time.Duration
}

// Duration returns the length of the range.
func (r Range) Duration() time.Duration {
	return r.End - r.Start
}

// Contains reports whether t lies within the range, bounds included.
func (r Range) Contains(t time.Duration) bool {
	return t >= r.Start && t <= r.End
}
