// Package element defines the native media element surface that the
// mediaplayer state machine drives, and the listener registry shared by
// backends.
//
// An Element behaves like an HTML media element: commands (Play, Pause,
// Load, SetCurrentTime) return immediately and the element reports progress
// later through events. Backends must deliver events through a Dispatcher so
// listeners never run concurrently with the state machine.
package element

import (
	"fmt"
	"time"
)

// Kind selects the type of element to create.
type Kind int

const (
	Audio Kind = iota
	Video
)

// String returns the element tag name.
func (k Kind) String() string {
	switch k {
	case Audio:
		return "audio"
	case Video:
		return "video"
	default:
		return "unknown"
	}
}

// EventType names a native element event.
type EventType string

const (
	EventCanPlayThrough EventType = "canplaythrough"
	EventError          EventType = "error"
	EventEnded          EventType = "ended"
	EventWaiting        EventType = "waiting"
	EventTimeUpdate     EventType = "timeupdate"
	EventLoadedMetadata EventType = "loadedmetadata"
	EventPlaying        EventType = "playing"
)

// TimeRange is a seekable interval reported by an element.
type TimeRange struct {
	Start time.Duration
	End   time.Duration
}

// Media error codes, as reported by MediaError.Code.
const (
	MediaErrAborted         = 1
	MediaErrNetwork         = 2
	MediaErrDecode          = 3
	MediaErrSrcNotSupported = 4
)

// MediaError is the error an element exposes after emitting EventError.
type MediaError struct {
	Code int
}

func (e *MediaError) Error() string {
	return fmt.Sprintf("media element emitted error with code: %d", e.Code)
}

// ListenerID identifies a registered listener so it can be removed.
type ListenerID uint64

// Element is a native media-rendering element.
type Element interface {
	ID() string
	Kind() Kind

	Play()
	Pause()
	Load()
	SetAutoplay(autoplay bool)
	SetPreload(preload string)

	CurrentTime() time.Duration
	SetCurrentTime(t time.Duration)

	// Seekable returns the seekable ranges in order. ok is false when the
	// element cannot report seekability at all.
	Seekable() (ranges []TimeRange, ok bool)

	// Error returns the last media error, or nil.
	Error() *MediaError

	AddEventListener(t EventType, fn func()) ListenerID
	RemoveEventListener(id ListenerID)
}

// SourceElement describes the media resource attached to an Element.
type SourceElement interface {
	SetSrc(url string)
	SetType(mimeType string)
	Src() string
	Type() string

	AddEventListener(t EventType, fn func()) ListenerID
	RemoveEventListener(id ListenerID)
}

// Device creates elements and manages the surface they are attached to.
type Device interface {
	CreateElement(kind Kind, id string) (Element, error)
	CreateSource() SourceElement
	PrependChild(el Element)
	AppendChild(parent Element, child SourceElement)
	RemoveElement(el Element)
}

// Dispatcher schedules a callback on the goroutine that owns the state
// machine. It reports whether the callback was accepted.
type Dispatcher interface {
	Dispatch(fn func()) bool
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func()) bool

func (f DispatcherFunc) Dispatch(fn func()) bool { return f(fn) }

// Immediate runs callbacks on the caller's goroutine.
var Immediate Dispatcher = DispatcherFunc(func(fn func()) bool {
	if fn == nil {
		return false
	}
	fn()
	return true
})
