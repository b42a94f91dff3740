package mediaplayer

import "github.com/llehouerou/mediaplayer/internal/element"

// State represents the media player state machine.
//
// Commands and native element events move the machine between states:
//
//	         SetSource             PlayFrom
//	┌───────┐ ──────▶ ┌─────────┐ ──────▶ ┌───────────┐  canplaythrough  ┌─────────┐
//	│ Empty │         │ Stopped │         │ Buffering │ ───────────────▶ │ Playing │
//	└───────┘ ◀────── └─────────┘ ◀────── └───────────┘ ◀─────────────── └─────────┘
//	            Reset               Stop         ▲          waiting        │   ▲
//	                                             │                   Pause │   │ Resume
//	                                             │ PlayFrom                ▼   │
//	                                             └──────────────────── ┌─────────┐
//	                                                                   │ Paused  │
//	                                                                   └─────────┘
//
// ended moves any state with a session to Complete. Any command issued in a
// state that does not accept it, and any native error, moves to Error. Error
// only accepts Reset.
type State int

const (
	StateEmpty State = iota
	StateStopped
	StateBuffering
	StatePlaying
	StatePaused
	StateComplete
	StateError
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "EMPTY"
	case StateStopped:
		return "STOPPED"
	case StateBuffering:
		return "BUFFERING"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateComplete:
		return "COMPLETE"
	case StateError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// IsActive returns true if media is in flight (buffering, playing or paused).
func (s State) IsActive() bool {
	return s == StateBuffering || s == StatePlaying || s == StatePaused
}

// CanStop returns true if Stop is accepted in this state.
func (s State) CanStop() bool {
	return s.IsActive() || s == StateComplete
}

// CanReset returns true if Reset is accepted in this state.
func (s State) CanReset() bool {
	return s == StateStopped || s == StateError
}

// MediaType selects whether a source is audio or video.
type MediaType int

const (
	MediaTypeAudio MediaType = iota
	MediaTypeVideo
)

// String returns the media type name.
func (t MediaType) String() string {
	switch t {
	case MediaTypeAudio:
		return "audio"
	case MediaTypeVideo:
		return "video"
	default:
		return "unknown"
	}
}

// ParseMediaType parses "audio" or "video".
func ParseMediaType(s string) (MediaType, bool) {
	switch s {
	case "audio":
		return MediaTypeAudio, true
	case "video":
		return MediaTypeVideo, true
	default:
		return MediaTypeAudio, false
	}
}

func (t MediaType) elementKind() element.Kind {
	if t == MediaTypeVideo {
		return element.Video
	}
	return element.Audio
}

func (t MediaType) elementID() string {
	if t == MediaTypeVideo {
		return "mediaPlayerVideo"
	}
	return "mediaPlayerAudio"
}
