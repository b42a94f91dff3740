package mpv

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/element"
)

// mpv file_error strings reported with end-file reason=error.
const (
	fileErrorUnrecognized = "unrecognized file format"
	fileErrorLoading      = "loading failed"
)

// mediaErrorCode maps an mpv file error to a media error code.
func mediaErrorCode(fileError string) int {
	switch fileError {
	case fileErrorUnrecognized:
		return element.MediaErrSrcNotSupported
	case fileErrorLoading:
		return element.MediaErrNetwork
	default:
		return element.MediaErrDecode
	}
}

// Element is a media element played by the shared mpv process.
//
// Commands run on the dispatcher goroutine; mpv messages arrive on the
// device read loop and are turned into events through the dispatcher.
type Element struct {
	id         string
	kind       element.Kind
	conn       *Conn
	dispatcher element.Dispatcher
	log        zerolog.Logger
	tick       time.Duration
	listeners  element.Listeners

	mu             sync.Mutex
	source         *element.Source
	autoplay       bool
	preload        string
	paused         bool
	metadataLoaded bool
	position       time.Duration
	lastTick       time.Duration
	duration       time.Duration
	hasDuration    bool
	seekable       bool
	mediaErr       *element.MediaError
}

func newElement(kind element.Kind, id string, conn *Conn, d element.Dispatcher, tick time.Duration, log zerolog.Logger) *Element {
	return &Element{
		id:         id,
		kind:       kind,
		conn:       conn,
		dispatcher: d,
		tick:       tick,
		log:        log.With().Str("element", id).Logger(),
		autoplay:   true,
		paused:     true,
	}
}

func (e *Element) ID() string         { return e.id }
func (e *Element) Kind() element.Kind { return e.kind }

func (e *Element) command(args ...any) {
	if err := e.conn.Command(args...); err != nil {
		e.log.Warn().Err(err).Msg("mpv command not sent")
	}
}

// Play unpauses playback.
func (e *Element) Play() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()
	e.command("set_property", "pause", false)
}

// Pause pauses playback.
func (e *Element) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
	e.command("set_property", "pause", true)
}

// Load opens the source paused, unless autoplay is set.
func (e *Element) Load() {
	e.mu.Lock()
	src := e.source
	e.metadataLoaded = false
	e.hasDuration = false
	e.seekable = false
	e.position = 0
	e.lastTick = 0
	e.mediaErr = nil
	e.paused = !e.autoplay
	paused := e.paused
	e.mu.Unlock()

	if src == nil || src.Src() == "" {
		e.log.Warn().Msg("load without a source")
		return
	}
	e.command("set_property", "pause", paused)
	e.command("loadfile", src.Src(), "replace")
}

func (e *Element) SetAutoplay(autoplay bool) {
	e.mu.Lock()
	e.autoplay = autoplay
	e.mu.Unlock()
}

// SetPreload is recorded only; mpv always buffers ahead.
func (e *Element) SetPreload(preload string) {
	e.mu.Lock()
	e.preload = preload
	e.mu.Unlock()
}

func (e *Element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// SetCurrentTime seeks. The new position is visible immediately.
func (e *Element) SetCurrentTime(t time.Duration) {
	e.mu.Lock()
	e.position = t
	e.lastTick = t
	e.mu.Unlock()
	e.command("seek", t.Seconds(), "absolute")
}

// Seekable reports [0, duration] once mpv knows the file is seekable.
func (e *Element) Seekable() ([]element.TimeRange, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasDuration || !e.seekable {
		return nil, true
	}
	return []element.TimeRange{{Start: 0, End: e.duration}}, true
}

func (e *Element) Error() *element.MediaError {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mediaErr
}

func (e *Element) AddEventListener(t element.EventType, fn func()) element.ListenerID {
	return e.listeners.Add(t, fn)
}

func (e *Element) RemoveEventListener(id element.ListenerID) {
	e.listeners.Remove(id)
}

func (e *Element) setSource(s *element.Source) {
	e.mu.Lock()
	e.source = s
	e.mu.Unlock()
}

func (e *Element) fire(t element.EventType) {
	if !e.dispatcher.Dispatch(func() { e.listeners.Fire(t) }) {
		e.log.Debug().Str("event", string(t)).Msg("event dropped, dispatcher closed")
	}
}

func (e *Element) fireSource(t element.EventType) {
	e.mu.Lock()
	src := e.source
	e.mu.Unlock()
	if src == nil {
		return
	}
	e.dispatcher.Dispatch(func() { src.Fire(t) })
}

// handleMessage translates an mpv event into element events.
func (e *Element) handleMessage(m Message) {
	switch m.Event {
	case "file-loaded":
		e.mu.Lock()
		e.metadataLoaded = true
		e.mu.Unlock()
		e.fire(element.EventLoadedMetadata)

	case "playback-restart":
		e.mu.Lock()
		paused := e.paused
		e.mu.Unlock()
		e.fire(element.EventCanPlayThrough)
		if !paused {
			e.fire(element.EventPlaying)
		}

	case "end-file":
		e.handleEndFile(m)

	case "property-change":
		e.handleProperty(m)
	}
}

func (e *Element) handleEndFile(m Message) {
	switch m.Reason {
	case "eof":
		e.fire(element.EventEnded)
	case "error":
		e.mu.Lock()
		loaded := e.metadataLoaded
		if loaded {
			e.mediaErr = &element.MediaError{Code: mediaErrorCode(m.FileError)}
		}
		e.mu.Unlock()
		e.log.Warn().Str("file_error", m.FileError).Bool("metadata", loaded).Msg("mpv failed to play file")
		if loaded {
			e.fire(element.EventError)
		} else {
			e.fireSource(element.EventError)
		}
	}
}

func (e *Element) handleProperty(m Message) {
	switch m.Name {
	case "time-pos":
		pos, ok := m.Float()
		if !ok {
			return
		}
		t := time.Duration(pos * float64(time.Second))
		e.mu.Lock()
		e.position = t
		due := t-e.lastTick >= e.tick || t < e.lastTick
		if due {
			e.lastTick = t
		}
		e.mu.Unlock()
		if due {
			e.fire(element.EventTimeUpdate)
		}

	case "duration":
		d, ok := m.Float()
		e.mu.Lock()
		e.duration = time.Duration(d * float64(time.Second))
		e.hasDuration = ok
		e.mu.Unlock()

	case "seekable":
		b, _ := m.Bool()
		e.mu.Lock()
		e.seekable = b
		e.mu.Unlock()

	case "paused-for-cache":
		if b, _ := m.Bool(); b {
			e.fire(element.EventWaiting)
		}

	case "eof-reached":
		if b, _ := m.Bool(); b {
			e.fire(element.EventEnded)
		}
	}
}

// abort reports a lost mpv process as a media error.
func (e *Element) abort() {
	e.mu.Lock()
	e.mediaErr = &element.MediaError{Code: element.MediaErrAborted}
	e.mu.Unlock()
	e.fire(element.EventError)
}

var _ element.Element = (*Element)(nil)
