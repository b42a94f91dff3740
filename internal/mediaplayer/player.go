package mediaplayer

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/element"
)

// DefaultClampOffset keeps seeks this far away from the end of the seekable
// range.
const DefaultClampOffset = 1100 * time.Millisecond

// Verify Player implements MediaPlayer at compile time.
var _ MediaPlayer = (*Player)(nil)

// session holds everything that lives between SetSource and the wipe.
type session struct {
	id        uint64
	mediaType MediaType
	source    string
	mimeType  string

	el  element.Element
	src element.SourceElement

	elListeners  []element.ListenerID
	srcListeners []element.ListenerID

	// pendingSeek is set while a seek waits for metadata.
	pendingSeek    time.Duration
	hasPendingSeek bool
	metadataLoaded bool

	// postBuffering is StatePlaying or StatePaused.
	postBuffering State
}

func (s *session) waitingToSeek() bool { return s.hasPendingSeek }

func (s *session) setPendingSeek(t time.Duration) {
	s.pendingSeek = t
	s.hasPendingSeek = true
}

func (s *session) clearPendingSeek() {
	s.pendingSeek = 0
	s.hasPendingSeek = false
}

// Player is the MediaPlayer variant backed by a native element.
type Player struct {
	device      element.Device
	log         zerolog.Logger
	clampOffset time.Duration
	bus         Bus

	state       State
	session     *session
	nextSession uint64
	err         error
}

// Option configures a Player.
type Option func(*Player)

// WithLogger sets the logger used for warnings and errors.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Player) { p.log = log }
}

// WithClampOffset sets how far seeks are kept from the end of the range.
func WithClampOffset(d time.Duration) Option {
	return func(p *Player) {
		if d >= 0 {
			p.clampOffset = d
		}
	}
}

// New creates a player in StateEmpty that creates its elements on device.
func New(device element.Device, opts ...Option) *Player {
	p := &Player{
		device:      device,
		log:         zerolog.Nop(),
		clampOffset: DefaultClampOffset,
		state:       StateEmpty,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetSource creates the native element for url and moves to StateStopped.
func (p *Player) SetSource(mediaType MediaType, url, mimeType string) error {
	if p.state != StateEmpty {
		return p.reject("SetSource")
	}

	el, err := p.device.CreateElement(mediaType.elementKind(), mediaType.elementID())
	if err != nil {
		return p.toError(fmt.Errorf("create %s element: %w", mediaType, err))
	}
	el.SetAutoplay(false)

	p.nextSession++
	s := &session{
		id:            p.nextSession,
		mediaType:     mediaType,
		source:        url,
		mimeType:      mimeType,
		el:            el,
		postBuffering: StatePlaying,
	}
	p.session = s

	s.elListeners = []element.ListenerID{
		el.AddEventListener(element.EventCanPlayThrough, p.bind(s, p.onFinishedBuffering)),
		el.AddEventListener(element.EventError, p.bind(s, p.onMediaError)),
		el.AddEventListener(element.EventEnded, p.bind(s, p.onEndOfMedia)),
		el.AddEventListener(element.EventWaiting, p.bind(s, p.onDeviceBuffering)),
		el.AddEventListener(element.EventTimeUpdate, p.bind(s, p.onStatus)),
		el.AddEventListener(element.EventLoadedMetadata, p.bind(s, p.onMetadata)),
		el.AddEventListener(element.EventPlaying, p.bind(s, p.onPlaying)),
	}
	p.device.PrependChild(el)

	src := p.device.CreateSource()
	src.SetSrc(url)
	src.SetType(mimeType)
	s.src = src
	s.srcListeners = []element.ListenerID{
		src.AddEventListener(element.EventError, p.bind(s, p.onSourceError)),
	}
	p.device.AppendChild(el, src)

	el.SetPreload("auto")
	el.Load()

	p.toStopped()
	return nil
}

// PlayFrom starts or continues playback from t. From StateStopped the seek
// is deferred until the element reports metadata, unless it already has.
func (p *Player) PlayFrom(t time.Duration) error {
	s := p.session
	if s != nil {
		s.postBuffering = StatePlaying
	}

	switch p.state {
	case StateStopped:
		p.toBuffering()
		// An element that already reported metadata (after a Stop, or a
		// preload that finished while stopped) will not report it again,
		// so the seek cannot be deferred.
		if s.metadataLoaded {
			p.seekTo(t)
			p.playIfNotAtEndOfMedia()
		} else {
			s.setPendingSeek(t)
		}

	case StateBuffering:
		if s.waitingToSeek() {
			s.setPendingSeek(t)
		} else {
			p.seekTo(t)
			p.playIfNotAtEndOfMedia()
		}

	case StatePlaying:
		if s.el.CurrentTime() == p.clampedTime(t) {
			p.toBuffering()
			p.toPlaying()
		} else {
			p.seekTo(t)
			p.playIfNotAtEndOfMedia()
			p.toBuffering()
		}

	case StatePaused:
		p.seekTo(t)
		p.playIfNotAtEndOfMedia()
		p.toBuffering()

	case StateComplete:
		if s.el.CurrentTime() == p.clampedTime(t) {
			p.toBuffering()
			p.toComplete()
		} else {
			p.seekTo(t)
			p.playIfNotAtEndOfMedia()
			p.toBuffering()
		}

	default:
		return p.reject("PlayFrom")
	}
	return nil
}

// Pause pauses playback. While buffering, the pause is recorded and applied
// once the element is ready.
func (p *Player) Pause() error {
	s := p.session
	if s != nil {
		s.postBuffering = StatePaused
	}

	switch p.state {
	case StatePaused:

	case StateBuffering:
		// A pending seek means the element has not started yet; onMetadata
		// pauses it after seeking.
		if !s.waitingToSeek() {
			s.el.Pause()
		}

	case StatePlaying:
		s.el.Pause()
		p.toPaused()

	default:
		return p.reject("Pause")
	}
	return nil
}

// Resume resumes paused playback.
func (p *Player) Resume() error {
	s := p.session
	if s != nil {
		s.postBuffering = StatePlaying
	}

	switch p.state {
	case StatePlaying, StateBuffering:

	case StatePaused:
		s.el.Play()
		p.toPlaying()

	default:
		return p.reject("Resume")
	}
	return nil
}

// Stop pauses the element and moves to StateStopped, keeping the source.
func (p *Player) Stop() error {
	switch p.state {
	case StateBuffering, StatePlaying, StatePaused, StateComplete:
		p.session.el.Pause()
		p.toStopped()
	default:
		return p.reject("Stop")
	}
	return nil
}

// Reset releases the source and returns to StateEmpty.
func (p *Player) Reset() error {
	switch p.state {
	case StateStopped, StateError:
		p.toEmpty()
	default:
		return p.reject("Reset")
	}
	return nil
}

// Close releases the element and closes every subscription. The player must
// not be used afterwards.
func (p *Player) Close() {
	p.wipe()
	p.state = StateEmpty
	p.bus.Close()
}

// State returns the current state.
func (p *Player) State() State { return p.state }

// Source returns the current source URL, or "" when there is none.
func (p *Player) Source() string {
	if p.session == nil {
		return ""
	}
	return p.session.source
}

// MimeType returns the current source MIME type, or "" when there is none.
func (p *Player) MimeType() string {
	if p.session == nil {
		return ""
	}
	return p.session.mimeType
}

// MediaType returns the media type of the current source.
func (p *Player) MediaType() (MediaType, bool) {
	if p.session == nil {
		return MediaTypeAudio, false
	}
	return p.session.mediaType, true
}

// Err returns the error that moved the player to StateError, or nil.
func (p *Player) Err() error { return p.err }

// Subscribe creates a new event subscription.
func (p *Player) Subscribe() *Subscription { return p.bus.Subscribe() }

// Unsubscribe removes a subscription created by Subscribe.
func (p *Player) Unsubscribe(sub *Subscription) { p.bus.Unsubscribe(sub) }

// CurrentTime returns the element playback position. It is unknown while
// stopped, in error, or without a source.
func (p *Player) CurrentTime() (time.Duration, bool) {
	switch p.state {
	case StateStopped, StateError:
		return 0, false
	}
	if p.session == nil {
		return 0, false
	}
	return p.session.el.CurrentTime(), true
}

// Range returns the seekable range. It is unknown while stopped, in error,
// or when the element does not report exactly one range.
func (p *Player) Range() (Range, bool) {
	switch p.state {
	case StateStopped, StateError:
		return Range{}, false
	}
	return p.seekableRange()
}

func (p *Player) seekableRange() (Range, bool) {
	if p.session == nil {
		return Range{}, false
	}
	ranges, ok := p.session.el.Seekable()
	switch {
	case !ok:
		p.log.Warn().Str("source", p.session.source).Msg("'seekable' property missing from media element")
	case len(ranges) == 0:
		p.log.Warn().Str("source", p.session.source).Msg("No seekable ranges reported")
	case len(ranges) == 1:
		return Range{Start: ranges[0].Start, End: ranges[0].End}, true
	default:
		p.log.Warn().Str("source", p.session.source).Int("ranges", len(ranges)).Msg("Multiple seekable ranges detected")
	}
	return Range{}, false
}

// clampedTime keeps t inside the seekable range and away from its end.
func (p *Player) clampedTime(t time.Duration) time.Duration {
	r, ok := p.Range()
	if !ok {
		return t
	}
	nearToEnd := max(r.End-p.clampOffset, r.Start)
	switch {
	case t < r.Start:
		return r.Start
	case t > nearToEnd:
		return nearToEnd
	default:
		return t
	}
}

func (p *Player) seekTo(t time.Duration) {
	p.session.el.SetCurrentTime(p.clampedTime(t))
}

func (p *Player) playIfNotAtEndOfMedia() {
	if !p.isAtEndOfMedia() {
		p.session.el.Play()
	}
}

func (p *Player) isAtEndOfMedia() bool {
	r, ok := p.Range()
	if !ok {
		return false
	}
	return p.session.el.CurrentTime() == r.End
}

// reject moves to StateError for a command issued in the wrong state.
func (p *Player) reject(command string) error {
	return p.toError(&CommandError{Command: command, State: p.state})
}

// bind wraps a native event handler so it only runs while s is the live
// session. Events that arrive after the wipe are dropped.
func (p *Player) bind(s *session, fn func()) func() {
	return func() {
		if p.session != s {
			return
		}
		fn()
	}
}

// Native element event handlers

func (p *Player) onFinishedBuffering() {
	if p.state != StateBuffering {
		return
	}
	if p.session.postBuffering == StatePaused {
		p.toPaused()
	} else {
		p.toPlaying()
	}
}

func (p *Player) onMediaError() {
	code := 0
	if e := p.session.el.Error(); e != nil {
		code = e.Code
	}
	p.toError(&element.MediaError{Code: code})
}

func (p *Player) onSourceError() {
	p.toError(ErrSourceFailed)
}

func (p *Player) onDeviceBuffering() {
	p.toBuffering()
}

func (p *Player) onEndOfMedia() {
	p.toComplete()
}

func (p *Player) onStatus() {
	if p.state == StatePlaying {
		p.emit(EventStatus)
	}
}

func (p *Player) onMetadata() {
	s := p.session
	s.metadataLoaded = true
	if s.waitingToSeek() {
		p.seekTo(s.pendingSeek)
		p.playIfNotAtEndOfMedia()
		if s.postBuffering == StatePaused {
			s.el.Pause()
		}
	}
	s.clearPendingSeek()
}

func (p *Player) onPlaying() {
	p.toPlaying()
}

// Transitions. Every state change goes through transition.

func (p *Player) transition(to State, kind EventKind) {
	p.state = to
	if to != StateBuffering && p.session != nil {
		p.session.clearPendingSeek()
	}
	p.emit(kind)
}

func (p *Player) toStopped()   { p.transition(StateStopped, EventStopped) }
func (p *Player) toBuffering() { p.transition(StateBuffering, EventBuffering) }
func (p *Player) toPlaying()   { p.transition(StatePlaying, EventPlaying) }
func (p *Player) toPaused()    { p.transition(StatePaused, EventPaused) }
func (p *Player) toComplete()  { p.transition(StateComplete, EventComplete) }

func (p *Player) toEmpty() {
	p.wipe()
	p.err = nil
	p.state = StateEmpty
}

func (p *Player) toError(err error) error {
	p.log.Error().Err(err).Str("state", p.state.String()).Str("source", p.Source()).Msg("media player error")
	e := p.event(EventError)
	e.Message = err.Error()
	e.HasPosition = false
	e.Position = 0

	p.wipe()
	p.err = err
	p.state = StateError
	e.State = StateError
	p.bus.Emit(e)
	return err
}

func (p *Player) emit(kind EventKind) {
	p.bus.Emit(p.event(kind))
}

func (p *Player) event(kind EventKind) Event {
	e := Event{Kind: kind, State: p.state}
	if s := p.session; s != nil {
		e.Session = s.id
		e.Source = s.source
		e.MimeType = s.mimeType
		e.MediaType = s.mediaType
		e.Position, e.HasPosition = p.CurrentTime()
	}
	return e
}

// wipe unregisters every native listener, then releases the element.
func (p *Player) wipe() {
	s := p.session
	if s == nil {
		return
	}
	p.session = nil
	for _, id := range s.elListeners {
		s.el.RemoveEventListener(id)
	}
	if s.src != nil {
		for _, id := range s.srcListeners {
			s.src.RemoveEventListener(id)
		}
	}
	p.device.RemoveElement(s.el)
}
