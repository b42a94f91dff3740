package local

import (
	"errors"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/element"
)

// Element is an audio element decoded and mixed locally.
//
// Decoding runs off the dispatcher goroutine; every result is delivered
// through the dispatcher and dropped when the element was reloaded or
// removed in the meantime.
type Element struct {
	id        string
	device    *Device
	log       zerolog.Logger
	listeners element.Listeners

	mu       sync.Mutex
	gen      uint64
	source   *element.Source
	autoplay bool
	preload  string
	paused   bool
	stream   beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	queued   bool
	stopTick chan struct{}
	mediaErr *element.MediaError
}

func newElement(id string, d *Device) *Element {
	return &Element{
		id:       id,
		device:   d,
		log:      d.log.With().Str("element", id).Logger(),
		autoplay: true,
		paused:   true,
	}
}

func (e *Element) ID() string         { return e.id }
func (e *Element) Kind() element.Kind { return element.Audio }

func (e *Element) SetAutoplay(autoplay bool) {
	e.mu.Lock()
	e.autoplay = autoplay
	e.mu.Unlock()
}

// SetPreload is recorded only; sources are always decoded on Load.
func (e *Element) SetPreload(preload string) {
	e.mu.Lock()
	e.preload = preload
	e.mu.Unlock()
}

func (e *Element) setSource(s *element.Source) {
	e.mu.Lock()
	e.source = s
	e.mu.Unlock()
}

// Load drops the current stream and decodes the source in the background.
func (e *Element) Load() {
	e.mu.Lock()
	e.unloadLocked()
	e.paused = !e.autoplay
	e.mediaErr = nil
	gen := e.gen
	src := e.source
	e.mu.Unlock()

	if src == nil || src.Src() == "" {
		e.log.Warn().Msg("load without a source")
		return
	}
	go e.open(gen, src)
}

func (e *Element) open(gen uint64, src *element.Source) {
	path, err := localPath(src.Src())
	if err != nil {
		e.log.Warn().Err(err).Str("src", src.Src()).Msg("source not playable")
		e.dispatch(gen, func() { src.Fire(element.EventError) })
		return
	}
	f, err := os.Open(path)
	if err != nil {
		e.log.Warn().Err(err).Str("path", path).Msg("could not open source")
		e.dispatch(gen, func() { src.Fire(element.EventError) })
		return
	}

	codec := codecFor(src.Type(), path)
	stream, format, err := decode(codec, f)
	if err != nil {
		_ = f.Close()
		code := element.MediaErrDecode
		if errors.Is(err, ErrUnsupportedFormat) {
			code = element.MediaErrSrcNotSupported
		}
		e.log.Warn().Err(err).Str("path", path).Int("code", code).Msg("could not decode source")
		e.dispatch(gen, func() { e.fail(code) })
		return
	}

	e.log.Debug().
		Str("path", path).
		Str("codec", codec).
		Int("sample_rate", int(format.SampleRate)).
		Dur("duration", format.SampleRate.D(stream.Len())).
		Msg("source decoded")

	ok := e.device.dispatcher.Dispatch(func() {
		e.mu.Lock()
		if gen != e.gen {
			e.mu.Unlock()
			_ = stream.Close()
			return
		}
		e.stream = stream
		e.format = format
		autoplay := !e.paused
		e.mu.Unlock()

		e.listeners.Fire(element.EventLoadedMetadata)
		e.listeners.Fire(element.EventCanPlayThrough)
		if autoplay {
			e.Play()
		}
	})
	if !ok {
		_ = stream.Close()
	}
}

// Play starts or resumes output. Before the source is decoded it only
// records the intent.
func (e *Element) Play() {
	e.mu.Lock()
	e.paused = false
	if e.stream == nil {
		e.mu.Unlock()
		return
	}
	if err := e.enqueueLocked(); err != nil {
		e.mu.Unlock()
		e.log.Error().Err(err).Msg("audio output unavailable")
		e.dispatch(e.currentGen(), func() { e.fail(element.MediaErrDecode) })
		return
	}
	e.startTickerLocked()
	gen := e.gen
	e.mu.Unlock()

	e.dispatch(gen, func() {
		e.mu.Lock()
		paused := e.paused
		e.mu.Unlock()
		if !paused {
			e.listeners.Fire(element.EventPlaying)
		}
	})
}

func (e *Element) enqueueLocked() error {
	sink := e.device.sink
	if e.queued {
		sink.Lock()
		e.ctrl.Paused = false
		sink.Unlock()
		return nil
	}
	if err := sink.Init(e.format.SampleRate); err != nil {
		return err
	}

	var s beep.Streamer = e.stream
	if sr := sink.SampleRate(); sr != e.format.SampleRate {
		s = beep.Resample(4, e.format.SampleRate, sr, s)
	}
	e.ctrl = &beep.Ctrl{Streamer: s}
	volume := &effects.Volume{Streamer: e.ctrl, Base: 2, Volume: e.device.volume}

	gen := e.gen
	stream := e.stream
	e.queued = true
	// The callback runs with the sink locked
	sink.Play(beep.Seq(volume, beep.Callback(func() {
		go e.dispatch(gen, func() { e.ended(stream) })
	})))
	return nil
}

func (e *Element) ended(stream beep.StreamSeekCloser) {
	e.mu.Lock()
	e.queued = false
	e.stopTickerLocked()
	e.mu.Unlock()

	if err := stream.Err(); err != nil {
		e.log.Warn().Err(err).Msg("stream failed")
		e.fail(element.MediaErrDecode)
		return
	}
	e.listeners.Fire(element.EventEnded)
}

func (e *Element) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
	e.stopTickerLocked()
	if e.ctrl != nil {
		e.device.sink.Lock()
		e.ctrl.Paused = true
		e.device.sink.Unlock()
	}
}

func (e *Element) CurrentTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream == nil {
		return 0
	}
	e.device.sink.Lock()
	pos := e.stream.Position()
	e.device.sink.Unlock()
	return e.format.SampleRate.D(pos)
}

// SetCurrentTime seeks the decoder and reports canplaythrough once done.
func (e *Element) SetCurrentTime(t time.Duration) {
	e.mu.Lock()
	if e.stream == nil {
		e.mu.Unlock()
		return
	}
	n := min(max(e.format.SampleRate.N(t), 0), e.stream.Len())
	e.device.sink.Lock()
	err := e.stream.Seek(n)
	e.device.sink.Unlock()
	gen := e.gen
	e.mu.Unlock()

	if err != nil {
		e.log.Warn().Err(err).Dur("position", t).Msg("seek failed")
		e.dispatch(gen, func() { e.fail(element.MediaErrDecode) })
		return
	}
	e.dispatch(gen, func() { e.listeners.Fire(element.EventCanPlayThrough) })
}

// Seekable reports the whole decoded stream once it is loaded.
func (e *Element) Seekable() ([]element.TimeRange, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream == nil {
		return nil, true
	}
	return []element.TimeRange{{Start: 0, End: e.format.SampleRate.D(e.stream.Len())}}, true
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

// fail records a media error and fires the error event. It runs on the
// dispatcher goroutine.
func (e *Element) fail(code int) {
	e.mu.Lock()
	e.mediaErr = &element.MediaError{Code: code}
	e.mu.Unlock()
	e.listeners.Fire(element.EventError)
}

// dispatch schedules fn unless the element was reloaded or removed since gen.
func (e *Element) dispatch(gen uint64, fn func()) {
	e.device.dispatcher.Dispatch(func() {
		if e.currentGen() != gen {
			return
		}
		fn()
	})
}

func (e *Element) currentGen() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

func (e *Element) startTickerLocked() {
	if e.stopTick != nil {
		return
	}
	stop := make(chan struct{})
	e.stopTick = stop
	gen := e.gen
	interval := e.device.interval
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				e.dispatch(gen, func() { e.listeners.Fire(element.EventTimeUpdate) })
			}
		}
	}()
}

func (e *Element) stopTickerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}

// unloadLocked stops output and releases the stream. Pending results from
// earlier loads are invalidated.
func (e *Element) unloadLocked() {
	e.gen++
	e.stopTickerLocked()
	if e.queued {
		e.device.sink.Clear()
		e.queued = false
	}
	e.ctrl = nil
	if e.stream != nil {
		if err := e.stream.Close(); err != nil {
			e.log.Debug().Err(err).Msg("close stream")
		}
		e.stream = nil
	}
}

func (e *Element) unload() {
	e.mu.Lock()
	e.unloadLocked()
	e.mu.Unlock()
}
