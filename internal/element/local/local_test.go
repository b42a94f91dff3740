package local

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/mediaplayer/internal/element"
)

const testRate = beep.SampleRate(8000)

// fakeSink collects queued streamers instead of playing them.
type fakeSink struct {
	lk sync.Mutex

	mu      sync.Mutex
	rate    beep.SampleRate
	inits   int
	playing []beep.Streamer
	cleared int
}

func (s *fakeSink) Init(sr beep.SampleRate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rate == 0 {
		s.rate = sr
	}
	s.inits++
	return nil
}

func (s *fakeSink) SampleRate() beep.SampleRate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *fakeSink) Play(st beep.Streamer) {
	s.mu.Lock()
	s.playing = append(s.playing, st)
	s.mu.Unlock()
}

func (s *fakeSink) Clear() {
	s.mu.Lock()
	s.playing = nil
	s.cleared++
	s.mu.Unlock()
}

func (s *fakeSink) Lock()   { s.lk.Lock() }
func (s *fakeSink) Unlock() { s.lk.Unlock() }

func (s *fakeSink) queued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.playing)
}

// drain streams every queued streamer to its end, like the speaker would.
func (s *fakeSink) drain() {
	s.mu.Lock()
	playing := s.playing
	s.playing = nil
	s.mu.Unlock()

	buf := make([][2]float64, 512)
	s.Lock()
	defer s.Unlock()
	for _, st := range playing {
		for {
			if _, ok := st.Stream(buf); !ok {
				break
			}
		}
	}
}

// queue runs dispatched callbacks on the test goroutine.
type queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queue) Dispatch(fn func()) bool {
	q.mu.Lock()
	q.fns = append(q.fns, fn)
	q.mu.Unlock()
	return true
}

func (q *queue) run() {
	for {
		q.mu.Lock()
		if len(q.fns) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.fns[0]
		q.fns = q.fns[1:]
		q.mu.Unlock()
		fn()
	}
}

type harness struct {
	sink   *fakeSink
	queue  *queue
	device *Device
	el     element.Element
	src    element.SourceElement
	events []element.EventType
}

var allEvents = []element.EventType{
	element.EventLoadedMetadata,
	element.EventCanPlayThrough,
	element.EventPlaying,
	element.EventWaiting,
	element.EventTimeUpdate,
	element.EventEnded,
	element.EventError,
}

func newHarness(t *testing.T, path, mimeType string) *harness {
	t.Helper()
	h := &harness{sink: &fakeSink{}, queue: &queue{}}
	h.device = New(Config{Sink: h.sink}, h.queue, zerolog.Nop())

	el, err := h.device.CreateElement(element.Audio, "audio-1")
	require.NoError(t, err)
	h.el = el
	h.el.SetAutoplay(false)
	h.src = h.device.CreateSource()
	h.src.SetSrc(path)
	h.src.SetType(mimeType)
	h.device.AppendChild(el, h.src)
	h.device.PrependChild(el)

	for _, et := range allEvents {
		el.AddEventListener(et, func() { h.events = append(h.events, et) })
	}
	h.src.AddEventListener(element.EventError, func() { h.events = append(h.events, "source-error") })
	return h
}

// settle waits for background work and runs the dispatched callbacks.
func (h *harness) settle() []element.EventType {
	synctest.Wait()
	h.queue.run()
	events := h.events
	h.events = nil
	return events
}

func (h *harness) load(t *testing.T) {
	t.Helper()
	h.el.Load()
	require.Equal(t, []element.EventType{element.EventLoadedMetadata, element.EventCanPlayThrough}, h.settle())
}

func writeWAV(t *testing.T, d time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	format := beep.Format{SampleRate: testRate, NumChannels: 1, Precision: 2}
	require.NoError(t, wav.Encode(f, beep.Silence(testRate.N(d)), format))
	return path
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoad_ReportsMetadataAndRange(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.load(t)

		ranges, ok := h.el.Seekable()
		assert.True(t, ok)
		assert.Equal(t, []element.TimeRange{{Start: 0, End: time.Second}}, ranges)
		assert.Equal(t, time.Duration(0), h.el.CurrentTime())
		assert.Nil(t, h.el.Error())
		assert.Zero(t, h.sink.queued(), "nothing is queued before Play")
	})
}

func TestLoad_FileURL(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, "file://"+path, "")
		h.load(t)
	})
}

func TestSeekable_BeforeLoad(t *testing.T) {
	h := newHarness(t, "", "")
	ranges, ok := h.el.Seekable()
	assert.True(t, ok)
	assert.Empty(t, ranges)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		path     func(t *testing.T) string
		mimeType string
		want     element.EventType
		code     int
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.wav") },
			want: "source-error",
		},
		{
			name: "remote url",
			path: func(*testing.T) string { return "http://example.com/a.mp3" },
			want: "source-error",
		},
		{
			name: "unsupported format",
			path: func(t *testing.T) string { return writeFile(t, "a.m4a", []byte("ftypM4A ")) },
			want: element.EventError,
			code: element.MediaErrSrcNotSupported,
		},
		{
			name: "truncated ogg",
			path: func(t *testing.T) string { return writeFile(t, "a.ogg", []byte("OggS")) },
			want: element.EventError,
			code: element.MediaErrDecode,
		},
		{
			name:     "corrupt file",
			path:     func(t *testing.T) string { return writeFile(t, "a.bin", bytes.Repeat([]byte{0xAB}, 64)) },
			mimeType: "audio/wav",
			want:     element.EventError,
			code:     element.MediaErrDecode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path(t)
			synctest.Test(t, func(t *testing.T) {
				h := newHarness(t, path, tt.mimeType)
				h.el.Load()
				assert.Equal(t, []element.EventType{tt.want}, h.settle())
				if tt.code == 0 {
					assert.Nil(t, h.el.Error())
					return
				}
				require.NotNil(t, h.el.Error())
				assert.Equal(t, tt.code, h.el.Error().Code)
			})
		})
	}
}

func TestLoad_WithoutSource(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, "", "")
		h.el.Load()
		assert.Empty(t, h.settle())
	})
}

func TestLoad_ReloadDropsStaleResult(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.el.Load()
		h.el.Load()
		assert.Equal(t, []element.EventType{element.EventLoadedMetadata, element.EventCanPlayThrough}, h.settle())
	})
}

func TestPlay_QueuesAndReportsPlaying(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.load(t)

		h.el.Play()
		assert.Equal(t, 1, h.sink.queued())
		assert.Equal(t, testRate, h.sink.SampleRate())
		assert.Equal(t, []element.EventType{element.EventPlaying}, h.settle())

		time.Sleep(600 * time.Millisecond)
		assert.Equal(t, []element.EventType{element.EventTimeUpdate, element.EventTimeUpdate}, h.settle())

		h.el.Pause()
		time.Sleep(time.Second)
		assert.Empty(t, h.settle())

		// Resuming reuses the queued stream
		h.el.Play()
		assert.Equal(t, 1, h.sink.queued())
		assert.Equal(t, []element.EventType{element.EventPlaying}, h.settle())
		h.el.Pause()
	})
}

func TestPlay_PauseBeforeDispatchSuppressesPlaying(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.load(t)

		h.el.Play()
		h.el.Pause()
		assert.Empty(t, h.settle())
	})
}

func TestAutoplay(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.el.SetAutoplay(true)
		h.el.Load()
		assert.Equal(t, []element.EventType{
			element.EventLoadedMetadata,
			element.EventCanPlayThrough,
			element.EventPlaying,
		}, h.settle())
		h.el.Pause()
	})
}

func TestPlay_EndedAtEndOfStream(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.load(t)
		h.el.Play()
		h.settle()

		h.sink.drain()
		assert.Equal(t, []element.EventType{element.EventEnded}, h.settle())
		assert.Equal(t, time.Second, h.el.CurrentTime())

		// No ticks after the end
		time.Sleep(time.Second)
		assert.Empty(t, h.settle())

		// Playing again after a seek queues the stream anew
		h.el.SetCurrentTime(0)
		h.el.Play()
		assert.Equal(t, 1, h.sink.queued())
		assert.Equal(t, []element.EventType{element.EventCanPlayThrough, element.EventPlaying}, h.settle())
		h.el.Pause()
	})
}

func TestSetCurrentTime(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.load(t)

		h.el.SetCurrentTime(500 * time.Millisecond)
		assert.Equal(t, 500*time.Millisecond, h.el.CurrentTime())
		assert.Equal(t, []element.EventType{element.EventCanPlayThrough}, h.settle())

		h.el.SetCurrentTime(5 * time.Second)
		assert.Equal(t, time.Second, h.el.CurrentTime())
		h.settle()

		h.el.SetCurrentTime(-time.Second)
		assert.Equal(t, time.Duration(0), h.el.CurrentTime())
	})
}

func TestSetCurrentTime_BeforeLoadIgnored(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, "", "")
		h.el.SetCurrentTime(time.Second)
		assert.Empty(t, h.settle())
		assert.Equal(t, time.Duration(0), h.el.CurrentTime())
	})
}

func TestRemoveElement_StopsOutput(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.load(t)
		h.el.Play()
		h.el.SetCurrentTime(200 * time.Millisecond)

		h.device.RemoveElement(h.el)
		assert.Equal(t, 1, h.sink.cleared)
		assert.Zero(t, h.sink.queued())

		time.Sleep(time.Second)
		assert.Empty(t, h.settle(), "pending events of a removed element are dropped")
		ranges, _ := h.el.Seekable()
		assert.Empty(t, ranges)
	})
}

func TestRemoveElement_DuringLoad(t *testing.T) {
	path := writeWAV(t, time.Second)
	synctest.Test(t, func(t *testing.T) {
		h := newHarness(t, path, "audio/wav")
		h.el.Load()
		h.device.RemoveElement(h.el)
		assert.Empty(t, h.settle())
	})
}

func TestCreateElement_Video(t *testing.T) {
	d := New(Config{Sink: &fakeSink{}}, element.Immediate, zerolog.Nop())
	_, err := d.CreateElement(element.Video, "video-1")
	assert.ErrorIs(t, err, ErrVideoUnsupported)
}
