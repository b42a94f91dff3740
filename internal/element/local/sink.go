package local

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Sink is the audio output. Streamers passed to Play are pulled from the
// output goroutine; Lock guards them against concurrent access.
type Sink interface {
	// Init prepares the output for sr. Only the first call has an effect.
	Init(sr beep.SampleRate) error
	SampleRate() beep.SampleRate
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
}

// Speaker is the Sink backed by the system audio device.
type Speaker struct {
	once       sync.Once
	err        error
	sampleRate beep.SampleRate
}

func (s *Speaker) Init(sr beep.SampleRate) error {
	s.once.Do(func() {
		s.sampleRate = sr
		s.err = speaker.Init(sr, sr.N(time.Second/10))
	})
	return s.err
}

func (s *Speaker) SampleRate() beep.SampleRate { return s.sampleRate }

func (s *Speaker) Play(st beep.Streamer) { speaker.Play(st) }

func (s *Speaker) Clear() { speaker.Clear() }

func (s *Speaker) Lock() { speaker.Lock() }

func (s *Speaker) Unlock() { speaker.Unlock() }
