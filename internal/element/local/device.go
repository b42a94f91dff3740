// Package local plays audio elements in process: files are decoded with
// beep and mixed to the system speaker.
package local

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/element"
)

// DefaultTimeUpdateInterval is the period of timeupdate events while playing.
const DefaultTimeUpdateInterval = 250 * time.Millisecond

// ErrVideoUnsupported is returned when a video element is requested.
var ErrVideoUnsupported = errors.New("local backend cannot play video")

// Config configures the local device.
type Config struct {
	// Sink defaults to the system speaker.
	Sink Sink
	// TimeUpdateInterval defaults to DefaultTimeUpdateInterval.
	TimeUpdateInterval time.Duration
	// Volume is a gain in powers of two; 0 leaves samples unchanged.
	Volume float64
}

// Device creates local audio elements.
type Device struct {
	sink       Sink
	dispatcher element.Dispatcher
	log        zerolog.Logger
	interval   time.Duration
	volume     float64
}

// New creates a device delivering element events through dispatcher.
func New(cfg Config, dispatcher element.Dispatcher, log zerolog.Logger) *Device {
	if cfg.Sink == nil {
		cfg.Sink = &Speaker{}
	}
	if cfg.TimeUpdateInterval <= 0 {
		cfg.TimeUpdateInterval = DefaultTimeUpdateInterval
	}
	return &Device{
		sink:       cfg.Sink,
		dispatcher: dispatcher,
		log:        log.With().Str("backend", "local").Logger(),
		interval:   cfg.TimeUpdateInterval,
		volume:     cfg.Volume,
	}
}

func (d *Device) CreateElement(kind element.Kind, id string) (element.Element, error) {
	if kind != element.Audio {
		return nil, ErrVideoUnsupported
	}
	return newElement(id, d), nil
}

func (d *Device) CreateSource() element.SourceElement {
	return &element.Source{}
}

// PrependChild has nothing to attach; local elements produce sound only
// while playing.
func (d *Device) PrependChild(el element.Element) {
	if _, ok := el.(*Element); !ok {
		d.log.Error().Str("element", el.ID()).Msg("element was not created by this device")
	}
}

func (d *Device) AppendChild(parent element.Element, child element.SourceElement) {
	e, ok := parent.(*Element)
	if !ok {
		d.log.Error().Str("element", parent.ID()).Msg("element was not created by this device")
		return
	}
	src, ok := child.(*element.Source)
	if !ok {
		d.log.Error().Str("element", parent.ID()).Msg("source was not created by this device")
		return
	}
	e.setSource(src)
}

// RemoveElement stops output and releases the decoder.
func (d *Device) RemoveElement(el element.Element) {
	if e, ok := el.(*Element); ok {
		e.unload()
	}
}
