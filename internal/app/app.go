// Package app is the terminal view of a playing source. It shows the player
// state and forwards key presses as player commands.
package app

import (
	"time"

	"github.com/llehouerou/mediaplayer/internal/keymap"
	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
	"github.com/llehouerou/mediaplayer/internal/tags"
)

const (
	// SeekStep is the distance of a relative seek.
	SeekStep = 10 * time.Second

	refreshInterval = 250 * time.Millisecond
	defaultWidth    = 80
)

// Runner executes fn on the goroutine that owns the player and returns its
// error. The player is not safe for concurrent use, so the view never calls
// it directly.
type Runner interface {
	Do(fn func(mediaplayer.MediaPlayer) error) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(fn func(mediaplayer.MediaPlayer) error) error

func (f RunnerFunc) Do(fn func(mediaplayer.MediaPlayer) error) error { return f(fn) }

// Media describes the loaded source for display.
type Media struct {
	URL      string
	MimeType string
	Type     mediaplayer.MediaType
	Info     tags.Info
}

// Snapshot is the player state read on the player goroutine.
type Snapshot struct {
	State       mediaplayer.State
	Position    time.Duration
	HasPosition bool
	Range       mediaplayer.Range
	HasRange    bool
	Message     string
}

// Model is the bubbletea model of the player view.
type Model struct {
	run   Runner
	sub   *mediaplayer.Subscription
	keys  *keymap.Map
	media Media

	snap     Snapshot
	flash    string
	showHelp bool
	quitting bool

	Width  int
	Height int
}

// New creates the view. sub must come from the player driven by run.
func New(run Runner, sub *mediaplayer.Subscription, media Media) Model {
	return Model{
		run:   run,
		sub:   sub,
		keys:  keymap.New(keymap.All),
		media: media,
		Width: defaultWidth,
	}
}

// Snapshot returns the last player state shown.
func (m Model) Snapshot() Snapshot { return m.snap }

// Flash returns the last command error message, if any.
func (m Model) Flash() string { return m.flash }
