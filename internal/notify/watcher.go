package notify

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
	"github.com/llehouerou/mediaplayer/internal/tags"
)

// Options selects which player events produce notifications.
type Options struct {
	NowPlaying bool
	Errors     bool
	Timeout    time.Duration
}

// Watcher turns player events into desktop notifications.
type Watcher struct {
	notifier Notifier
	opts     Options
	info     tags.Info
	log      zerolog.Logger

	session   uint64
	announced bool
	lastID    uint32
}

// NewWatcher creates a watcher that describes the playing source with info.
func NewWatcher(n Notifier, info tags.Info, opts Options, log zerolog.Logger) *Watcher {
	if n == nil {
		n = Nop{}
	}
	return &Watcher{notifier: n, opts: opts, info: info, log: log}
}

// Handle sends the notification for e, if any. Only the first playing event
// of a session announces the track.
func (w *Watcher) Handle(e mediaplayer.Event) {
	if e.Session != w.session {
		w.session = e.Session
		w.announced = false
	}

	switch e.Kind {
	case mediaplayer.EventPlaying:
		if !w.opts.NowPlaying || w.announced {
			return
		}
		w.announced = true
		w.send(Notification{
			Title:      w.info.Title,
			Body:       nowPlayingBody(w.info),
			Timeout:    w.opts.Timeout,
			ReplacesID: w.lastID,
			Urgency:    UrgencyLow,
		})
	case mediaplayer.EventError:
		if !w.opts.Errors {
			return
		}
		w.send(Notification{
			Title:      "Playback failed",
			Body:       e.Message,
			Timeout:    w.opts.Timeout,
			ReplacesID: w.lastID,
			Urgency:    UrgencyCritical,
		})
	default:
	}
}

// Watch handles events from sub until ctx is canceled or the subscription
// is closed.
func (w *Watcher) Watch(ctx context.Context, sub *mediaplayer.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Done:
			return
		case e := <-sub.Events:
			w.Handle(e)
		}
	}
}

func (w *Watcher) send(n Notification) {
	id, err := w.notifier.Notify(n)
	if err != nil {
		w.log.Warn().Err(err).Str("title", n.Title).Msg("failed to send notification")
		return
	}
	if id != 0 {
		w.lastID = id
	}
}

func nowPlayingBody(info tags.Info) string {
	var parts []string
	if info.Artist != "" {
		parts = append(parts, info.Artist)
	}
	if info.Album != "" {
		parts = append(parts, info.Album)
	}
	return strings.Join(parts, " · ")
}
