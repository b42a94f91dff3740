package journal

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
)

// Recorder turns player events into journal rows.
type Recorder struct {
	journal *Journal
	log     zerolog.Logger

	sessionID     string
	playerSession uint64
	lastState     string
}

// NewRecorder creates a recorder writing to j.
func NewRecorder(j *Journal, log zerolog.Logger) *Recorder {
	return &Recorder{journal: j, log: log}
}

// SessionID returns the journal id of the open session, or "".
func (r *Recorder) SessionID() string { return r.sessionID }

// Handle records one player event. Status events only update the debounced
// position; every other event is a transition.
func (r *Recorder) Handle(ctx context.Context, e mediaplayer.Event) error {
	if e.Session == 0 {
		// Rejected commands before any source was set
		return nil
	}

	if e.Session != r.playerSession {
		if err := r.end(ctx, ""); err != nil {
			return err
		}
		id, err := r.journal.StartSession(ctx, Session{
			PlayerSession: e.Session,
			Source:        e.Source,
			MimeType:      e.MimeType,
			MediaType:     e.MediaType.String(),
			FinalState:    e.State.String(),
		})
		if err != nil {
			return err
		}
		r.sessionID = id
		r.playerSession = e.Session
		r.log.Debug().Str("session", id).Str("source", e.Source).Msg("journal session started")
	}

	if r.sessionID == "" {
		return nil
	}

	if e.Kind == mediaplayer.EventStatus {
		if e.HasPosition {
			r.journal.SavePosition(r.sessionID, e.Position)
		}
		return nil
	}

	err := r.journal.RecordTransition(ctx, r.sessionID, Transition{
		State:       e.State.String(),
		Position:    e.Position,
		HasPosition: e.HasPosition,
		Message:     e.Message,
	})
	if err != nil {
		return err
	}
	r.lastState = e.State.String()

	if e.Kind == mediaplayer.EventError {
		return r.end(ctx, e.Message)
	}
	return nil
}

// Close ends the open session, if any.
func (r *Recorder) Close(ctx context.Context) error {
	return r.end(ctx, "")
}

func (r *Recorder) end(ctx context.Context, errMsg string) error {
	if r.sessionID == "" {
		return nil
	}
	id := r.sessionID
	r.sessionID = ""
	return r.journal.EndSession(ctx, id, r.lastState, errMsg)
}

// Watch records events from sub until ctx is canceled or the subscription is
// closed, then ends the open session.
func (r *Recorder) Watch(ctx context.Context, sub *mediaplayer.Subscription) error {
	defer func() {
		if err := r.Close(context.WithoutCancel(ctx)); err != nil {
			r.log.Warn().Err(err).Msg("failed to end journal session")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-sub.Events:
			r.handle(ctx, e)
		case <-sub.Done:
			// Events emitted before the close are still buffered
			for {
				select {
				case e := <-sub.Events:
					r.handle(ctx, e)
				default:
					return nil
				}
			}
		}
	}
}

func (r *Recorder) handle(ctx context.Context, e mediaplayer.Event) {
	if err := r.Handle(ctx, e); err != nil {
		r.log.Warn().Err(err).Str("event", e.Kind.String()).Msg("failed to record player event")
	}
}
