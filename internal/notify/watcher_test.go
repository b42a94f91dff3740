package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
	"github.com/llehouerou/mediaplayer/internal/tags"
)

// mockNotifier records notifications for testing.
type mockNotifier struct {
	notifications []Notification
	lastID        uint32
	err           error
}

func (m *mockNotifier) Notify(n Notification) (uint32, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.lastID++
	m.notifications = append(m.notifications, n)
	return m.lastID, nil
}

func (m *mockNotifier) Close(_ uint32) error {
	return nil
}

var testInfo = tags.Info{Title: "Test Song", Artist: "Test Artist", Album: "Test Album"}

func allOn() Options {
	return Options{NowPlaying: true, Errors: true, Timeout: 5 * time.Second}
}

func TestWatcherNowPlaying(t *testing.T) {
	mock := &mockNotifier{}
	w := NewWatcher(mock, testInfo, allOn(), zerolog.Nop())

	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventBuffering, Session: 1})
	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPlaying, Session: 1})

	if len(mock.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(mock.notifications))
	}
	n := mock.notifications[0]
	if n.Title != "Test Song" {
		t.Errorf("Title = %q, want %q", n.Title, "Test Song")
	}
	if n.Body != "Test Artist · Test Album" {
		t.Errorf("Body = %q, want %q", n.Body, "Test Artist · Test Album")
	}
	if n.Urgency != UrgencyLow {
		t.Errorf("Urgency = %d, want UrgencyLow", n.Urgency)
	}
	if n.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", n.Timeout)
	}
}

func TestWatcherAnnouncesOncePerSession(t *testing.T) {
	mock := &mockNotifier{}
	w := NewWatcher(mock, testInfo, allOn(), zerolog.Nop())

	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPlaying, Session: 1})
	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPaused, Session: 1})
	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPlaying, Session: 1})
	if len(mock.notifications) != 1 {
		t.Fatalf("expected 1 notification after resume, got %d", len(mock.notifications))
	}

	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPlaying, Session: 2})
	if len(mock.notifications) != 2 {
		t.Fatalf("expected 2 notifications after new session, got %d", len(mock.notifications))
	}
	if mock.notifications[1].ReplacesID != 1 {
		t.Errorf("ReplacesID = %d, want 1", mock.notifications[1].ReplacesID)
	}
}

func TestWatcherError(t *testing.T) {
	mock := &mockNotifier{}
	w := NewWatcher(mock, testInfo, allOn(), zerolog.Nop())

	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventError, Session: 1, Message: "boom"})

	if len(mock.notifications) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(mock.notifications))
	}
	n := mock.notifications[0]
	if n.Title != "Playback failed" || n.Body != "boom" {
		t.Errorf("notification = %q/%q", n.Title, n.Body)
	}
	if n.Urgency != UrgencyCritical {
		t.Errorf("Urgency = %d, want UrgencyCritical", n.Urgency)
	}
}

func TestWatcherDisabled(t *testing.T) {
	mock := &mockNotifier{}
	w := NewWatcher(mock, testInfo, Options{}, zerolog.Nop())

	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPlaying, Session: 1})
	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventError, Session: 1, Message: "x"})

	if len(mock.notifications) != 0 {
		t.Errorf("expected no notifications, got %d", len(mock.notifications))
	}
}

func TestWatcherNilNotifier(_ *testing.T) {
	w := NewWatcher(nil, testInfo, allOn(), zerolog.Nop())
	// Should not panic
	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPlaying, Session: 1})
}

func TestWatcherNotifyFailure(t *testing.T) {
	mock := &mockNotifier{err: errors.New("no bus")}
	w := NewWatcher(mock, testInfo, allOn(), zerolog.Nop())

	w.Handle(mediaplayer.Event{Kind: mediaplayer.EventPlaying, Session: 1})
	if w.lastID != 0 {
		t.Errorf("lastID = %d, want 0", w.lastID)
	}
}

func TestNowPlayingBody(t *testing.T) {
	tests := []struct {
		info tags.Info
		want string
	}{
		{tags.Info{}, ""},
		{tags.Info{Artist: "A"}, "A"},
		{tags.Info{Album: "B"}, "B"},
		{tags.Info{Artist: "A", Album: "B"}, "A · B"},
	}
	for _, tt := range tests {
		if got := nowPlayingBody(tt.info); got != tt.want {
			t.Errorf("nowPlayingBody(%+v) = %q, want %q", tt.info, got, tt.want)
		}
	}
}

func TestWatcherWatchStopsOnDone(t *testing.T) {
	var bus mediaplayer.Bus
	sub := bus.Subscribe()
	mock := &mockNotifier{}
	w := NewWatcher(mock, testInfo, allOn(), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		w.Watch(context.Background(), sub)
		close(done)
	}()

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after the bus closed")
	}
}
