package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/mediaplayer/internal/element"
	"github.com/llehouerou/mediaplayer/internal/keymap"
	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
	"github.com/llehouerou/mediaplayer/internal/tags"
)

const testURL = "/music/song.flac"

var testRange = element.TimeRange{Start: 0, End: 100 * time.Second}

// direct runs player functions on the test goroutine.
func direct(p mediaplayer.MediaPlayer) Runner {
	return RunnerFunc(func(fn func(mediaplayer.MediaPlayer) error) error { return fn(p) })
}

func newStopped(t *testing.T) (*mediaplayer.Player, *element.MockElement) {
	t.Helper()
	dev := element.NewMockDevice()
	p := mediaplayer.New(dev)
	require.NoError(t, p.SetSource(mediaplayer.MediaTypeAudio, testURL, "audio/flac"))
	el := dev.Last()
	el.SetSeekable(testRange)
	return p, el
}

func newPlaying(t *testing.T) (*mediaplayer.Player, *element.MockElement) {
	t.Helper()
	p, el := newStopped(t)
	require.NoError(t, p.PlayFrom(0))
	el.Fire(element.EventLoadedMetadata)
	el.Fire(element.EventCanPlayThrough)
	require.Equal(t, mediaplayer.StatePlaying, p.State())
	return p, el
}

func newModel(p *mediaplayer.Player) Model {
	return New(direct(p), p.Subscribe(), testMedia)
}

var testMedia = Media{
	URL:      testURL,
	MimeType: "audio/flac",
	Type:     mediaplayer.MediaTypeAudio,
	Info:     tags.Info{Title: "Song", Artist: "Artist"},
}

func key(s string) tea.KeyMsg {
	switch s {
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and runs the resulting command.
func press(t *testing.T, m Model, s string) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(key(s))
	result, ok := next.(Model)
	require.True(t, ok, "Update should return Model")
	if cmd == nil {
		return result, nil
	}
	return result, cmd()
}

func TestApply(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) (*mediaplayer.Player, *element.MockElement)
		action keymap.Action
		want   mediaplayer.State
		seek   time.Duration
	}{
		{"pause while playing", newPlaying, keymap.ActionPlayPause, mediaplayer.StatePaused, -1},
		{"play from stopped", newStopped, keymap.ActionPlayPause, mediaplayer.StateBuffering, -1},
		{"stop", newPlaying, keymap.ActionStop, mediaplayer.StateStopped, -1},
		{"seek forward", newPlaying, keymap.ActionSeekForward, mediaplayer.StateBuffering, 10 * time.Second},
		{"seek back at start reaffirms", newPlaying, keymap.ActionSeekBack, mediaplayer.StatePlaying, -1},
		{"seek to end clamps before end", newPlaying, keymap.ActionSeekEnd, mediaplayer.StateBuffering, 100*time.Second - 1100*time.Millisecond},
		{"reset from stopped reloads", newStopped, keymap.ActionReset, mediaplayer.StateStopped, -1},
		{"reset ignored while playing", newPlaying, keymap.ActionReset, mediaplayer.StatePlaying, -1},
		{"seek ignored while stopped", newStopped, keymap.ActionSeekForward, mediaplayer.StateStopped, -1},
		{"stop ignored while stopped", newStopped, keymap.ActionStop, mediaplayer.StateStopped, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, el := tt.setup(t)
			before := len(el.SeekCalls())
			require.NoError(t, apply(p, tt.action, testMedia))
			assert.Equal(t, tt.want, p.State())
			if tt.seek >= 0 {
				seeks := el.SeekCalls()
				require.Len(t, seeks, before+1)
				assert.Equal(t, tt.seek, seeks[len(seeks)-1])
			}
		})
	}
}

func TestApply_PausedResumes(t *testing.T) {
	p, el := newPlaying(t)
	require.NoError(t, p.Pause())
	require.NoError(t, apply(p, keymap.ActionPlayPause, testMedia))
	el.Fire(element.EventPlaying)
	assert.Equal(t, mediaplayer.StatePlaying, p.State())
}

func TestApply_CompleteRestartsFromStart(t *testing.T) {
	p, el := newPlaying(t)
	el.SetPosition(testRange.End)
	el.Fire(element.EventEnded)
	require.Equal(t, mediaplayer.StateComplete, p.State())

	require.NoError(t, apply(p, keymap.ActionPlayPause, testMedia))
	seeks := el.SeekCalls()
	assert.Equal(t, time.Duration(0), seeks[len(seeks)-1])
	assert.Equal(t, mediaplayer.StateBuffering, p.State())
}

func TestApply_EmptyIgnoresEverything(t *testing.T) {
	p := mediaplayer.New(element.NewMockDevice())
	for _, b := range keymap.All {
		require.NoError(t, apply(p, b.Action, testMedia), b.Action)
		assert.Equal(t, mediaplayer.StateEmpty, p.State(), b.Action)
	}
}

func TestApply_ResetReloadsAfterError(t *testing.T) {
	dev := element.NewMockDevice()
	p := mediaplayer.New(dev)
	require.NoError(t, p.SetSource(testMedia.Type, testMedia.URL, testMedia.MimeType))
	failed := dev.Last()
	require.NoError(t, p.PlayFrom(0))
	failed.SetMediaError(element.MediaErrDecode)
	failed.Fire(element.EventError)
	require.Equal(t, mediaplayer.StateError, p.State())

	require.NoError(t, apply(p, keymap.ActionReset, testMedia))
	assert.Equal(t, mediaplayer.StateStopped, p.State())
	assert.NoError(t, p.Err())
	require.Len(t, dev.Elements(), 2)
	assert.NotSame(t, failed, dev.Last())

	require.NoError(t, apply(p, keymap.ActionPlayPause, testMedia))
	assert.Equal(t, mediaplayer.StateBuffering, p.State())
	dev.Last().Fire(element.EventLoadedMetadata)
	dev.Last().Fire(element.EventCanPlayThrough)
	assert.Equal(t, mediaplayer.StatePlaying, p.State())
}

func TestUpdate_ResetKeyLeavesPlayableSource(t *testing.T) {
	p, _ := newStopped(t)
	m := newModel(p)

	m, msg := press(t, m, "r")
	res, ok := msg.(CommandResultMsg)
	require.True(t, ok)
	require.NoError(t, res.Err)

	next, cmd := m.Update(res)
	require.NotNil(t, cmd)
	next, _ = next.Update(cmd())
	assert.Equal(t, mediaplayer.StateStopped, next.(Model).Snapshot().State)

	_, msg = press(t, next.(Model), "space")
	require.NoError(t, msg.(CommandResultMsg).Err)
	assert.Equal(t, mediaplayer.StateBuffering, p.State())
}

func TestUpdate_KeyIssuesCommand(t *testing.T) {
	p, _ := newPlaying(t)
	m := newModel(p)

	m, msg := press(t, m, "space")
	res, ok := msg.(CommandResultMsg)
	require.True(t, ok)
	assert.Equal(t, keymap.ActionPlayPause, res.Action)
	require.NoError(t, res.Err)
	assert.Equal(t, mediaplayer.StatePaused, p.State())

	next, cmd := m.Update(res)
	require.NotNil(t, cmd, "a command result triggers a refresh")
	snap, ok := cmd().(SnapshotMsg)
	require.True(t, ok)
	next, _ = next.Update(snap)
	assert.Equal(t, mediaplayer.StatePaused, next.(Model).Snapshot().State)
	assert.Empty(t, next.(Model).Flash())
}

func TestUpdate_CommandErrorFlashes(t *testing.T) {
	p, _ := newPlaying(t)
	failing := RunnerFunc(func(func(mediaplayer.MediaPlayer) error) error {
		return errors.New("loop closed")
	})
	m := New(failing, p.Subscribe(), Media{URL: testURL})

	m, msg := press(t, m, "s")
	next, _ := m.Update(msg)
	assert.Equal(t, "Failed to stop playback: loop closed", next.(Model).Flash())
}

func TestUpdate_UnboundKeyDoesNothing(t *testing.T) {
	p, _ := newPlaying(t)
	_, msg := press(t, newModel(p), "x")
	assert.Nil(t, msg)
}

func TestUpdate_Quit(t *testing.T) {
	p, _ := newPlaying(t)
	m, msg := press(t, newModel(p), "q")
	assert.IsType(t, tea.QuitMsg{}, msg)
	assert.Empty(t, m.View())
}

func TestUpdate_HelpToggle(t *testing.T) {
	p, _ := newPlaying(t)
	m, _ := press(t, newModel(p), "?")
	assert.Contains(t, m.View(), "Seek +10s")
	m, _ = press(t, m, "?")
	assert.NotContains(t, m.View(), "Seek +10s")
}

func TestUpdate_PlayerEvents(t *testing.T) {
	p, _ := newStopped(t)
	m := newModel(p)

	require.NoError(t, p.PlayFrom(0))
	msg := m.waitForEvent()()
	ev, ok := msg.(PlayerEventMsg)
	require.True(t, ok)
	assert.Equal(t, mediaplayer.EventBuffering, ev.Event.Kind)

	next, cmd := m.Update(ev)
	assert.NotNil(t, cmd, "keeps waiting for events")
	assert.Equal(t, mediaplayer.StateBuffering, next.(Model).Snapshot().State)
}

func TestUpdate_SubscriptionClosedQuits(t *testing.T) {
	p, _ := newPlaying(t)
	m := newModel(p)
	p.Close()

	msg := m.waitForEvent()()
	// Events buffered before Close may arrive first
	for {
		if _, ok := msg.(SubscriptionClosedMsg); ok {
			break
		}
		msg = m.waitForEvent()()
	}
	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	p, el := newPlaying(t)
	el.SetPosition(83 * time.Second)
	m := newModel(p)
	next, _ := m.Update(m.refreshCmd()())
	next, _ = next.Update(tea.WindowSizeMsg{Width: 100, Height: 20})

	view := next.View()
	for _, want := range []string{"mediaplayer", "audio · audio/flac", testURL, "PLAYING", "Song", "Artist", "1:23", "1:40", "space pause"} {
		assert.True(t, strings.Contains(view, want), "view missing %q:\n%s", want, view)
	}
}

func TestTakeSnapshot_Error(t *testing.T) {
	p, el := newPlaying(t)
	el.SetMediaError(element.MediaErrDecode)
	el.Fire(element.EventError)

	snap := takeSnapshot(p)
	assert.Equal(t, mediaplayer.StateError, snap.State)
	assert.False(t, snap.HasPosition)
	assert.False(t, snap.HasRange)
	assert.Equal(t, "media element emitted error with code: 3", snap.Message)
}
