package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/mediaplayer/internal/keymap"
	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
)

// waitForEvent waits for the next player event. A closed subscription ends
// the wait.
func (m Model) waitForEvent() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.Events:
			return PlayerEventMsg{Event: e}
		case <-sub.Done:
			return SubscriptionClosedMsg{}
		}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// refreshCmd reads a snapshot on the player goroutine.
func (m Model) refreshCmd() tea.Cmd {
	run := m.run
	return func() tea.Msg {
		var snap Snapshot
		err := run.Do(func(p mediaplayer.MediaPlayer) error {
			snap = takeSnapshot(p)
			return nil
		})
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

func takeSnapshot(p mediaplayer.MediaPlayer) Snapshot {
	s := Snapshot{State: p.State()}
	s.Position, s.HasPosition = p.CurrentTime()
	s.Range, s.HasRange = p.Range()
	if err := p.Err(); err != nil {
		s.Message = err.Error()
	}
	return s
}

// actionCmd runs a key action on the player goroutine.
func (m Model) actionCmd(a keymap.Action) tea.Cmd {
	run, src := m.run, m.media
	return func() tea.Msg {
		err := run.Do(func(p mediaplayer.MediaPlayer) error {
			return apply(p, a, src)
		})
		return CommandResultMsg{Action: a, Err: err}
	}
}
