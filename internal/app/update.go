package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/mediaplayer/internal/errmsg"
	"github.com/llehouerou/mediaplayer/internal/keymap"
	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
)

// Init starts listening for player events and the refresh ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.refreshCmd(), tickCmd())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case PlayerEventMsg:
		m.applyEvent(msg.Event)
		return m, tea.Batch(m.waitForEvent(), m.refreshCmd())

	case SubscriptionClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case SnapshotMsg:
		if msg.Err != nil {
			m.flash = errmsg.Format(errmsg.OpPlayerQuery, msg.Err)
			return m, nil
		}
		m.snap = msg.Snapshot
		return m, nil

	case CommandResultMsg:
		m.flash = errmsg.Format(actionOp(msg.Action), msg.Err)
		return m, m.refreshCmd()

	case TickMsg:
		if m.quitting {
			return m, nil
		}
		return m, tea.Batch(m.refreshCmd(), tickCmd())
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a := m.keys.Lookup(msg.String()); a {
	case "":
		return m, nil
	case keymap.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
		return m, nil
	default:
		return m, m.actionCmd(a)
	}
}

// applyEvent updates the view from an event before the next snapshot
// arrives, so state changes show without waiting for the ticker.
func (m *Model) applyEvent(e mediaplayer.Event) {
	m.snap.State = e.State
	if e.HasPosition {
		m.snap.Position = e.Position
		m.snap.HasPosition = true
	}
	switch e.Kind {
	case mediaplayer.EventError:
		m.snap.Message = e.Message
	case mediaplayer.EventStopped:
		m.snap.HasPosition = false
		m.snap.HasRange = false
	}
}
