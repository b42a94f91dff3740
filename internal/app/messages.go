package app

import (
	"time"

	"github.com/llehouerou/mediaplayer/internal/keymap"
	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
)

// PlayerEventMsg carries an event from the player subscription.
type PlayerEventMsg struct {
	Event mediaplayer.Event
}

// SubscriptionClosedMsg is sent when the player closes the subscription.
type SubscriptionClosedMsg struct{}

// SnapshotMsg carries a fresh player snapshot.
type SnapshotMsg struct {
	Snapshot Snapshot
	Err      error
}

// CommandResultMsg reports the outcome of a key action.
type CommandResultMsg struct {
	Action keymap.Action
	Err    error
}

// TickMsg triggers a periodic refresh.
type TickMsg time.Time
