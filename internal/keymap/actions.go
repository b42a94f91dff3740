// Package keymap defines the key bindings of the player view.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	ActionQuit        Action = "quit"
	ActionPlayPause   Action = "play_pause"
	ActionPlay        Action = "play"
	ActionRestart     Action = "restart"
	ActionStop        Action = "stop"
	ActionReset       Action = "reset"
	ActionSeekForward Action = "seek_forward"
	ActionSeekBack    Action = "seek_back"
	ActionSeekEnd     Action = "seek_end"
	ActionHelp        Action = "help"
)
