// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Startup
	OpConfigLoad   Op = "load configuration"
	OpLogOpen      Op = "open log file"
	OpBackendStart Op = "start playback backend"
	OpJournalOpen  Op = "open playback journal"

	// Source operations
	OpSourceLoad  Op = "load source"
	OpSourceReset Op = "reload source"

	// Playback operations
	OpPlaybackStart  Op = "start playback"
	OpPlaybackToggle Op = "pause or resume playback"
	OpPlaybackSeek   Op = "seek"
	OpPlaybackStop   Op = "stop playback"
	OpPlayerQuery    Op = "read player state"

	// Journal queries
	OpHistoryRead Op = "read playback history"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// Wrap returns err annotated with op, for errors returned to the command
// line rather than shown in the view.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
