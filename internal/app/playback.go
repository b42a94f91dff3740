package app

import (
	"time"

	"github.com/llehouerou/mediaplayer/internal/errmsg"
	"github.com/llehouerou/mediaplayer/internal/keymap"
	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
)

// apply issues the command bound to a. Actions that the current state
// does not accept are ignored, so a key press never forces the player into
// its error state. Reset reloads src into a fresh element.
func apply(p mediaplayer.MediaPlayer, a keymap.Action, src Media) error {
	st := p.State()
	switch a {
	case keymap.ActionPlayPause:
		switch st {
		case mediaplayer.StatePlaying, mediaplayer.StateBuffering:
			return p.Pause()
		case mediaplayer.StatePaused:
			return p.Resume()
		case mediaplayer.StateStopped:
			return p.PlayFrom(0)
		case mediaplayer.StateComplete:
			return p.PlayFrom(rangeStart(p))
		}

	case keymap.ActionPlay:
		if canPlay(st) {
			pos, _ := p.CurrentTime()
			return p.PlayFrom(pos)
		}

	case keymap.ActionRestart:
		if canPlay(st) {
			return p.PlayFrom(rangeStart(p))
		}

	case keymap.ActionSeekForward, keymap.ActionSeekBack:
		if !canPlay(st) || st == mediaplayer.StateStopped {
			return nil
		}
		pos, _ := p.CurrentTime()
		if a == keymap.ActionSeekForward {
			return p.PlayFrom(pos + SeekStep)
		}
		return p.PlayFrom(max(pos-SeekStep, rangeStart(p)))

	case keymap.ActionSeekEnd:
		if r, ok := p.Range(); ok && canPlay(st) && st != mediaplayer.StateStopped {
			return p.PlayFrom(r.End)
		}

	case keymap.ActionStop:
		if st.CanStop() {
			return p.Stop()
		}

	case keymap.ActionReset:
		if !st.CanReset() {
			return nil
		}
		if err := p.Reset(); err != nil {
			return err
		}
		return p.SetSource(src.Type, src.URL, src.MimeType)
	}
	return nil
}

func canPlay(st mediaplayer.State) bool {
	return st != mediaplayer.StateEmpty && st != mediaplayer.StateError
}

func rangeStart(p mediaplayer.MediaPlayer) time.Duration {
	if r, ok := p.Range(); ok {
		return r.Start
	}
	return 0
}

// actionOp names the operation an action performs, for error messages.
func actionOp(a keymap.Action) errmsg.Op {
	switch a {
	case keymap.ActionPlayPause:
		return errmsg.OpPlaybackToggle
	case keymap.ActionStop:
		return errmsg.OpPlaybackStop
	case keymap.ActionReset:
		return errmsg.OpSourceReset
	case keymap.ActionSeekForward, keymap.ActionSeekBack, keymap.ActionSeekEnd:
		return errmsg.OpPlaybackSeek
	default:
		return errmsg.OpPlaybackStart
	}
}
