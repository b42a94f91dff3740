package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/llehouerou/mediaplayer/internal/app"
	"github.com/llehouerou/mediaplayer/internal/config"
	"github.com/llehouerou/mediaplayer/internal/element"
	"github.com/llehouerou/mediaplayer/internal/element/local"
	"github.com/llehouerou/mediaplayer/internal/element/mpv"
	"github.com/llehouerou/mediaplayer/internal/errmsg"
	"github.com/llehouerou/mediaplayer/internal/journal"
	"github.com/llehouerou/mediaplayer/internal/loop"
	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
	"github.com/llehouerou/mediaplayer/internal/notify"
	"github.com/llehouerou/mediaplayer/internal/stderr"
	"github.com/llehouerou/mediaplayer/internal/tags"
)

const shutdownTimeout = 5 * time.Second

var (
	playType   string
	playMime   string
	playFrom   time.Duration
	playResume bool
	playNoUI   bool
)

var playCmd = &cobra.Command{
	Use:   "play <file-or-url>",
	Short: "Play a source",
	Long: `Play a local file or URL and show its playback state.

Examples:
  mediaplayer play song.flac               # Play a local file
  mediaplayer play --from 1m30s movie.mkv  # Start at 1:30
  mediaplayer play --resume podcast.mp3    # Continue where the last session stopped
  mediaplayer play --no-ui https://example.com/live.m3u8

Keyboard shortcuts:
  Space        Pause/resume
  Left/Right   Seek -10s/+10s
  s            Stop
  r            Reload source
  ?            Help
  q, Ctrl+C    Quit`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playType, "type", "", `media type, "audio" or "video" (default: from the MIME type)`)
	playCmd.Flags().StringVar(&playMime, "mime", "", "MIME type of the source (default: from the file extension)")
	playCmd.Flags().DurationVar(&playFrom, "from", 0, "start position")
	playCmd.Flags().BoolVar(&playResume, "resume", false, "start where the last session of this source stopped")
	playCmd.Flags().BoolVar(&playNoUI, "no-ui", false, "print state changes instead of showing the player view")
	playCmd.MarkFlagsMutuallyExclusive("from", "resume")
	rootCmd.AddCommand(playCmd)
}

// playback holds everything one play command starts.
type playback struct {
	loop     *loop.Loop
	loopDone chan struct{}
	device   element.Device
	closeDev func() error
	player   *mediaplayer.Player
	journal  *journal.Journal
	recDone  chan struct{}
}

// watchNotifications announces the source on the desktop when enabled.
func (pb *playback) watchNotifications(ctx context.Context, nc config.Notifications, info tags.Info) {
	if !nc.Enabled {
		return
	}
	n, err := notify.New()
	if err != nil {
		log.Warn().Err(err).Msg("desktop notifications unavailable")
		return
	}
	w := notify.NewWatcher(n, info, notify.Options{
		NowPlaying: nc.NowPlaying,
		Errors:     nc.Errors,
		Timeout:    nc.Timeout,
	}, log)
	go w.Watch(ctx, pb.player.Subscribe())
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src := args[0]
	mimeType := playMime
	if mimeType == "" {
		mimeType = guessMimeType(src)
	}
	mediaType, err := resolveMediaType(playType, mimeType)
	if err != nil {
		return err
	}

	pb, err := startPlayback(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer pb.shutdown()

	info := tags.Read(src)
	pb.watchNotifications(ctx, cfg.GetNotifications(), info)

	start := playFrom
	if playResume {
		start = pb.resumePosition(ctx, src)
	}

	// Subscribe before the first command so no transition is missed
	sub := pb.player.Subscribe()
	err = pb.loop.Call(ctx, func() error {
		if err := pb.player.SetSource(mediaType, src, mimeType); err != nil {
			return errmsg.Wrap(errmsg.OpSourceLoad, err)
		}
		if err := pb.player.PlayFrom(start); err != nil {
			return errmsg.Wrap(errmsg.OpPlaybackStart, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info().
		Str("source", src).
		Str("mime_type", mimeType).
		Stringer("media_type", mediaType).
		Dur("from", start).
		Msg("playback started")

	if playNoUI {
		return printEvents(ctx, cmd.OutOrStdout(), sub)
	}

	capture, err := stderr.Start(log)
	if err != nil {
		log.Warn().Err(err).Msg("stderr capture unavailable")
	}
	defer capture.Stop()

	runner := app.RunnerFunc(func(fn func(mediaplayer.MediaPlayer) error) error {
		return pb.loop.Call(ctx, func() error { return fn(pb.player) })
	})
	model := app.New(runner, sub, app.Media{
		URL:      src,
		MimeType: mimeType,
		Type:     mediaType,
		Info:     info,
	})
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// startPlayback starts the loop, the backend, the player and the journal.
func startPlayback(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*playback, error) {
	pb := &playback{
		loop:     loop.New(loop.DefaultBuffer, log),
		loopDone: make(chan struct{}),
	}
	go func() {
		defer close(pb.loopDone)
		if err := pb.loop.Run(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Msg("player loop stopped")
		}
	}()

	dev, closeDev, err := newDevice(ctx, cfg, pb.loop, log)
	if err != nil {
		pb.loop.Close()
		return nil, errmsg.Wrap(errmsg.OpBackendStart, err)
	}
	pb.device = dev
	pb.closeDev = closeDev
	pb.player = mediaplayer.New(dev,
		mediaplayer.WithLogger(log),
		mediaplayer.WithClampOffset(cfg.ClampOffset()),
	)

	if cfg.JournalEnabled() {
		j, err := journal.Open(cfg.JournalPath())
		if err != nil {
			// Playback works without history
			log.Warn().Err(err).Str("path", cfg.JournalPath()).Msg(errmsg.Format(errmsg.OpJournalOpen, err))
			return pb, nil
		}
		pb.journal = j
		pb.recDone = make(chan struct{})
		rec := journal.NewRecorder(j, log)
		sub := pb.player.Subscribe()
		go func() {
			defer close(pb.recDone)
			_ = rec.Watch(context.WithoutCancel(ctx), sub)
		}()
	}
	return pb, nil
}

func newDevice(ctx context.Context, cfg *config.Config, d element.Dispatcher, log zerolog.Logger) (element.Device, func() error, error) {
	switch cfg.GetBackend() {
	case config.BackendBeep:
		dev := local.New(local.Config{
			TimeUpdateInterval: cfg.StatusInterval(),
			Volume:             cfg.Beep.Volume,
		}, d, log)
		return dev, func() error { return nil }, nil
	default:
		mc := cfg.GetMpvConfig()
		dev := mpv.New(mpv.Config{
			Path:      mc.Path,
			Socket:    mc.Socket,
			ExtraArgs: mc.ExtraArgs,
		}, d, log)
		if err := dev.Start(ctx); err != nil {
			return nil, nil, err
		}
		return dev, dev.Close, nil
	}
}

// resumePosition returns where the last unfinished session of src stopped.
func (pb *playback) resumePosition(ctx context.Context, src string) time.Duration {
	if pb.journal == nil {
		return 0
	}
	pos, ok, err := pb.journal.LastPosition(ctx, src)
	if err != nil {
		log.Warn().Err(err).Msg(errmsg.Format(errmsg.OpHistoryRead, err))
		return 0
	}
	if !ok {
		return 0
	}
	return pos
}

// shutdown closes the player on its loop, lets the journal record the end
// of the session, then stops the loop and the backend.
func (pb *playback) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := pb.loop.Call(ctx, func() error {
		pb.player.Close()
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("failed to close player")
	}
	if pb.recDone != nil {
		select {
		case <-pb.recDone:
		case <-ctx.Done():
			log.Warn().Msg("journal did not finish recording")
		}
	}
	pb.loop.Close()
	<-pb.loopDone

	if err := pb.closeDev(); err != nil {
		log.Warn().Err(err).Msg("failed to close backend")
	}
	if pb.journal != nil {
		if err := pb.journal.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close journal")
		}
	}
}

// printEvents writes state changes to w until playback completes, fails or
// ctx is canceled.
func printEvents(ctx context.Context, w io.Writer, sub *mediaplayer.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case e := <-sub.Events:
			if e.Kind == mediaplayer.EventStatus {
				continue
			}
			line := e.State.String()
			if e.HasPosition {
				line += " " + e.Position.Truncate(time.Millisecond).String()
			}
			if e.Message != "" {
				line += " " + e.Message
			}
			fmt.Fprintln(w, line)

			switch e.Kind {
			case mediaplayer.EventComplete:
				return nil
			case mediaplayer.EventError:
				return errors.New(e.Message)
			}
		}
	}
}

// mediaTypes covers media extensions the system MIME table often lacks.
var mediaTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".opus": "audio/opus",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".mp4":  "video/mp4",
	".m4v":  "video/mp4",
	".mkv":  "video/x-matroska",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".m3u8": "application/vnd.apple.mpegurl",
}

// guessMimeType derives a MIME type from the source file extension.
func guessMimeType(src string) string {
	p := src
	if u, err := url.Parse(src); err == nil && u.Scheme != "" {
		p = u.Path
	}
	ext := strings.ToLower(path.Ext(p))
	if t, ok := mediaTypes[ext]; ok {
		return t
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}

// resolveMediaType parses the --type flag, falling back to the MIME type.
func resolveMediaType(flag, mimeType string) (mediaplayer.MediaType, error) {
	if flag != "" {
		t, ok := mediaplayer.ParseMediaType(strings.ToLower(flag))
		if !ok {
			return 0, fmt.Errorf("unknown media type %q, want audio or video", flag)
		}
		return t, nil
	}
	if strings.HasPrefix(mimeType, "video/") {
		return mediaplayer.MediaTypeVideo, nil
	}
	return mediaplayer.MediaTypeAudio, nil
}
