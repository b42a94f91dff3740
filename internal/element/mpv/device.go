// Package mpv plays media elements through an mpv process controlled over
// its JSON IPC socket.
package mpv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/mediaplayer/internal/element"
)

const (
	socketCheckInterval = 100 * time.Millisecond
	socketWaitTimeout   = 5 * time.Second
	quitTimeout         = 2 * time.Second

	// DefaultTimeUpdateInterval is the playback distance between timeupdate
	// events.
	DefaultTimeUpdateInterval = 250 * time.Millisecond
)

// ErrNotStarted is returned when elements are created before Start.
var ErrNotStarted = errors.New("mpv is not running")

// observed lists the properties mpv reports through property-change events.
var observed = []string{"time-pos", "duration", "seekable", "paused-for-cache", "eof-reached"}

// Config configures the mpv process.
type Config struct {
	Path               string
	Socket             string
	ExtraArgs          []string
	TimeUpdateInterval time.Duration
}

// Device owns one mpv process. The element attached to the document gets
// every mpv event; at most one element is attached at a time.
type Device struct {
	cfg        Config
	dispatcher element.Dispatcher
	log        zerolog.Logger

	cmd      *exec.Cmd
	conn     *Conn
	readDone chan struct{}

	mu      sync.Mutex
	current *Element
}

// New creates a device. Call Start before creating elements.
func New(cfg Config, dispatcher element.Dispatcher, log zerolog.Logger) *Device {
	if cfg.Path == "" {
		cfg.Path = "mpv"
	}
	if cfg.TimeUpdateInterval <= 0 {
		cfg.TimeUpdateInterval = DefaultTimeUpdateInterval
	}
	return &Device{
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        log.With().Str("backend", "mpv").Logger(),
	}
}

// Args returns the mpv command line arguments.
func (d *Device) Args() []string {
	args := []string{
		"--idle=yes",
		"--input-ipc-server=" + d.cfg.Socket,
		"--no-terminal",
		"--keep-open=yes",
		"--force-window=no",
	}
	return append(args, d.cfg.ExtraArgs...)
}

// Start launches mpv, waits for its IPC socket and connects to it.
func (d *Device) Start(ctx context.Context) error {
	if d.cfg.Socket == "" {
		return errors.New("mpv socket path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(d.cfg.Socket), 0o700); err != nil {
		return fmt.Errorf("create socket directory: %w", err)
	}
	_ = os.Remove(d.cfg.Socket)

	d.log.Info().Str("path", d.cfg.Path).Str("socket", d.cfg.Socket).Msg("starting mpv process")
	cmd := exec.Command(d.cfg.Path, d.Args()...) //nolint:gosec // binary comes from user config
	cmd.Stdout = d.log
	cmd.Stderr = d.log
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not start mpv process: %w", err)
	}
	d.cmd = cmd

	conn, err := d.dial(ctx)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		d.cmd = nil
		return err
	}
	return d.attach(conn)
}

func (d *Device) dial(ctx context.Context) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, socketWaitTimeout)
	defer cancel()

	ticker := time.NewTicker(socketCheckInterval)
	defer ticker.Stop()
	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "unix", d.cfg.Socket)
		if err == nil {
			d.log.Debug().Msg("mpv socket connected")
			return conn, nil
		}
		select {
		case <-ctx.Done():
			d.log.Error().Str("socket", d.cfg.Socket).Msg("timed out waiting for mpv socket")
			return nil, fmt.Errorf("mpv socket did not appear at %s: %w", d.cfg.Socket, ctx.Err())
		case <-ticker.C:
		}
	}
}

// attach starts the read loop on an established connection and subscribes to
// the observed properties.
func (d *Device) attach(rwc io.ReadWriteCloser) error {
	d.conn = NewConn(rwc, d.log)
	d.readDone = make(chan struct{})
	go func() {
		defer close(d.readDone)
		err := d.conn.ReadLoop(d.route)
		d.lost(err)
	}()

	for i, name := range observed {
		if err := d.conn.Command("observe_property", i+1, name); err != nil {
			return err
		}
	}
	return nil
}

func (d *Device) route(m Message) {
	d.mu.Lock()
	el := d.current
	d.mu.Unlock()
	if el == nil {
		return
	}
	el.handleMessage(m)
}

// lost runs when the read loop ends.
func (d *Device) lost(err error) {
	d.mu.Lock()
	el := d.current
	d.current = nil
	d.mu.Unlock()
	if err != nil {
		d.log.Warn().Err(err).Msg("mpv connection lost")
	}
	if el != nil {
		el.abort()
	}
}

// Close quits mpv, closes the connection and removes the socket.
func (d *Device) Close() error {
	d.mu.Lock()
	d.current = nil
	d.mu.Unlock()

	if d.conn == nil {
		return nil
	}
	if d.cmd != nil {
		_ = d.conn.Command("quit")
	}
	err := d.conn.Close()
	<-d.readDone

	if d.cmd != nil {
		done := make(chan error, 1)
		go func() { done <- d.cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(quitTimeout):
			d.log.Warn().Msg("mpv did not quit, killing it")
			_ = d.cmd.Process.Kill()
			<-done
		}
		_ = os.Remove(d.cfg.Socket)
	}
	return err
}

// CreateElement creates an element bound to the mpv connection.
func (d *Device) CreateElement(kind element.Kind, id string) (element.Element, error) {
	if d.conn == nil {
		return nil, ErrNotStarted
	}
	return newElement(kind, id, d.conn, d.dispatcher, d.cfg.TimeUpdateInterval, d.log), nil
}

func (d *Device) CreateSource() element.SourceElement {
	return &element.Source{}
}

// PrependChild attaches el: it starts receiving mpv events and selects
// whether mpv shows video.
func (d *Device) PrependChild(el element.Element) {
	e, ok := el.(*Element)
	if !ok {
		d.log.Error().Str("element", el.ID()).Msg("element was not created by this device")
		return
	}
	vid := "no"
	if e.kind == element.Video {
		vid = "auto"
	}
	e.command("set_property", "vid", vid)

	d.mu.Lock()
	d.current = e
	d.mu.Unlock()
}

func (d *Device) AppendChild(parent element.Element, child element.SourceElement) {
	e, ok := parent.(*Element)
	if !ok {
		return
	}
	s, ok := child.(*element.Source)
	if !ok {
		return
	}
	e.setSource(s)
}

// RemoveElement detaches el and stops playback.
func (d *Device) RemoveElement(el element.Element) {
	d.mu.Lock()
	attached := d.current != nil && element.Element(d.current) == el
	if attached {
		d.current = nil
	}
	d.mu.Unlock()

	if attached {
		if err := d.conn.Command("stop"); err != nil {
			d.log.Warn().Err(err).Msg("mpv stop not sent")
		}
	}
}

var _ element.Device = (*Device)(nil)
