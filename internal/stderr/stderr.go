//go:build unix

// Package stderr captures output that C audio libraries (ALSA via oto) write
// straight to file descriptor 2, bypassing os.Stderr, so it cannot corrupt
// the player view. Captured lines go to the log instead.
package stderr

import (
	"bufio"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Capture redirects fd 2 into the log until Stop is called.
type Capture struct {
	orig  int
	read  *os.File
	write *os.File
	done  chan struct{}
}

// Start begins capturing stderr. The program can continue without capture
// when it returns an error; output then reaches the terminal as usual.
func Start(log zerolog.Logger) (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := unix.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	c := &Capture{orig: orig, read: r, write: w, done: make(chan struct{})}
	go c.forward(log)
	return c, nil
}

func (c *Capture) forward(log zerolog.Logger) {
	defer close(c.done)
	scanner := bufio.NewScanner(c.read)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			log.Warn().Str("stream", "stderr").Msg(line)
		}
	}
}

// WriteOriginal writes directly to the terminal's stderr, bypassing capture.
func (c *Capture) WriteOriginal(msg string) {
	if c == nil {
		_, _ = os.Stderr.WriteString(msg)
		return
	}
	_, _ = unix.Write(c.orig, []byte(msg))
}

// Stop restores the original stderr and waits for buffered lines to be
// logged. It is safe to call on a nil Capture.
func (c *Capture) Stop() {
	if c == nil {
		return
	}
	_ = unix.Dup2(c.orig, int(os.Stderr.Fd()))
	_ = unix.Close(c.orig)

	c.write.Close()
	<-c.done
	c.read.Close()
}
