package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Command is one JSON IPC request.
type Command struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id,omitempty"`
}

// Message is one line received from mpv: a command reply or an event.
type Message struct {
	Event     string          `json:"event"`
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
	Error     string          `json:"error"`
	RequestID int64           `json:"request_id"`
}

// Float decodes Data as a number. The bool is false for null or non-numbers.
func (m Message) Float() (float64, bool) {
	var f *float64
	if err := json.Unmarshal(m.Data, &f); err != nil || f == nil {
		return 0, false
	}
	return *f, true
}

// Bool decodes Data as a boolean. The bool is false for null or non-booleans.
func (m Message) Bool() (value, ok bool) {
	var b *bool
	if err := json.Unmarshal(m.Data, &b); err != nil || b == nil {
		return false, false
	}
	return *b, true
}

// Conn speaks mpv's line-delimited JSON protocol. Commands are fire and
// forget; failed replies are logged.
type Conn struct {
	rwc io.ReadWriteCloser
	log zerolog.Logger

	wmu sync.Mutex
	enc *json.Encoder

	nextID  atomic.Int64
	pmu     sync.Mutex
	pending map[int64]string
}

// NewConn wraps an established IPC connection.
func NewConn(rwc io.ReadWriteCloser, log zerolog.Logger) *Conn {
	return &Conn{
		rwc:     rwc,
		log:     log,
		enc:     json.NewEncoder(rwc),
		pending: make(map[int64]string),
	}
}

// Command sends a command without waiting for its reply.
func (c *Conn) Command(args ...any) error {
	if len(args) == 0 {
		return errors.New("empty mpv command")
	}
	id := c.nextID.Add(1)
	c.pmu.Lock()
	c.pending[id] = fmt.Sprint(args[0])
	c.pmu.Unlock()

	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := c.enc.Encode(Command{Command: args, RequestID: id}); err != nil {
		c.pmu.Lock()
		delete(c.pending, id)
		c.pmu.Unlock()
		return fmt.Errorf("send mpv command %v: %w", args[0], err)
	}
	return nil
}

// ReadLoop delivers events to handle until the connection fails or closes.
// Replies are consumed here and never reach handle.
func (c *Conn) ReadLoop(handle func(Message)) error {
	scanner := bufio.NewScanner(c.rwc)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var m Message
		if err := json.Unmarshal(line, &m); err != nil {
			c.log.Warn().Str("line", string(line)).Err(err).Msg("could not parse line from mpv")
			continue
		}
		if m.Event == "" && m.RequestID != 0 {
			c.reply(m)
			continue
		}
		handle(m)
	}
	return scanner.Err()
}

func (c *Conn) reply(m Message) {
	c.pmu.Lock()
	name := c.pending[m.RequestID]
	delete(c.pending, m.RequestID)
	c.pmu.Unlock()

	if m.Error != "" && m.Error != "success" {
		c.log.Warn().Str("command", name).Str("error", m.Error).Msg("mpv command failed")
	}
}

// Pending returns the number of commands still waiting for a reply.
func (c *Conn) Pending() int {
	c.pmu.Lock()
	defer c.pmu.Unlock()
	return len(c.pending)
}

// Close closes the connection, which ends ReadLoop.
func (c *Conn) Close() error {
	return c.rwc.Close()
}
