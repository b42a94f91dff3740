// Package loop runs callbacks one at a time on a single goroutine.
//
// The media player state machine is not safe for concurrent use, while
// playback backends report native events from their own goroutines. Both
// sides funnel their work through a Loop so every mutation happens on the
// goroutine running Run.
package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrClosed is returned when work is submitted to a closed loop.
var ErrClosed = errors.New("loop closed")

// DefaultBuffer is the queue size used when New is given a non-positive size.
const DefaultBuffer = 256

// Loop is a serial executor. The zero value is not usable; use New.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
	log   zerolog.Logger

	// overflow holds callbacks dispatched while tasks is full. While it is
	// non-empty every new callback goes there too, keeping FIFO order.
	mu       sync.Mutex
	overflow []func()
	spilled  chan struct{}
}

// New creates a loop whose queue holds up to buffer pending callbacks.
func New(buffer int, log zerolog.Logger) *Loop {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Loop{
		tasks:   make(chan func(), buffer),
		done:    make(chan struct{}),
		log:     log,
		spilled: make(chan struct{}, 1),
	}
}

// Dispatch schedules fn to run on the loop goroutine and is safe to call from
// any goroutine, the loop goroutine included. It never blocks: callbacks
// beyond the queue size wait in an overflow list. It returns false if fn is
// nil or the loop is closed.
func (l *Loop) Dispatch(fn func()) bool {
	if fn == nil {
		return false
	}
	select {
	case <-l.done:
		return false
	default:
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.overflow) == 0 {
		select {
		case l.tasks <- fn:
			return true
		default:
		}
	}
	l.overflow = append(l.overflow, fn)
	select {
	case l.spilled <- struct{}{}:
	default:
	}
	return true
}

// Call runs fn on the loop goroutine and waits for its result. It must not be
// called from the loop goroutine itself.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if !l.Dispatch(func() { result <- fn() }) {
		return ErrClosed
	}
	select {
	case err := <-result:
		return err
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued callbacks until ctx is canceled or Close is called.
// It returns nil after Close and ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.tasks:
			l.run(fn)
		case <-l.spilled:
			l.drainOverflow(ctx)
		}
	}
}

// drainOverflow runs the queued callbacks, which are older than anything in
// the overflow list, then the overflow list itself.
func (l *Loop) drainOverflow(ctx context.Context) {
	for drained := false; !drained; {
		select {
		case fn := <-l.tasks:
			l.run(fn)
		default:
			drained = true
		}
	}

	l.mu.Lock()
	batch := l.overflow
	l.overflow = nil
	l.mu.Unlock()

	for _, fn := range batch {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		default:
		}
		l.run(fn)
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error().Err(fmt.Errorf("%v", r)).Msg("loop callback panicked")
		}
	}()
	fn()
}

// Close stops the loop. Pending callbacks are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed once the loop is closed.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
