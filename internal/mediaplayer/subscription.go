package mediaplayer

import "sync"

const eventBufferSize = 64

// Subscription provides the event channel for a subscriber.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	// Internal write channels
	eventCh chan Event
	doneCh  chan struct{}
	once    sync.Once
}

// newSubscription creates a new subscription with a buffered channel.
func newSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

// close signals the subscriber to stop by closing doneCh.
func (s *Subscription) close() {
	s.once.Do(func() { close(s.doneCh) })
}

// send delivers an event without blocking the state machine.
func (s *Subscription) send(e Event) {
	select {
	case s.eventCh <- e:
	default:
		// Drop if buffer full
	}
}

// Bus fans player events out to subscribers.
type Bus struct {
	mu     sync.RWMutex
	subs   []*Subscription
	closed bool
}

// Subscribe creates a new event subscription. Subscribing to a closed bus
// returns a subscription whose Done channel is already closed.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	sub := newSubscription()
	if b.closed {
		sub.close()
		return sub
	}
	b.subs = append(b.subs, sub)
	return sub
}

// Unsubscribe removes sub and closes its Done channel.
func (b *Bus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	for i, s := range b.subs {
		if s == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			break
		}
	}
	b.mu.Unlock()
	sub.close()
}

// Emit sends e to every subscriber.
func (b *Bus) Emit(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		sub.send(e)
	}
}

// Close closes every subscription. Later Emit calls are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, sub := range b.subs {
		sub.close()
	}
	b.subs = nil
}
