package element

import "sync"

type listener struct {
	id ListenerID
	t  EventType
	fn func()
}

// Listeners is a registry of event listeners. The zero value is ready to use
// and safe for concurrent use.
type Listeners struct {
	mu   sync.Mutex
	next ListenerID
	list []listener
}

// Add registers fn for events of type t.
func (l *Listeners) Add(t EventType, fn func()) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.list = append(l.list, listener{id: l.next, t: t, fn: fn})
	return l.next
}

// Remove unregisters a listener. Unknown ids are ignored.
func (l *Listeners) Remove(id ListenerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, ln := range l.list {
		if ln.id == id {
			l.list = append(l.list[:i], l.list[i+1:]...)
			return
		}
	}
}

// Fire calls every listener registered for t, in registration order.
// Listeners added or removed during Fire take effect on the next call.
func (l *Listeners) Fire(t EventType) {
	l.mu.Lock()
	var fns []func()
	for _, ln := range l.list {
		if ln.t == t {
			fns = append(fns, ln.fn)
		}
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Len returns the number of registered listeners.
func (l *Listeners) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.list)
}

// Clear removes every listener.
func (l *Listeners) Clear() {
	l.mu.Lock()
	l.list = nil
	l.mu.Unlock()
}
