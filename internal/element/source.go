package element

import "sync"

// Source is a SourceElement for backends that only need to store the URL and
// type. The zero value is ready to use.
type Source struct {
	mu        sync.Mutex
	src       string
	mimeType  string
	listeners Listeners
}

func (s *Source) SetSrc(url string) {
	s.mu.Lock()
	s.src = url
	s.mu.Unlock()
}

func (s *Source) SetType(mimeType string) {
	s.mu.Lock()
	s.mimeType = mimeType
	s.mu.Unlock()
}

func (s *Source) Src() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src
}

func (s *Source) Type() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mimeType
}

func (s *Source) AddEventListener(t EventType, fn func()) ListenerID {
	return s.listeners.Add(t, fn)
}

func (s *Source) RemoveEventListener(id ListenerID) {
	s.listeners.Remove(id)
}

// Fire calls the listeners registered for t. Backends call it from their
// dispatcher.
func (s *Source) Fire(t EventType) { s.listeners.Fire(t) }

// ListenerCount returns the number of registered listeners.
func (s *Source) ListenerCount() int { return s.listeners.Len() }

var _ SourceElement = (*Source)(nil)
