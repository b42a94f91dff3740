package element

import (
	"sync"
	"time"
)

// MockDevice is a test double for Device. Elements it creates are
// *MockElement and never emit events on their own; tests call Fire.
type MockDevice struct {
	mu         sync.Mutex
	createErr  error
	elements   []*MockElement
	prepended  []Element
	removed    []Element
	createKind []Kind
}

// NewMockDevice creates a new mock device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

func (d *MockDevice) CreateElement(kind Kind, id string) (Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.createKind = append(d.createKind, kind)
	if d.createErr != nil {
		return nil, d.createErr
	}
	el := NewMockElement(kind, id)
	d.elements = append(d.elements, el)
	return el, nil
}

func (d *MockDevice) CreateSource() SourceElement {
	return &MockSource{}
}

func (d *MockDevice) PrependChild(el Element) {
	d.mu.Lock()
	d.prepended = append(d.prepended, el)
	d.mu.Unlock()
}

func (d *MockDevice) AppendChild(parent Element, child SourceElement) {
	if m, ok := parent.(*MockElement); ok {
		if src, ok := child.(*MockSource); ok {
			m.mu.Lock()
			m.source = src
			m.mu.Unlock()
		}
	}
}

func (d *MockDevice) RemoveElement(el Element) {
	d.mu.Lock()
	d.removed = append(d.removed, el)
	d.mu.Unlock()
}

// Test helpers

func (d *MockDevice) SetCreateError(err error) {
	d.mu.Lock()
	d.createErr = err
	d.mu.Unlock()
}

// Last returns the most recently created element, or nil.
func (d *MockDevice) Last() *MockElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.elements) == 0 {
		return nil
	}
	return d.elements[len(d.elements)-1]
}

func (d *MockDevice) Elements() []*MockElement {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockElement(nil), d.elements...)
}

func (d *MockDevice) Prepended() []Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Element(nil), d.prepended...)
}

func (d *MockDevice) Removed() []Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Element(nil), d.removed...)
}

func (d *MockDevice) CreatedKinds() []Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Kind(nil), d.createKind...)
}

// MockElement is a test double for Element.
type MockElement struct {
	mu          sync.Mutex
	id          string
	kind        Kind
	listeners   Listeners
	source      *MockSource
	currentTime time.Duration
	seekable    []TimeRange
	noSeekable  bool
	mediaErr    *MediaError
	autoplay    bool
	preload     string
	playCalls   int
	pauseCalls  int
	loadCalls   int
	seekCalls   []time.Duration
}

// NewMockElement creates a mock element with no seekable ranges.
func NewMockElement(kind Kind, id string) *MockElement {
	return &MockElement{id: id, kind: kind, autoplay: true}
}

func (m *MockElement) ID() string { return m.id }

func (m *MockElement) Kind() Kind { return m.kind }

func (m *MockElement) Play() {
	m.mu.Lock()
	m.playCalls++
	m.mu.Unlock()
}

func (m *MockElement) Pause() {
	m.mu.Lock()
	m.pauseCalls++
	m.mu.Unlock()
}

func (m *MockElement) Load() {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()
}

func (m *MockElement) SetAutoplay(autoplay bool) {
	m.mu.Lock()
	m.autoplay = autoplay
	m.mu.Unlock()
}

func (m *MockElement) SetPreload(preload string) {
	m.mu.Lock()
	m.preload = preload
	m.mu.Unlock()
}

func (m *MockElement) CurrentTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentTime
}

func (m *MockElement) SetCurrentTime(t time.Duration) {
	m.mu.Lock()
	m.seekCalls = append(m.seekCalls, t)
	m.currentTime = t
	m.mu.Unlock()
}

func (m *MockElement) Seekable() ([]TimeRange, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noSeekable {
		return nil, false
	}
	return append([]TimeRange(nil), m.seekable...), true
}

func (m *MockElement) Error() *MediaError {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mediaErr
}

func (m *MockElement) AddEventListener(t EventType, fn func()) ListenerID {
	return m.listeners.Add(t, fn)
}

func (m *MockElement) RemoveEventListener(id ListenerID) {
	m.listeners.Remove(id)
}

// Test helpers

// Fire delivers an event to the element's listeners synchronously.
func (m *MockElement) Fire(t EventType) { m.listeners.Fire(t) }

// SetPosition moves the playback position without recording a seek.
func (m *MockElement) SetPosition(t time.Duration) {
	m.mu.Lock()
	m.currentTime = t
	m.mu.Unlock()
}

func (m *MockElement) SetSeekable(ranges ...TimeRange) {
	m.mu.Lock()
	m.seekable = ranges
	m.noSeekable = false
	m.mu.Unlock()
}

// SetSeekableUnavailable makes Seekable report ok=false.
func (m *MockElement) SetSeekableUnavailable() {
	m.mu.Lock()
	m.noSeekable = true
	m.mu.Unlock()
}

func (m *MockElement) SetMediaError(code int) {
	m.mu.Lock()
	m.mediaErr = &MediaError{Code: code}
	m.mu.Unlock()
}

func (m *MockElement) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

func (m *MockElement) PauseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pauseCalls
}

func (m *MockElement) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

func (m *MockElement) SeekCalls() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seekCalls...)
}

func (m *MockElement) Autoplay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.autoplay
}

func (m *MockElement) Preload() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preload
}

// Source returns the source element appended by the device, or nil.
func (m *MockElement) Source() *MockSource {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *MockElement) ListenerCount() int { return m.listeners.Len() }

// MockSource is a test double for SourceElement. Fire delivers an event to
// its listeners synchronously.
type MockSource struct {
	Source
}

// Verify mocks implement their interfaces at compile time.
var (
	_ Device        = (*MockDevice)(nil)
	_ Element       = (*MockElement)(nil)
	_ SourceElement = (*MockSource)(nil)
)
