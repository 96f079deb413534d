package events

import "sync"

// MockEventBus provides a recording, in-memory implementation of EventBus
// for testing.
type MockEventBus struct {
	mu        sync.RWMutex
	published map[string][]interface{}
	closed    bool
}

// NewMockEventBus creates a new MockEventBus instance
func NewMockEventBus() *MockEventBus {
	return &MockEventBus{published: make(map[string][]interface{})}
}

// Publish records the event under its topic
func (m *MockEventBus) Publish(topic string, data interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[topic] = append(m.published[topic], data)
	return nil
}

// Subscribe is a no-op for the mock
func (m *MockEventBus) Subscribe(topic string, handler interface{}) error {
	return nil
}

// Unsubscribe is a no-op for the mock
func (m *MockEventBus) Unsubscribe(topic string, handler interface{}) error {
	return nil
}

// Close marks the bus closed
func (m *MockEventBus) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Published returns the events recorded for a topic
func (m *MockEventBus) Published(topic string) []interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]interface{}(nil), m.published[topic]...)
}
