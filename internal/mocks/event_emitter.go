package mocks

import (
	"context"
	"sync"

	"github.com/taskhub/taskhub-api/internal/events"
)

// MockEventEmitter implements events.EventEmitter for testing. Emitted
// events accumulate in Events so tests can assert on notification fan-out.
type MockEventEmitter struct {
	mu sync.Mutex

	// EmitEventFn overrides the default behavior when set
	EmitEventFn func(ctx context.Context, event *events.JobRequestEvent) error

	Events []*events.JobRequestEvent
}

// NewMockEventEmitter creates a new mock emitter
func NewMockEventEmitter() *MockEventEmitter {
	return &MockEventEmitter{}
}

var _ events.EventEmitter = (*MockEventEmitter)(nil)

// EmitEvent implements the EventEmitter interface
func (m *MockEventEmitter) EmitEvent(ctx context.Context, event *events.JobRequestEvent) error {
	if m.EmitEventFn != nil {
		return m.EmitEventFn(ctx, event)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return nil
}

// EmittedCount returns how many events were emitted.
func (m *MockEventEmitter) EmittedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Events)
}
