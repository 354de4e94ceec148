package mock

import (
	"context"
	"sync"

	"github.com/Harsh-BH/baywatch/internal/domain"
	"github.com/Harsh-BH/baywatch/internal/publisher"
)

// Ensure MockPublisher implements publisher.Publisher.
var _ publisher.Publisher = (*MockPublisher)(nil)

// MockPublisher records published events for assertions.
type MockPublisher struct {
	mu        sync.Mutex
	published []*domain.JobEvent
	PublishFn func(ctx context.Context, event *domain.JobEvent) error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, event *domain.JobEvent) error {
	if m.PublishFn != nil {
		return m.PublishFn(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return nil
}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []*domain.JobEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*domain.JobEvent(nil), m.published...)
}

// Types returns the recorded event types in order.
func (m *MockPublisher) Types() []domain.JobEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]domain.JobEventType, len(m.published))
	for i, e := range m.published {
		types[i] = e.Type
	}
	return types
}

func (m *MockPublisher) Close() error {
	return nil
}
