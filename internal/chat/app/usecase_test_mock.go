package app

import (
	"context"
	"sync"

	"private_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Append moke append message
func (m *MockMessageRepository) Append(ctx context.Context, sender, recipient, text string) (*domain.Message, error) {
	args := m.Called(ctx, sender, recipient, text)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// HistoryFor moke find history by identity
func (m *MockMessageRepository) HistoryFor(ctx context.Context, identity string) ([]domain.Message, error) {
	args := m.Called(ctx, identity)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID moke find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkSeen moke mark message seen
func (m *MockMessageRepository) MarkSeen(ctx context.Context, id string) (*domain.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Edit moke edit message text
func (m *MockMessageRepository) Edit(ctx context.Context, id, newText string) (*domain.Message, error) {
	args := m.Called(ctx, id, newText)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// Delete moke delete message
func (m *MockMessageRepository) Delete(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

// FindAll moke find all messages
func (m *MockMessageRepository) FindAll(ctx context.Context) ([]domain.Message, error) {
	args := m.Called(ctx)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeConn records every pushed event so scenarios can assert on them
type fakeConn struct {
	id string

	mu     sync.Mutex
	events []domain.WSEvent
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) WriteEvent(event domain.Event, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, domain.WSEvent{Event: event, Payload: payload})
	return nil
}

// eventsNamed all recorded pushes of one event name, in order
func (c *fakeConn) eventsNamed(event domain.Event) []domain.WSEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []domain.WSEvent
	for _, e := range c.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// lastPayload payload of the most recent push of one event name, or nil
func (c *fakeConn) lastPayload(event domain.Event) interface{} {
	named := c.eventsNamed(event)
	if len(named) == 0 {
		return nil
	}
	return named[len(named)-1].Payload
}
