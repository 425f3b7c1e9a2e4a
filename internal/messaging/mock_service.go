package messaging

import (
	"context"
	"sync"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// MockService is an in-memory Service implementation for tests: it records
// outbound messages and lets tests inject inbound responses.
type MockService struct {
	mu        sync.Mutex
	sent      []string
	responses chan models.Response
	stopped   bool
}

// NewMockService creates a mock messaging service.
func NewMockService() *MockService {
	return &MockService{responses: make(chan models.Response, DefaultChannelBufferSize)}
}

// SendMessage records the outbound message body.
func (m *MockService) SendMessage(ctx context.Context, to string, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrServiceStopped
	}
	m.sent = append(m.sent, body)
	return nil
}

// Start is a no-op.
func (m *MockService) Start(ctx context.Context) error { return nil }

// Stop marks the service stopped and closes the response channel.
func (m *MockService) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	m.stopped = true
	close(m.responses)
	return nil
}

// Responses returns the inbound response channel.
func (m *MockService) Responses() <-chan models.Response { return m.responses }

// InjectResponse simulates an inbound reply from an interviewee.
func (m *MockService) InjectResponse(from, body string) {
	m.responses <- models.Response{From: from, Body: body}
}

// Sent returns a copy of the outbound message bodies recorded so far.
func (m *MockService) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}
