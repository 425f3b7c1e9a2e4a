// Package messaging provides pluggable message transports for remote
// interviews.
package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// Channel configuration shared by service implementations.
const (
	// DefaultChannelBufferSize is the buffer size for response channels.
	DefaultChannelBufferSize = 100
	// DefaultChannelTimeout bounds emission into a full channel before the
	// message is dropped.
	DefaultChannelTimeout = 5 * time.Second
)

// ErrServiceStopped is returned when sending through a stopped service.
var ErrServiceStopped = errors.New("messaging service is stopped")

// Service defines a pluggable message delivery abstraction: outbound question
// delivery plus a channel of inbound interviewee responses.
type Service interface {
	// SendMessage sends a message to a recipient.
	SendMessage(ctx context.Context, to string, body string) error

	// Start begins any background processing (e.g. webhook listening).
	Start(ctx context.Context) error

	// Stop stops background processing and cleans up resources.
	Stop() error

	// Responses returns a channel of incoming interviewee responses.
	Responses() <-chan models.Response
}
