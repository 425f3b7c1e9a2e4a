// Package interview - messaging-backed interactive answer source.
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// MessageTransport is the slice of a messaging service the answer source
// needs. Defined here so the interview package does not depend on a concrete
// transport.
type MessageTransport interface {
	SendMessage(ctx context.Context, to string, body string) error
	Responses() <-chan models.Response
}

// MessagingAnswerSource delivers each question to a remote interviewee over a
// message transport (e.g. SMS) and blocks until their reply arrives. Context
// cancellation or a closed response channel maps to interview cancellation;
// callers requiring hard timeouts enforce them through the context.
type MessagingAnswerSource struct {
	transport MessageTransport
	recipient string
}

// NewMessagingAnswerSource creates an answer source interviewing the given
// recipient over the transport.
func NewMessagingAnswerSource(transport MessageTransport, recipient string) *MessagingAnswerSource {
	return &MessagingAnswerSource{transport: transport, recipient: recipient}
}

// Answer implements AnswerSource. Replies from other senders are ignored.
// The same skip/quit tokens as the console adapter apply.
func (m *MessagingAnswerSource) Answer(ctx context.Context, q models.InterviewQuestion) (models.Answer, error) {
	body := fmt.Sprintf("[%s] %s\nReply %q to pass or %q to end the interview.", q.Category, q.Text, SkipToken, QuitToken)
	if err := m.transport.SendMessage(ctx, m.recipient, body); err != nil {
		return models.Answer{}, fmt.Errorf("sending question %s to %s: %w", q.ID, m.recipient, err)
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("MessagingAnswerSource context done while awaiting reply", "questionID", q.ID, "recipient", m.recipient)
			return models.CancelledAnswer(), nil
		case resp, ok := <-m.transport.Responses():
			if !ok {
				slog.Warn("MessagingAnswerSource response channel closed", "questionID", q.ID)
				return models.CancelledAnswer(), nil
			}
			if !sameSender(resp.From, m.recipient) {
				slog.Debug("MessagingAnswerSource ignoring reply from other sender", "from", resp.From, "recipient", m.recipient)
				continue
			}
			return answerForInput(strings.TrimSpace(resp.Body)), nil
		}
	}
}

// sameSender compares sender identifiers ignoring a leading "+" and
// whitespace, so "+15551234" matches "15551234".
func sameSender(a, b string) bool {
	norm := func(s string) string {
		return strings.TrimPrefix(strings.TrimSpace(s), "+")
	}
	return norm(a) == norm(b)
}
