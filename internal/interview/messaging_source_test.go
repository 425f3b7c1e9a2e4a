package interview

import (
	"context"
	"testing"
	"time"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// fakeTransport is a MessageTransport test double with scripted replies.
type fakeTransport struct {
	sent      []string
	responses chan models.Response
	sendErr   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{responses: make(chan models.Response, 10)}
}

func (f *fakeTransport) SendMessage(ctx context.Context, to string, body string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, body)
	return nil
}

func (f *fakeTransport) Responses() <-chan models.Response { return f.responses }

func TestMessagingAnswerSourceDeliversAndReads(t *testing.T) {
	transport := newFakeTransport()
	transport.responses <- models.Response{From: "+15551234567", Body: "use postgres"}

	source := NewMessagingAnswerSource(transport, "15551234567")
	a, err := source.Answer(context.Background(), consoleQuestion())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if a.Cancelled || a.Text != "use postgres" {
		t.Errorf("Answer = %+v, want answered %q", a, "use postgres")
	}
	if len(transport.sent) != 1 {
		t.Fatalf("sent = %d messages, want 1", len(transport.sent))
	}
}

func TestMessagingAnswerSourceIgnoresOtherSenders(t *testing.T) {
	transport := newFakeTransport()
	transport.responses <- models.Response{From: "+19998887777", Body: "wrong person"}
	transport.responses <- models.Response{From: "+15551234567", Body: "right person"}

	source := NewMessagingAnswerSource(transport, "+15551234567")
	a, err := source.Answer(context.Background(), consoleQuestion())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if a.Text != "right person" {
		t.Errorf("Answer = %q, want the matching sender's reply", a.Text)
	}
}

func TestMessagingAnswerSourceTokens(t *testing.T) {
	transport := newFakeTransport()
	transport.responses <- models.Response{From: "+15551234567", Body: " SKIP "}
	source := NewMessagingAnswerSource(transport, "+15551234567")

	a, err := source.Answer(context.Background(), consoleQuestion())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if a.Cancelled || a.Text != "" {
		t.Errorf("skip reply = %+v, want empty answer", a)
	}

	transport.responses <- models.Response{From: "+15551234567", Body: "quit"}
	a, err = source.Answer(context.Background(), consoleQuestion())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !a.Cancelled {
		t.Errorf("quit reply = %+v, want cancellation", a)
	}
}

func TestMessagingAnswerSourceContextCancelled(t *testing.T) {
	transport := newFakeTransport()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	source := NewMessagingAnswerSource(transport, "+15551234567")
	a, err := source.Answer(ctx, consoleQuestion())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !a.Cancelled {
		t.Errorf("Answer after context deadline = %+v, want cancellation", a)
	}
}

func TestMessagingAnswerSourceClosedChannel(t *testing.T) {
	transport := newFakeTransport()
	close(transport.responses)

	source := NewMessagingAnswerSource(transport, "+15551234567")
	a, err := source.Answer(context.Background(), consoleQuestion())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !a.Cancelled {
		t.Errorf("Answer on closed channel = %+v, want cancellation", a)
	}
}

func TestMessagingAnswerSourceSendFailure(t *testing.T) {
	transport := newFakeTransport()
	transport.sendErr = context.DeadlineExceeded

	source := NewMessagingAnswerSource(transport, "+15551234567")
	if _, err := source.Answer(context.Background(), consoleQuestion()); err == nil {
		t.Error("Answer did not propagate the send failure")
	}
}
