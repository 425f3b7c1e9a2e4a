// Package interview - interactive console answer adapter.
package interview

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// Recognized control tokens for the console adapter.
const (
	// SkipToken maps to an empty answer: "I have nothing to add".
	SkipToken = "skip"
	// QuitToken maps to cancellation: "abort the whole interview".
	QuitToken = "quit"
)

// ConsoleAdapter prompts an external actor on a terminal, displaying the
// question with its category/type metadata, and blocks for free-text input.
type ConsoleAdapter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewConsoleAdapter creates an adapter reading answers from in and writing
// prompts to out.
func NewConsoleAdapter(in io.Reader, out io.Writer) *ConsoleAdapter {
	return &ConsoleAdapter{in: bufio.NewReader(in), out: out}
}

// Answer implements AnswerSource. The skip token yields an empty answer, the
// quit token (or "exit") yields cancellation, and EOF on the input stream is
// treated as cancellation too.
func (a *ConsoleAdapter) Answer(ctx context.Context, q models.InterviewQuestion) (models.Answer, error) {
	fmt.Fprintf(a.out, "\n[%s/%s] %s\n", q.Category, q.Type, q.Text)
	fmt.Fprintf(a.out, "(answer, %q to pass, or %q to end the interview)\n> ", SkipToken, QuitToken)

	line, err := a.in.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				return answerForInput(trimmed), nil
			}
			return models.CancelledAnswer(), nil
		}
		return models.Answer{}, fmt.Errorf("reading console answer: %w", err)
	}

	return answerForInput(strings.TrimSpace(line)), nil
}

// answerForInput maps control tokens (case-insensitive) and passes everything
// else through as answer text verbatim.
func answerForInput(input string) models.Answer {
	switch strings.ToLower(input) {
	case QuitToken, "exit":
		return models.CancelledAnswer()
	case SkipToken:
		return models.Answered("")
	default:
		return models.Answered(input)
	}
}
