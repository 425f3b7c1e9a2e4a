// Package interview - unattended LLM answer provider.
package interview

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// AnswerGenerator is the slice of the analysis client the LLM provider needs.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLMProvider answers questions in the voice of a stakeholder role using a
// reasoning model, for fully unattended interview runs. Prior roles' results
// are supplied as read-only context. Generation failures propagate to the
// session, which treats them as fatal (no retry in the core).
type LLMProvider struct {
	generator AnswerGenerator
	role      string
	context   string
}

// NewLLMProvider creates an unattended provider for the given role.
// priorContext carries earlier stakeholders' exchanges, or empty.
func NewLLMProvider(generator AnswerGenerator, role, priorContext string) *LLMProvider {
	return &LLMProvider{generator: generator, role: role, context: priorContext}
}

// Answer implements AnswerSource.
func (p *LLMProvider) Answer(ctx context.Context, q models.InterviewQuestion) (models.Answer, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are the %s stakeholder in a software design interview. ", p.role)
	sb.WriteString("Answer the question concretely from that perspective, in at most four sentences. ")
	sb.WriteString("Do not hedge; state the constraints and preferences this stakeholder would actually have.")
	if p.context != "" {
		sb.WriteString("\n\nEarlier stakeholders said (read-only context):\n")
		sb.WriteString(p.context)
	}

	text, err := p.generator.GenerateAnswer(ctx, sb.String(), q.Text)
	if err != nil {
		return models.Answer{}, fmt.Errorf("generating %s answer for question %s: %w", p.role, q.ID, err)
	}
	slog.Debug("LLMProvider generated answer", "role", p.role, "questionID", q.ID, "length", len(text))
	return models.Answered(strings.TrimSpace(text)), nil
}
