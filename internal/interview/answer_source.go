// Package interview - programmatic answer sources.
package interview

import (
	"context"
	"log/slog"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// AnswerSource is the single capability every answer source implements:
// given a question, produce an answer or a cancellation signal. The context
// carries the caller's deadline; the session itself imposes no timeout.
type AnswerSource interface {
	Answer(ctx context.Context, q models.InterviewQuestion) (models.Answer, error)
}

// MapProvider resolves answers by question id from a lookup table, with an
// optional fallback default. Without a matching entry or default it signals
// cancellation.
type MapProvider struct {
	answers       map[string]string
	defaultAnswer *string
}

// NewMapProvider creates a provider backed by an id-to-answer table.
func NewMapProvider(answers map[string]string) *MapProvider {
	return &MapProvider{answers: answers}
}

// WithDefault sets the fallback answer used when no table entry matches.
func (p *MapProvider) WithDefault(text string) *MapProvider {
	p.defaultAnswer = &text
	return p
}

// Answer implements AnswerSource.
func (p *MapProvider) Answer(ctx context.Context, q models.InterviewQuestion) (models.Answer, error) {
	if text, ok := p.answers[q.ID]; ok {
		return models.Answered(text), nil
	}
	if p.defaultAnswer != nil {
		return models.Answered(*p.defaultAnswer), nil
	}
	slog.Debug("MapProvider has no answer, signalling cancellation", "questionID", q.ID)
	return models.CancelledAnswer(), nil
}

// FuncProvider delegates answering to arbitrary external logic, receiving the
// full question value.
type FuncProvider struct {
	fn func(ctx context.Context, q models.InterviewQuestion) (models.Answer, error)
}

// NewFuncProvider creates a callback-backed provider.
func NewFuncProvider(fn func(ctx context.Context, q models.InterviewQuestion) (models.Answer, error)) *FuncProvider {
	return &FuncProvider{fn: fn}
}

// Answer implements AnswerSource.
func (p *FuncProvider) Answer(ctx context.Context, q models.InterviewQuestion) (models.Answer, error) {
	return p.fn(ctx, q)
}
