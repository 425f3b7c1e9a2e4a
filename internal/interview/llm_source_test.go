package interview

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeGenerator struct {
	system string
	user   string
	reply  string
	err    error
}

func (f *fakeGenerator) GenerateAnswer(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.system = systemPrompt
	f.user = userPrompt
	return f.reply, f.err
}

func TestLLMProviderAnswer(t *testing.T) {
	gen := &fakeGenerator{reply: "  We expect 10x growth in year one.  "}
	p := NewLLMProvider(gen, "product owner", "")

	a, err := p.Answer(context.Background(), consoleQuestion())
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if a.Cancelled {
		t.Error("LLM answer must not be a cancellation")
	}
	if a.Text != "We expect 10x growth in year one." {
		t.Errorf("Text = %q, want trimmed reply", a.Text)
	}
	if !strings.Contains(gen.system, "product owner") {
		t.Errorf("system prompt does not name the role: %q", gen.system)
	}
	if gen.user != consoleQuestion().Text {
		t.Errorf("user prompt = %q, want the question text", gen.user)
	}
}

func TestLLMProviderIncludesPriorContext(t *testing.T) {
	gen := &fakeGenerator{reply: "fine"}
	p := NewLLMProvider(gen, "operator", "Q: scale?\nA: modest")

	if _, err := p.Answer(context.Background(), consoleQuestion()); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !strings.Contains(gen.system, "A: modest") {
		t.Errorf("system prompt does not carry prior context: %q", gen.system)
	}
}

func TestLLMProviderPropagatesError(t *testing.T) {
	boom := errors.New("rate limited")
	gen := &fakeGenerator{err: boom}
	p := NewLLMProvider(gen, "architect", "")

	if _, err := p.Answer(context.Background(), consoleQuestion()); !errors.Is(err, boom) {
		t.Errorf("Answer error = %v, want wrapped %v", err, boom)
	}
}
