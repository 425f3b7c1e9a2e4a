package interview

import (
	"context"
	"testing"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

func TestMapProvider(t *testing.T) {
	p := NewMapProvider(map[string]string{"core-1": "answer one"})

	a, err := p.Answer(context.Background(), models.InterviewQuestion{ID: "core-1"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if a.Cancelled || a.Text != "answer one" {
		t.Errorf("Answer = %+v, want answered %q", a, "answer one")
	}

	// No entry and no default signals cancellation.
	a, err = p.Answer(context.Background(), models.InterviewQuestion{ID: "core-2"})
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !a.Cancelled {
		t.Errorf("Answer for unknown id = %+v, want cancellation", a)
	}
}

func TestMapProviderWithDefault(t *testing.T) {
	p := NewMapProvider(map[string]string{"core-1": "specific"}).WithDefault("fallback")

	a, _ := p.Answer(context.Background(), models.InterviewQuestion{ID: "core-1"})
	if a.Text != "specific" {
		t.Errorf("Answer = %q, want table entry to win over the default", a.Text)
	}
	a, _ = p.Answer(context.Background(), models.InterviewQuestion{ID: "core-2"})
	if a.Cancelled || a.Text != "fallback" {
		t.Errorf("Answer = %+v, want the default", a)
	}
}

func TestMapProviderEmptyDefaultIsAnswer(t *testing.T) {
	p := NewMapProvider(nil).WithDefault("")
	a, _ := p.Answer(context.Background(), models.InterviewQuestion{ID: "core-1"})
	if a.Cancelled {
		t.Error("empty default must be an empty answer, not cancellation")
	}
}

func TestFuncProvider(t *testing.T) {
	var got models.InterviewQuestion
	p := NewFuncProvider(func(ctx context.Context, q models.InterviewQuestion) (models.Answer, error) {
		got = q
		return models.Answered("from callback"), nil
	})

	q := models.InterviewQuestion{ID: "core-9", Text: "full question", Category: models.CategorySecurity}
	a, err := p.Answer(context.Background(), q)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if a.Text != "from callback" {
		t.Errorf("Answer = %q, want from callback", a.Text)
	}
	if got.ID != "core-9" || got.Category != models.CategorySecurity {
		t.Errorf("callback received %+v, want the full question value", got)
	}
}
