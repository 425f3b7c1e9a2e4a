package generator

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

func sampleAnalysis() *models.AnalysisResult {
	return &models.AnalysisResult{
		Decisions: []models.Decision{
			{Title: "storage engine", Category: models.CategoryDataModel, ClarityScore: 0.9, Ambiguity: models.AmbiguityClear},
			{Title: "queue vs direct calls", Category: models.CategoryArchitecture, ClarityScore: 0.4, Ambiguity: models.AmbiguityUnclear,
				Options: []string{"message queue", "synchronous RPC"}},
			{Title: "auth provider", Category: models.CategorySecurity, ClarityScore: 0.6, Ambiguity: models.AmbiguityModerate},
		},
		Ambiguities: []models.Ambiguity{
			{Description: "expected tenant count", SuggestedQuestions: []string{"How many tenants should the first release support?"}},
			{Description: "retention policy"},
		},
	}
}

func TestGenerateValidatesInputs(t *testing.T) {
	if _, err := Generate(nil, "architect", DefaultConfig()); err == nil {
		t.Error("Generate(nil analysis) did not fail")
	}
	if _, err := Generate(sampleAnalysis(), "", DefaultConfig()); err == nil {
		t.Error("Generate with empty role did not fail")
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("Generate is not deterministic for identical inputs")
	}
}

func TestGenerateProducesValidSet(t *testing.T) {
	qs, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := qs.Validate(); err != nil {
		t.Fatalf("generated set failed validation: %v", err)
	}
	if qs.Role != "architect" {
		t.Errorf("Role = %q, want architect", qs.Role)
	}
	if qs.EstimatedCount.Min != len(qs.CoreQuestions) {
		t.Errorf("EstimatedCount.Min = %d, want %d", qs.EstimatedCount.Min, len(qs.CoreQuestions))
	}
	if qs.EstimatedCount.Max != len(qs.CoreQuestions)+len(qs.FollowUpQuestions) {
		t.Errorf("EstimatedCount.Max = %d, want %d", qs.EstimatedCount.Max, len(qs.CoreQuestions)+len(qs.FollowUpQuestions))
	}
}

func TestGenerateCoreOrdering(t *testing.T) {
	qs, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Priorities must be non-decreasing in ask order, and the low-clarity
	// decision must come before the clear one.
	lastPriority := 0
	unclearIdx, clearIdx := -1, -1
	for i, q := range qs.CoreQuestions {
		if q.Priority < lastPriority {
			t.Errorf("question %d priority %d breaks non-decreasing order", i, q.Priority)
		}
		lastPriority = q.Priority
		switch q.RelatedDecisionTitle {
		case "queue vs direct calls":
			unclearIdx = i
		case "storage engine":
			clearIdx = i
		}
	}
	if unclearIdx == -1 || clearIdx == -1 {
		t.Fatalf("expected both decisions represented, got unclear=%d clear=%d", unclearIdx, clearIdx)
	}
	if unclearIdx > clearIdx {
		t.Errorf("low-clarity decision asked at %d, after clear decision at %d", unclearIdx, clearIdx)
	}
}

func TestGenerateSequentialIDs(t *testing.T) {
	qs, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for i, q := range qs.CoreQuestions {
		want := fmt.Sprintf("core-%d", i+1)
		if q.ID != want {
			t.Errorf("core question %d id = %q, want %q", i, q.ID, want)
		}
	}
	for i, q := range qs.FollowUpQuestions {
		want := fmt.Sprintf("followup-%d", i+1)
		if q.ID != want {
			t.Errorf("follow-up question %d id = %q, want %q", i, q.ID, want)
		}
	}
}

func TestGenerateAmbiguityQuestions(t *testing.T) {
	qs, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	foundSuggested, foundFallback := false, false
	for _, q := range qs.CoreQuestions {
		if q.Text == "How many tenants should the first release support?" {
			foundSuggested = true
		}
		if q.Text == "Please clarify: retention policy" {
			foundFallback = true
		}
	}
	if !foundSuggested {
		t.Error("suggested question from the analysis was not used verbatim")
	}
	if !foundFallback {
		t.Error("ambiguity without suggestions did not get the clarify fallback wording")
	}
}

func TestGenerateTruncatesToMaxCore(t *testing.T) {
	analysis := &models.AnalysisResult{}
	for i := 0; i < 20; i++ {
		analysis.Decisions = append(analysis.Decisions, models.Decision{
			Title:        fmt.Sprintf("decision %d", i),
			Category:     models.CategoryGeneral,
			ClarityScore: 0.9,
		})
	}

	cfg := Config{MinCoreQuestions: 2, MaxCoreQuestions: 4, MaxFollowUpQuestions: 8}
	qs, err := Generate(analysis, "architect", cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(qs.CoreQuestions) != 4 {
		t.Errorf("core questions = %d, want 4 (truncated)", len(qs.CoreQuestions))
	}
}

func TestGenerateFillsFromTemplates(t *testing.T) {
	// Empty analysis: everything comes from the fill templates.
	qs, err := Generate(&models.AnalysisResult{}, "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(qs.CoreQuestions) < DefaultMinCoreQuestions {
		t.Errorf("core questions = %d, want at least the soft minimum %d from fill",
			len(qs.CoreQuestions), DefaultMinCoreQuestions)
	}
	for _, q := range qs.CoreQuestions {
		if q.Priority != priorityFill {
			t.Errorf("fill question %s has priority %d, want %d", q.ID, q.Priority, priorityFill)
		}
	}
}

func TestGenerateSoftMinimum(t *testing.T) {
	// A tiny max with an empty analysis: generator returns fewer than the
	// soft minimum without failing.
	cfg := Config{MinCoreQuestions: 10, MaxCoreQuestions: 3, MaxFollowUpQuestions: 4}
	qs, err := Generate(&models.AnalysisResult{}, "architect", cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(qs.CoreQuestions) > 3 {
		t.Errorf("core questions = %d, want at most 3", len(qs.CoreQuestions))
	}
}

func TestGenerateFollowUpCap(t *testing.T) {
	analysis := &models.AnalysisResult{}
	for i := 0; i < 10; i++ {
		analysis.Decisions = append(analysis.Decisions, models.Decision{
			Title:        fmt.Sprintf("open decision %d", i),
			Category:     models.CategoryArchitecture,
			ClarityScore: 0.3,
			Ambiguity:    models.AmbiguityUnclear,
		})
	}

	cfg := Config{MinCoreQuestions: 2, MaxCoreQuestions: 8, MaxFollowUpQuestions: 3}
	qs, err := Generate(analysis, "architect", cfg)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(qs.FollowUpQuestions) > 3 {
		t.Errorf("follow-up pool = %d, want at most 3", len(qs.FollowUpQuestions))
	}
}

func TestGenerateFollowUpTriggersResolve(t *testing.T) {
	qs, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(qs.FollowUpQuestions) == 0 {
		t.Fatal("expected a non-empty follow-up pool for an analysis with unclear decisions")
	}
	for _, fu := range qs.FollowUpQuestions {
		if fu.Trigger == nil {
			t.Fatalf("follow-up %s has no trigger", fu.ID)
		}
		if _, ok := qs.QuestionByID(fu.Trigger.QuestionID); !ok {
			t.Errorf("follow-up %s trigger references unknown id %s", fu.ID, fu.Trigger.QuestionID)
		}
		if !fu.Trigger.AlwaysAsk && len(fu.Trigger.Keywords) == 0 {
			t.Errorf("follow-up %s has neither keywords nor always-ask", fu.ID)
		}
	}
}

func TestGenerateTradeOffFollowUpMentionsOptions(t *testing.T) {
	qs, err := Generate(sampleAnalysis(), "architect", DefaultConfig())
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	found := false
	for _, fu := range qs.FollowUpQuestions {
		if fu.RelatedDecisionTitle == "queue vs direct calls" {
			found = true
			if !strings.Contains(fu.Text, "message queue") || !strings.Contains(fu.Text, "synchronous RPC") {
				t.Errorf("trade-off follow-up does not list the options: %q", fu.Text)
			}
			if !fu.Trigger.AlwaysAsk {
				t.Error("trade-off follow-up for an unclear decision should always fire")
			}
		}
	}
	if !found {
		t.Error("no trade-off follow-up generated for the unclear decision")
	}
}

func TestGenerateDeduplicatesByText(t *testing.T) {
	analysis := &models.AnalysisResult{
		Decisions: []models.Decision{
			{Title: "same decision", Category: models.CategoryGeneral, ClarityScore: 0.9},
			{Title: "same decision", Category: models.CategoryGeneral, ClarityScore: 0.9},
		},
	}
	qs, err := Generate(analysis, "architect", Config{MinCoreQuestions: 1, MaxCoreQuestions: 8, MaxFollowUpQuestions: 8})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, q := range qs.CoreQuestions {
		if seen[q.Text] {
			t.Errorf("duplicate core question text: %q", q.Text)
		}
		seen[q.Text] = true
	}
}

func TestNormalizeCategory(t *testing.T) {
	if got := normalizeCategory("made-up"); got != models.CategoryGeneral {
		t.Errorf("normalizeCategory(made-up) = %v, want general", got)
	}
	if got := normalizeCategory(models.CategorySecurity); got != models.CategorySecurity {
		t.Errorf("normalizeCategory(security) = %v, want security", got)
	}
}


