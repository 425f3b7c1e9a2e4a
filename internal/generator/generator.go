// Package generator turns an upstream analysis result into a QuestionSet: an
// ordered list of core questions plus a pool of conditionally triggered
// follow-up questions. Generation is deterministic given identical inputs and
// configuration, including question ids, which are assigned sequentially in
// final order ("core-1", "followup-1", ...).
package generator

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
)

// Default configuration values.
const (
	DefaultMinCoreQuestions     = 5
	DefaultMaxCoreQuestions     = 8
	DefaultMaxFollowUpQuestions = 8

	// ClarityThreshold is the clarity score below which a decision is
	// flagged as needing clarification and its question asked early.
	ClarityThreshold = 0.7
)

// Core question priorities. Lower is asked first; equal priorities retain
// insertion order.
const (
	priorityNeedsClarification = 1
	priorityAmbiguity          = 2
	priorityDecision           = 3
	priorityFill               = 4
)

// Config controls question generation limits.
type Config struct {
	// MinCoreQuestions is a soft target, not a hard floor: when the
	// analysis and fill templates yield fewer questions, the generator
	// silently returns fewer rather than failing.
	MinCoreQuestions     int
	MaxCoreQuestions     int
	MaxFollowUpQuestions int
}

// DefaultConfig returns the standard generation limits.
func DefaultConfig() Config {
	return Config{
		MinCoreQuestions:     DefaultMinCoreQuestions,
		MaxCoreQuestions:     DefaultMaxCoreQuestions,
		MaxFollowUpQuestions: DefaultMaxFollowUpQuestions,
	}
}

// Generate builds the QuestionSet for one stakeholder role from an analysis
// result. The returned set is immutable by convention; sessions only read it.
func Generate(analysis *models.AnalysisResult, role string, cfg Config) (*models.QuestionSet, error) {
	if analysis == nil {
		return nil, fmt.Errorf("analysis result is required")
	}
	if role == "" {
		return nil, fmt.Errorf("role is required")
	}
	if cfg.MaxCoreQuestions <= 0 || cfg.MaxFollowUpQuestions < 0 {
		cfg = DefaultConfig()
	}
	slog.Debug("Generator.Generate invoked", "role", role,
		"decisions", len(analysis.Decisions), "ambiguities", len(analysis.Ambiguities))

	core := coreQuestions(analysis, cfg)
	followUps := followUpQuestions(analysis, core, cfg)

	qs := &models.QuestionSet{
		Role:              role,
		CoreQuestions:     core,
		FollowUpQuestions: followUps,
		EstimatedCount: models.EstimatedQuestionCount{
			Min: len(core),
			Max: len(core) + len(followUps),
		},
	}
	if err := qs.Validate(); err != nil {
		return nil, fmt.Errorf("generated question set failed validation: %w", err)
	}
	slog.Debug("Generator.Generate produced question set", "role", role,
		"core", len(core), "followups", len(followUps))
	return qs, nil
}

// coreQuestions runs steps 1-4: decision questions, ambiguity questions,
// domain fill, stable priority sort, truncation. IDs are assigned after the
// sort so they reflect final ask order.
func coreQuestions(analysis *models.AnalysisResult, cfg Config) []models.InterviewQuestion {
	var core []models.InterviewQuestion
	seenText := make(map[string]bool)

	for _, d := range analysis.Decisions {
		priority := priorityDecision
		if d.ClarityScore < ClarityThreshold {
			priority = priorityNeedsClarification
		}
		text := coreQuestionText(d)
		if seenText[text] {
			continue
		}
		seenText[text] = true
		core = append(core, models.InterviewQuestion{
			Text:                 text,
			Type:                 models.QuestionTypeCore,
			Category:             normalizeCategory(d.Category),
			Priority:             priority,
			RelatedDecisionTitle: d.Title,
		})
	}

	for _, a := range analysis.Ambiguities {
		text := fmt.Sprintf("Please clarify: %s", a.Description)
		if len(a.SuggestedQuestions) > 0 && a.SuggestedQuestions[0] != "" {
			text = a.SuggestedQuestions[0]
		}
		if seenText[text] {
			continue
		}
		seenText[text] = true
		core = append(core, models.InterviewQuestion{
			Text:                        text,
			Type:                        models.QuestionTypeCore,
			Category:                    models.CategoryGeneral,
			Priority:                    priorityAmbiguity,
			RelatedAmbiguityDescription: a.Description,
		})
	}

	// Fill remaining slots from the fixed domain templates. Once the soft
	// minimum is met, categories already represented are skipped.
	if len(core) < cfg.MaxCoreQuestions {
		represented := make(map[models.QuestionCategory]bool)
		for _, q := range core {
			represented[q.Category] = true
		}
		for _, tmpl := range domainTemplates {
			if len(core) >= cfg.MaxCoreQuestions {
				break
			}
			if len(core) >= cfg.MinCoreQuestions && represented[tmpl.category] {
				continue
			}
			if seenText[tmpl.text] {
				continue
			}
			seenText[tmpl.text] = true
			represented[tmpl.category] = true
			core = append(core, models.InterviewQuestion{
				Text:     tmpl.text,
				Type:     models.QuestionTypeCore,
				Category: tmpl.category,
				Priority: priorityFill,
			})
		}
	}

	sort.SliceStable(core, func(i, j int) bool {
		return core[i].Priority < core[j].Priority
	})
	if len(core) > cfg.MaxCoreQuestions {
		core = core[:cfg.MaxCoreQuestions]
	}
	for i := range core {
		core[i].ID = fmt.Sprintf("core-%d", i+1)
	}
	return core
}

// followUpQuestions runs step 5: trade-off follow-ups for moderate/unclear
// decisions, then the fixed domain follow-up table, deduplicated by exact
// text and capped.
func followUpQuestions(analysis *models.AnalysisResult, core []models.InterviewQuestion, cfg Config) []models.InterviewQuestion {
	var pool []models.InterviewQuestion
	seenText := make(map[string]bool)

	add := func(q models.InterviewQuestion) {
		if len(pool) >= cfg.MaxFollowUpQuestions || seenText[q.Text] {
			return
		}
		seenText[q.Text] = true
		q.ID = fmt.Sprintf("followup-%d", len(pool)+1)
		pool = append(pool, q)
	}

	for _, d := range analysis.Decisions {
		level := d.Ambiguity
		if level == "" {
			level = models.DeriveAmbiguity(d.ClarityScore)
		}
		if level != models.AmbiguityModerate && level != models.AmbiguityUnclear {
			continue
		}
		target, ok := coreQuestionForDecision(core, d)
		if !ok {
			continue
		}
		add(models.InterviewQuestion{
			Text:                 tradeOffFollowUpText(d),
			Type:                 models.QuestionTypeFollowUp,
			Category:             normalizeCategory(d.Category),
			Priority:             priorityDecision,
			RelatedDecisionTitle: d.Title,
			Trigger:              &models.FollowUpTrigger{QuestionID: target.ID, AlwaysAsk: true},
		})
	}

	for _, tmpl := range followUpTemplates {
		target, ok := firstCoreOfCategory(core, tmpl.category)
		if !ok {
			continue
		}
		trigger := &models.FollowUpTrigger{QuestionID: target.ID, Keywords: tmpl.keywords}
		if len(tmpl.keywords) == 0 {
			trigger.AlwaysAsk = true
		}
		add(models.InterviewQuestion{
			Text:     tmpl.text,
			Type:     models.QuestionTypeFollowUp,
			Category: tmpl.category,
			Priority: priorityFill,
			Trigger:  trigger,
		})
	}

	return pool
}

// coreQuestionForDecision finds the core question a decision's follow-up
// should condition on: same decision title first, then same category.
func coreQuestionForDecision(core []models.InterviewQuestion, d models.Decision) (models.InterviewQuestion, bool) {
	for _, q := range core {
		if q.RelatedDecisionTitle != "" && q.RelatedDecisionTitle == d.Title {
			return q, true
		}
	}
	return firstCoreOfCategory(core, normalizeCategory(d.Category))
}

func firstCoreOfCategory(core []models.InterviewQuestion, cat models.QuestionCategory) (models.InterviewQuestion, bool) {
	for _, q := range core {
		if q.Category == cat {
			return q, true
		}
	}
	return models.InterviewQuestion{}, false
}

// normalizeCategory maps unknown upstream categories onto general rather than
// propagating invalid tags into the question set.
func normalizeCategory(cat models.QuestionCategory) models.QuestionCategory {
	if models.IsValidQuestionCategory(cat) {
		return cat
	}
	return models.CategoryGeneral
}
