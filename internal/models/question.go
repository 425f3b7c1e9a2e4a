// Package models defines the core data structures for pocket-stakeholder.
//
// It includes types for interview questions, question sets, and the upstream
// analysis results they are generated from, which are shared across modules.
package models

import (
	"errors"
	"strings"
)

// QuestionType distinguishes the fixed initial question batch from
// conditionally asked questions.
type QuestionType string

const (
	// QuestionTypeCore marks a question from the initial batch, always asked in priority order.
	QuestionTypeCore QuestionType = "core"
	// QuestionTypeFollowUp marks a question triggered by the content of a core answer.
	QuestionTypeFollowUp QuestionType = "follow-up"
)

// QuestionCategory tags a question with the decision area it probes.
// The set is closed: per-category question wording dispatches on it with a
// switch, so adding a category is a compile-time-checked change.
type QuestionCategory string

const (
	CategoryArchitecture QuestionCategory = "architecture"
	CategoryLibrary      QuestionCategory = "library"
	CategoryPattern      QuestionCategory = "pattern"
	CategoryIntegration  QuestionCategory = "integration"
	CategoryDataModel    QuestionCategory = "data-model"
	CategoryAPIDesign    QuestionCategory = "api-design"
	CategorySecurity     QuestionCategory = "security"
	CategoryPerformance  QuestionCategory = "performance"
	CategoryGeneral      QuestionCategory = "general"
)

// IsValidQuestionCategory checks if the given category is supported.
func IsValidQuestionCategory(c QuestionCategory) bool {
	switch c {
	case CategoryArchitecture, CategoryLibrary, CategoryPattern, CategoryIntegration,
		CategoryDataModel, CategoryAPIDesign, CategorySecurity, CategoryPerformance, CategoryGeneral:
		return true
	default:
		return false
	}
}

// Error variables for question set validation.
var (
	ErrEmptyQuestionID      = errors.New("question id cannot be empty")
	ErrEmptyQuestionText    = errors.New("question text cannot be empty")
	ErrInvalidQuestionType  = errors.New("invalid question type")
	ErrInvalidCategory      = errors.New("invalid question category")
	ErrDuplicateQuestionID  = errors.New("duplicate question id in question set")
	ErrMissingTrigger       = errors.New("follow-up question has no trigger")
	ErrUnknownTriggerTarget = errors.New("follow-up trigger references unknown core question id")
)

// FollowUpTrigger describes when a follow-up question fires: after the core
// question identified by QuestionID is answered, and either unconditionally
// (AlwaysAsk) or when at least one keyword occurs as a case-insensitive
// substring of the answer.
type FollowUpTrigger struct {
	QuestionID string   `json:"question_id"`
	Keywords   []string `json:"keywords,omitempty"`
	AlwaysAsk  bool     `json:"always_ask,omitempty"`
}

// Matches reports whether the trigger fires for the given answer text.
// Keyword matching is a plain substring test with no word-boundary or
// stemming, so "cache" matches "cached".
func (t FollowUpTrigger) Matches(answer string) bool {
	if t.AlwaysAsk {
		return true
	}
	lower := strings.ToLower(answer)
	for _, kw := range t.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// InterviewQuestion is an immutable question value. IDs are unique and stable
// within one QuestionSet.
type InterviewQuestion struct {
	ID       string           `json:"id"`
	Text     string           `json:"text"`
	Type     QuestionType     `json:"type"`
	Category QuestionCategory `json:"category"`
	// Priority orders questions of the same type; lower is asked first.
	Priority int `json:"priority"`
	// Traceability back to the upstream analysis.
	RelatedDecisionTitle        string `json:"related_decision_title,omitempty"`
	RelatedAmbiguityDescription string `json:"related_ambiguity_description,omitempty"`
	// Trigger is set for follow-up questions only.
	Trigger *FollowUpTrigger `json:"trigger,omitempty"`
}

// EstimatedQuestionCount is the min/max range of questions a session over a
// QuestionSet may ask: min is the core count, max adds the capped follow-up pool.
type EstimatedQuestionCount struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// QuestionSet is the immutable output of the question generator: the ordered
// core questions plus the pool of conditionally triggered follow-ups for one
// stakeholder role. Sessions only read from it.
type QuestionSet struct {
	Role              string                 `json:"role"`
	CoreQuestions     []InterviewQuestion    `json:"core_questions"`
	FollowUpQuestions []InterviewQuestion    `json:"followup_questions,omitempty"`
	EstimatedCount    EstimatedQuestionCount `json:"estimated_count"`
}

// Validate performs structural validation on a QuestionSet. Every follow-up
// trigger must reference a core question id present in the same set.
func (qs *QuestionSet) Validate() error {
	coreIDs := make(map[string]bool, len(qs.CoreQuestions))
	for _, q := range qs.CoreQuestions {
		if err := validateQuestion(q, QuestionTypeCore); err != nil {
			return err
		}
		if coreIDs[q.ID] {
			return ErrDuplicateQuestionID
		}
		coreIDs[q.ID] = true
	}

	seen := make(map[string]bool, len(qs.FollowUpQuestions))
	for _, q := range qs.FollowUpQuestions {
		if err := validateQuestion(q, QuestionTypeFollowUp); err != nil {
			return err
		}
		if coreIDs[q.ID] || seen[q.ID] {
			return ErrDuplicateQuestionID
		}
		seen[q.ID] = true
		if q.Trigger == nil {
			return ErrMissingTrigger
		}
		if !coreIDs[q.Trigger.QuestionID] {
			return ErrUnknownTriggerTarget
		}
	}
	return nil
}

// QuestionByID resolves a question id against the set, searching core
// questions first, then the follow-up pool.
func (qs *QuestionSet) QuestionByID(id string) (InterviewQuestion, bool) {
	for _, q := range qs.CoreQuestions {
		if q.ID == id {
			return q, true
		}
	}
	for _, q := range qs.FollowUpQuestions {
		if q.ID == id {
			return q, true
		}
	}
	return InterviewQuestion{}, false
}

func validateQuestion(q InterviewQuestion, want QuestionType) error {
	if q.ID == "" {
		return ErrEmptyQuestionID
	}
	if q.Text == "" {
		return ErrEmptyQuestionText
	}
	if q.Type != want {
		return ErrInvalidQuestionType
	}
	if !IsValidQuestionCategory(q.Category) {
		return ErrInvalidCategory
	}
	return nil
}
