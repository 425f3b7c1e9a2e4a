// Package models defines the upstream analysis structures consumed by the
// question generator.
package models

// AmbiguityLevel grades how well a decision is pinned down by the spec.
type AmbiguityLevel string

const (
	// AmbiguityClear means the decision needs no further discussion.
	AmbiguityClear AmbiguityLevel = "clear"
	// AmbiguityModerate means the decision is workable but has open trade-offs.
	AmbiguityModerate AmbiguityLevel = "moderate"
	// AmbiguityUnclear means the decision cannot be made from the spec alone.
	AmbiguityUnclear AmbiguityLevel = "unclear"
)

// IsValidAmbiguityLevel checks if the given ambiguity level is supported.
func IsValidAmbiguityLevel(l AmbiguityLevel) bool {
	switch l {
	case AmbiguityClear, AmbiguityModerate, AmbiguityUnclear:
		return true
	default:
		return false
	}
}

// Decision is one scored design decision extracted by the upstream analysis.
type Decision struct {
	Title       string           `json:"title"`
	Category    QuestionCategory `json:"category"`
	Description string           `json:"description,omitempty"`
	// ClarityScore is 0-1; lower means the decision needs clarification.
	ClarityScore float64        `json:"clarity_score"`
	Ambiguity    AmbiguityLevel `json:"ambiguity"`
	// Options enumerates candidate choices the spec mentions, if any.
	Options []string `json:"options,omitempty"`
}

// Ambiguity is an unresolved point the upstream analysis could not attach to
// a single decision.
type Ambiguity struct {
	Description        string   `json:"description"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
}

// AnalysisResult is the opaque upstream input to question generation: scored
// decisions plus free-standing ambiguities from one spec analysis pass.
type AnalysisResult struct {
	Decisions   []Decision  `json:"decisions"`
	Ambiguities []Ambiguity `json:"ambiguities,omitempty"`
}

// DeriveAmbiguity maps a 0-1 clarity score onto an ambiguity level. Used when
// the upstream analysis reports a score without an explicit level.
func DeriveAmbiguity(clarityScore float64) AmbiguityLevel {
	switch {
	case clarityScore >= 0.8:
		return AmbiguityClear
	case clarityScore >= 0.5:
		return AmbiguityModerate
	default:
		return AmbiguityUnclear
	}
}
