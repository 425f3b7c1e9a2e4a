// Package models defines session state structures for pocket-stakeholder interviews.
package models

import "time"

// SessionState is the lifecycle state of an interview session.
type SessionState string

const (
	// StateIdle means the session is constructed but not yet initialized.
	StateIdle SessionState = "idle"
	// StateReady means the question set is bound and the queues are populated.
	StateReady SessionState = "ready"
	// StateInProgress means the session is between questions.
	StateInProgress SessionState = "in_progress"
	// StateAwaitingAnswer means a single question is outstanding.
	StateAwaitingAnswer SessionState = "awaiting_answer"
	// StateCompleted means all queues drained without cancellation. Terminal.
	StateCompleted SessionState = "completed"
	// StateCancelled means the session was aborted. Terminal, reachable from
	// any non-terminal state.
	StateCancelled SessionState = "cancelled"
)

// IsTerminal reports whether the state permits no further transitions.
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// Answer is the two-variant result of an answer source: either answered text
// (possibly empty, meaning "skip with no comment") or an explicit
// cancellation of the whole interview. The two are never conflated.
type Answer struct {
	Text      string `json:"text"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Answered constructs an answered result. An empty string is a valid answer.
func Answered(text string) Answer {
	return Answer{Text: text}
}

// CancelledAnswer constructs the cancellation signal.
func CancelledAnswer() Answer {
	return Answer{Cancelled: true}
}

// InterviewExchange is one answered question: a text snapshot of the question
// (not a live reference), the answer, and whether the answer caused at least
// one follow-up to be enqueued. Exchanges are append-only within a session.
type InterviewExchange struct {
	QuestionID        string    `json:"question_id"`
	Question          string    `json:"question"`
	Answer            string    `json:"answer"`
	FollowUpTriggered bool      `json:"followup_triggered"`
	AnsweredAt        time.Time `json:"answered_at"`
}

// ProgressEventType discriminates progress events emitted by a session.
type ProgressEventType string

const (
	EventQuestionAsked     ProgressEventType = "question_asked"
	EventAnswerReceived    ProgressEventType = "answer_received"
	EventFollowUpTriggered ProgressEventType = "followup_triggered"
	EventSessionCompleted  ProgressEventType = "session_completed"
)

// ProgressEvent carries the question/answer relevant to the event plus a
// running count of questions remaining.
type ProgressEvent struct {
	Type               ProgressEventType  `json:"type"`
	Question           *InterviewQuestion `json:"question,omitempty"`
	Answer             string             `json:"answer,omitempty"`
	QuestionsRemaining int                `json:"questions_remaining"`
}

// ProgressFunc observes session progress. It is invoked synchronously between
// suspension points; callers must not block inside it.
type ProgressFunc func(ProgressEvent)

// Snapshot is an immutable, serializable projection of session progress,
// suitable for external persistence and later restoration into a fresh
// session bound to the identical QuestionSet. Queued questions are captured
// as ids only, never as full objects.
type Snapshot struct {
	Role                     string              `json:"role"`
	State                    SessionState        `json:"state"`
	Exchanges                []InterviewExchange `json:"exchanges"`
	QuestionIndex            int                 `json:"question_index"`
	AskedFollowUpIDs         []string            `json:"asked_followup_ids,omitempty"`
	RemainingCoreQuestionIDs []string            `json:"remaining_core_question_ids,omitempty"`
	RemainingFollowUpIDs     []string            `json:"remaining_followup_ids,omitempty"`
	StartedAt                *time.Time          `json:"started_at,omitempty"`
	CompletedAt              *time.Time          `json:"completed_at,omitempty"`
	CreatedAt                time.Time           `json:"created_at"`
}

// InterviewResult is the immutable outcome of one session, passed forward to
// downstream consumers (ADR generation, subsequent stakeholder roles).
type InterviewResult struct {
	ID          string              `json:"id"`
	Role        string              `json:"role"`
	Exchanges   []InterviewExchange `json:"exchanges"`
	State       SessionState        `json:"state"`
	StartedAt   *time.Time          `json:"started_at,omitempty"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

// Response represents an inbound message from an interviewee on a messaging
// transport.
type Response struct {
	From string `json:"from"`
	Body string `json:"body"`
	Time int64  `json:"time"`
}
