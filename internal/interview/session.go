// Package interview implements the interview session state machine: it walks
// the core questions of a QuestionSet in order, evaluates each answer against
// the follow-up trigger pool, and accumulates an ordered list of exchanges.
// A session is single-use and exclusively owned by the caller of Start.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/nia-vf/pocket-stakeholder/internal/models"
	"github.com/nia-vf/pocket-stakeholder/internal/util"
)

// Error variables for session precondition violations.
var (
	// ErrNoAnswerSource is returned by Start when neither a provider nor an
	// interactive adapter is configured.
	ErrNoAnswerSource = errors.New("no answer source configured")
	// ErrMultipleAnswerSources is returned when both a provider and an
	// interactive adapter are configured; they are mutually exclusive.
	ErrMultipleAnswerSources = errors.New("provider and interactive adapter are mutually exclusive")
	// ErrInvalidSessionState is wrapped by errors that name the state which
	// violated an operation's precondition.
	ErrInvalidSessionState = errors.New("invalid session state")
)

// DefaultFollowUpCap bounds the distinct follow-up ids asked in one session.
const DefaultFollowUpCap = 8

// Opts holds session configuration.
type Opts struct {
	provider    AnswerSource
	interactive AnswerSource
	progress    models.ProgressFunc
	followUpCap int
}

// Option configures a session.
type Option func(*Opts)

// WithProvider configures a programmatic answer source.
func WithProvider(p AnswerSource) Option {
	return func(o *Opts) { o.provider = p }
}

// WithInteractiveAdapter configures an interactive answer source.
func WithInteractiveAdapter(a AnswerSource) Option {
	return func(o *Opts) { o.interactive = a }
}

// WithProgressFunc registers the progress observer. It is invoked
// synchronously; it must not block.
func WithProgressFunc(fn models.ProgressFunc) Option {
	return func(o *Opts) { o.progress = fn }
}

// WithFollowUpCap overrides the maximum number of distinct follow-up
// questions asked in one session.
func WithFollowUpCap(n int) Option {
	return func(o *Opts) { o.followUpCap = n }
}

// Session is the interview state machine. It is not safe for concurrent
// mutation: the design assumes exclusive ownership by the component that
// calls Start. Cancel and CreateSnapshot are the only operations intended to
// be usable from a progress callback while Start is running.
type Session struct {
	questionSet *models.QuestionSet
	opts        Opts

	state            models.SessionState
	remainingCore    []models.InterviewQuestion
	pendingFollowUps []models.InterviewQuestion
	askedFollowUps   map[string]bool
	queuedFollowUps  map[string]bool
	exchanges        []models.InterviewExchange
	questionIndex    int
	startedAt        *time.Time
	completedAt      *time.Time
	started          bool
	cancelRequested  bool
}

// NewSession creates an idle session bound to exactly one QuestionSet.
func NewSession(qs *models.QuestionSet, options ...Option) *Session {
	opts := Opts{followUpCap: DefaultFollowUpCap}
	for _, opt := range options {
		opt(&opts)
	}
	slog.Debug("Session.NewSession: creating session", "role", roleOf(qs),
		"hasProvider", opts.provider != nil, "hasInteractive", opts.interactive != nil)
	return &Session{
		questionSet:     qs,
		opts:            opts,
		state:           models.StateIdle,
		askedFollowUps:  make(map[string]bool),
		queuedFollowUps: make(map[string]bool),
	}
}

// Initialize validates the bound QuestionSet and populates the question
// queues, transitioning idle -> ready.
func (s *Session) Initialize() error {
	if s.state != models.StateIdle {
		return fmt.Errorf("cannot initialize session in state %q: %w", s.state, ErrInvalidSessionState)
	}
	if s.questionSet == nil {
		return fmt.Errorf("no question set bound")
	}
	if err := s.questionSet.Validate(); err != nil {
		return fmt.Errorf("question set invalid: %w", err)
	}
	s.remainingCore = append([]models.InterviewQuestion(nil), s.questionSet.CoreQuestions...)
	s.state = models.StateReady
	slog.Debug("Session initialized", "role", s.questionSet.Role, "coreQuestions", len(s.remainingCore))
	return nil
}

// Start runs the interview to a terminal state. It may only be invoked once;
// a second invocation fails with an invalid-state error naming the current
// state. An answer source failure forces the session into cancelled and is
// propagated to the caller. A cancellation signal from the answer source is
// not an error: the session ends cancelled and Start returns nil.
func (s *Session) Start(ctx context.Context) error {
	if s.state != models.StateReady || s.started {
		return fmt.Errorf("cannot start session in state %q: %w", s.state, ErrInvalidSessionState)
	}
	source, err := s.answerSource()
	if err != nil {
		return err
	}
	s.started = true
	now := time.Now()
	s.startedAt = &now
	s.state = models.StateInProgress
	slog.Info("Session started", "role", s.questionSet.Role, "coreQuestions", len(s.remainingCore))

	// Core questions first, in generator order.
	for len(s.remainingCore) > 0 {
		q := s.remainingCore[0]
		s.remainingCore = s.remainingCore[1:]
		answered, err := s.processQuestion(ctx, source, q)
		if !answered {
			// The in-flight question stays queued so a snapshot taken
			// after cancellation can resume with it.
			s.remainingCore = append([]models.InterviewQuestion{q}, s.remainingCore...)
		}
		if err != nil {
			return err
		}
		// Cancellation is cooperative: checked after each question, never
		// preempting an in-flight answer request.
		if s.state.IsTerminal() {
			return nil
		}
	}

	// Then the pending follow-up queue, FIFO, including follow-ups
	// discovered mid-drain, bounded by the distinct-asked cap.
	for len(s.pendingFollowUps) > 0 && len(s.askedFollowUps) < s.opts.followUpCap {
		q := s.pendingFollowUps[0]
		s.pendingFollowUps = s.pendingFollowUps[1:]
		s.askedFollowUps[q.ID] = true
		answered, err := s.processQuestion(ctx, source, q)
		if !answered {
			delete(s.askedFollowUps, q.ID)
			s.pendingFollowUps = append([]models.InterviewQuestion{q}, s.pendingFollowUps...)
		}
		if err != nil {
			return err
		}
		if s.state.IsTerminal() {
			return nil
		}
	}

	s.state = models.StateCompleted
	done := time.Now()
	s.completedAt = &done
	s.emit(models.ProgressEvent{Type: models.EventSessionCompleted, QuestionsRemaining: 0})
	slog.Info("Session completed", "role", s.questionSet.Role, "exchanges", len(s.exchanges))
	return nil
}

// processQuestion asks one question: transition to awaiting_answer, emit
// question_asked, obtain the answer (the only suspension point), then record
// the exchange and evaluate the follow-up pool. It reports whether the
// question was answered and recorded.
func (s *Session) processQuestion(ctx context.Context, source AnswerSource, q models.InterviewQuestion) (bool, error) {
	s.state = models.StateAwaitingAnswer
	question := q
	s.emit(models.ProgressEvent{
		Type:               models.EventQuestionAsked,
		Question:           &question,
		QuestionsRemaining: s.QuestionsRemaining() + 1,
	})

	answer, err := source.Answer(ctx, q)
	if err != nil {
		s.terminate(models.StateCancelled)
		slog.Error("Session answer source failed", "role", s.questionSet.Role, "questionID", q.ID, "error", err)
		return false, fmt.Errorf("answer source failed for question %s: %w", q.ID, err)
	}
	if answer.Cancelled {
		// The in-flight question is not recorded as an exchange.
		s.terminate(models.StateCancelled)
		slog.Info("Session cancelled by answer source", "role", s.questionSet.Role, "questionID", q.ID)
		return false, nil
	}

	s.questionIndex++
	exchange := models.InterviewExchange{
		QuestionID: q.ID,
		Question:   q.Text,
		Answer:     answer.Text,
		AnsweredAt: time.Now(),
	}
	triggered := s.evaluateFollowUps(q, answer.Text)
	exchange.FollowUpTriggered = len(triggered) > 0
	s.exchanges = append(s.exchanges, exchange)

	s.emit(models.ProgressEvent{
		Type:               models.EventAnswerReceived,
		Question:           &question,
		Answer:             answer.Text,
		QuestionsRemaining: s.QuestionsRemaining(),
	})
	for i := range triggered {
		fu := triggered[i]
		s.emit(models.ProgressEvent{
			Type:               models.EventFollowUpTriggered,
			Question:           &fu,
			QuestionsRemaining: s.QuestionsRemaining(),
		})
	}

	if s.cancelRequested {
		s.terminate(models.StateCancelled)
		return true, nil
	}
	if !s.state.IsTerminal() {
		s.state = models.StateInProgress
	}
	return true, nil
}

// evaluateFollowUps queues every pool follow-up conditioned on the question
// just answered whose trigger matches the answer. Follow-ups already asked or
// already queued are skipped. Returns the newly queued follow-ups.
func (s *Session) evaluateFollowUps(answered models.InterviewQuestion, answer string) []models.InterviewQuestion {
	var triggered []models.InterviewQuestion
	for _, fu := range s.questionSet.FollowUpQuestions {
		if fu.Trigger == nil || fu.Trigger.QuestionID != answered.ID {
			continue
		}
		if s.askedFollowUps[fu.ID] || s.queuedFollowUps[fu.ID] {
			continue
		}
		if !fu.Trigger.Matches(answer) {
			continue
		}
		s.queuedFollowUps[fu.ID] = true
		s.pendingFollowUps = append(s.pendingFollowUps, fu)
		triggered = append(triggered, fu)
		slog.Debug("Session follow-up triggered", "role", s.questionSet.Role,
			"followUpID", fu.ID, "triggerQuestionID", answered.ID)
	}
	return triggered
}

// Cancel forces an immediate transition to cancelled. It is cooperative with
// a running Start: the main loop observes it between suspension points and
// never interrupts a pending answer request.
func (s *Session) Cancel() {
	s.cancelRequested = true
	if !s.state.IsTerminal() {
		s.terminate(models.StateCancelled)
		slog.Info("Session cancelled", "role", roleOf(s.questionSet))
	}
}

// State returns the current lifecycle state.
func (s *Session) State() models.SessionState {
	return s.state
}

// Exchanges returns a copy of the exchanges recorded so far.
func (s *Session) Exchanges() []models.InterviewExchange {
	return append([]models.InterviewExchange(nil), s.exchanges...)
}

// QuestionsRemaining counts the questions still queued.
func (s *Session) QuestionsRemaining() int {
	return len(s.remainingCore) + len(s.pendingFollowUps)
}

// Result projects the session into an immutable InterviewResult for
// downstream consumers.
func (s *Session) Result() models.InterviewResult {
	return models.InterviewResult{
		ID:          util.GenerateResultID(),
		Role:        s.questionSet.Role,
		Exchanges:   s.Exchanges(),
		State:       s.state,
		StartedAt:   s.startedAt,
		CompletedAt: s.completedAt,
	}
}

// CreateSnapshot captures session progress in any state. Queued questions are
// captured as ids only; the snapshot is meaningful only when replayed against
// the identical QuestionSet it was taken from.
func (s *Session) CreateSnapshot() models.Snapshot {
	snap := models.Snapshot{
		Role:          s.questionSet.Role,
		State:         s.state,
		Exchanges:     s.Exchanges(),
		QuestionIndex: s.questionIndex,
		StartedAt:     s.startedAt,
		CompletedAt:   s.completedAt,
		CreatedAt:     time.Now(),
	}
	for id := range s.askedFollowUps {
		snap.AskedFollowUpIDs = append(snap.AskedFollowUpIDs, id)
	}
	sort.Strings(snap.AskedFollowUpIDs)
	for _, q := range s.remainingCore {
		snap.RemainingCoreQuestionIDs = append(snap.RemainingCoreQuestionIDs, q.ID)
	}
	for _, q := range s.pendingFollowUps {
		snap.RemainingFollowUpIDs = append(snap.RemainingFollowUpIDs, q.ID)
	}
	return snap
}

// RestoreFromSnapshot seeds a fresh session from a snapshot taken earlier
// against the same QuestionSet. Valid only while the session is idle or
// ready. Queued ids are re-resolved against the bound QuestionSet; ids no
// longer resolvable are silently dropped. A non-terminal snapshot leaves the
// session ready so Start can resume it; a terminal snapshot restores the
// terminal state for inspection.
func (s *Session) RestoreFromSnapshot(snap models.Snapshot) error {
	if s.state != models.StateIdle && s.state != models.StateReady {
		return fmt.Errorf("cannot restore snapshot in state %q: %w", s.state, ErrInvalidSessionState)
	}
	if s.questionSet == nil {
		return fmt.Errorf("no question set bound")
	}

	s.exchanges = append([]models.InterviewExchange(nil), snap.Exchanges...)
	s.questionIndex = snap.QuestionIndex
	s.startedAt = snap.StartedAt
	s.completedAt = snap.CompletedAt
	s.askedFollowUps = make(map[string]bool, len(snap.AskedFollowUpIDs))
	s.queuedFollowUps = make(map[string]bool)
	for _, id := range snap.AskedFollowUpIDs {
		s.askedFollowUps[id] = true
		s.queuedFollowUps[id] = true
	}

	s.remainingCore = nil
	dropped := 0
	for _, id := range snap.RemainingCoreQuestionIDs {
		q, ok := s.questionSet.QuestionByID(id)
		if !ok {
			dropped++
			continue
		}
		s.remainingCore = append(s.remainingCore, q)
	}
	s.pendingFollowUps = nil
	for _, id := range snap.RemainingFollowUpIDs {
		q, ok := s.questionSet.QuestionByID(id)
		if !ok {
			dropped++
			continue
		}
		s.queuedFollowUps[q.ID] = true
		s.pendingFollowUps = append(s.pendingFollowUps, q)
	}
	if dropped > 0 {
		slog.Warn("Session restore dropped unresolvable question ids", "role", s.questionSet.Role, "dropped", dropped)
	}

	if snap.State.IsTerminal() {
		s.state = snap.State
		s.started = true
	} else {
		s.state = models.StateReady
	}
	slog.Debug("Session restored from snapshot", "role", s.questionSet.Role,
		"state", s.state, "remaining", s.QuestionsRemaining(), "exchanges", len(s.exchanges))
	return nil
}

// answerSource resolves the configured source, enforcing exactly one.
func (s *Session) answerSource() (AnswerSource, error) {
	if s.opts.provider != nil && s.opts.interactive != nil {
		return nil, ErrMultipleAnswerSources
	}
	if s.opts.provider != nil {
		return s.opts.provider, nil
	}
	if s.opts.interactive != nil {
		return s.opts.interactive, nil
	}
	return nil, ErrNoAnswerSource
}

func (s *Session) terminate(state models.SessionState) {
	if s.state.IsTerminal() {
		return
	}
	s.state = state
	now := time.Now()
	s.completedAt = &now
}

func (s *Session) emit(ev models.ProgressEvent) {
	if s.opts.progress != nil {
		s.opts.progress(ev)
	}
}

func roleOf(qs *models.QuestionSet) string {
	if qs == nil {
		return ""
	}
	return qs.Role
}
