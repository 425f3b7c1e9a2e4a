// Package pipeline drives end-to-end interview runs: one spec analysis, then
// one interview session per stakeholder role, with snapshots persisted so an
// interrupted run resumes where it stopped.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nia-vf/pocket-stakeholder/internal/adr"
	"github.com/nia-vf/pocket-stakeholder/internal/analysis"
	"github.com/nia-vf/pocket-stakeholder/internal/generator"
	"github.com/nia-vf/pocket-stakeholder/internal/interview"
	"github.com/nia-vf/pocket-stakeholder/internal/models"
	"github.com/nia-vf/pocket-stakeholder/internal/store"
)

// SourceFactory builds the answer-source option for one role's session. Prior
// results from earlier roles in the same run are passed so the source can use
// them as read-only context.
type SourceFactory func(role string, prior []models.InterviewResult) (interview.Option, error)

// Opts holds pipeline configuration.
type Opts struct {
	analyzer     analysis.ClientInterface
	store        store.Store
	recordWriter *adr.Writer
	sources      SourceFactory
	generatorCfg generator.Config
	progress     models.ProgressFunc
	sessionOpts  []interview.Option
}

// Option configures the pipeline driver.
type Option func(*Opts)

// WithAnalyzer sets the spec analysis client. Required.
func WithAnalyzer(a analysis.ClientInterface) Option {
	return func(o *Opts) { o.analyzer = a }
}

// WithStore sets the snapshot and result store. Defaults to in-memory.
func WithStore(s store.Store) Option {
	return func(o *Opts) { o.store = s }
}

// WithRecordWriter enables decision-record output for completed interviews.
func WithRecordWriter(w *adr.Writer) Option {
	return func(o *Opts) { o.recordWriter = w }
}

// WithSourceFactory sets the per-role answer source factory. Required.
func WithSourceFactory(f SourceFactory) Option {
	return func(o *Opts) { o.sources = f }
}

// WithGeneratorConfig overrides the question generator configuration.
func WithGeneratorConfig(cfg generator.Config) Option {
	return func(o *Opts) { o.generatorCfg = cfg }
}

// WithProgressFunc forwards session progress events to the given observer.
func WithProgressFunc(fn models.ProgressFunc) Option {
	return func(o *Opts) { o.progress = fn }
}

// WithSessionOptions appends extra options applied to every session the
// pipeline creates (e.g. a follow-up cap override).
func WithSessionOptions(opts ...interview.Option) Option {
	return func(o *Opts) { o.sessionOpts = append(o.sessionOpts, opts...) }
}

// Driver runs interviews for a list of roles sequentially.
type Driver struct {
	opts Opts
}

// NewDriver validates configuration and creates a Driver.
func NewDriver(options ...Option) (*Driver, error) {
	opts := Opts{generatorCfg: generator.DefaultConfig()}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.analyzer == nil {
		return nil, fmt.Errorf("analyzer not configured")
	}
	if opts.sources == nil {
		return nil, fmt.Errorf("answer source factory not configured")
	}
	if opts.store == nil {
		opts.store = store.NewInMemoryStore()
	}
	return &Driver{opts: opts}, nil
}

// Run analyzes the spec once and interviews each role in order. A completed
// interview is stored, its snapshot removed, and a decision record written. A
// cancelled interview saves its snapshot and stops the run; calling Run again
// with the same store resumes from that snapshot. Results from earlier roles
// are fed to later roles' answer sources as context.
func (d *Driver) Run(ctx context.Context, specMarkdown string, roles []string) ([]models.InterviewResult, error) {
	if len(roles) == 0 {
		return nil, fmt.Errorf("no roles to interview")
	}
	slog.Info("Pipeline run starting", "roles", strings.Join(roles, ","))

	analysisResult, err := d.opts.analyzer.AnalyzeSpec(ctx, specMarkdown)
	if err != nil {
		return nil, fmt.Errorf("spec analysis failed: %w", err)
	}

	var results []models.InterviewResult
	for _, role := range roles {
		res, completed, err := d.runRole(ctx, analysisResult, role, results)
		if err != nil {
			return results, err
		}
		if !completed {
			slog.Info("Pipeline run stopping on cancelled interview", "role", role)
			return results, nil
		}
		results = append(results, res)
	}
	slog.Info("Pipeline run finished", "interviews", len(results))
	return results, nil
}

// runRole executes one role's interview. The bool reports whether the
// interview reached completed (as opposed to cancelled).
func (d *Driver) runRole(ctx context.Context, analysisResult *models.AnalysisResult, role string, prior []models.InterviewResult) (models.InterviewResult, bool, error) {
	var zero models.InterviewResult

	questionSet, err := generator.Generate(analysisResult, role, d.opts.generatorCfg)
	if err != nil {
		return zero, false, fmt.Errorf("question generation for role %s failed: %w", role, err)
	}

	sourceOpt, err := d.opts.sources(role, prior)
	if err != nil {
		return zero, false, fmt.Errorf("answer source for role %s failed: %w", role, err)
	}

	options := append([]interview.Option{sourceOpt}, d.opts.sessionOpts...)
	if d.opts.progress != nil {
		options = append(options, interview.WithProgressFunc(d.opts.progress))
	}
	session := interview.NewSession(questionSet, options...)
	if err := session.Initialize(); err != nil {
		return zero, false, fmt.Errorf("session initialization for role %s failed: %w", role, err)
	}

	if err := d.restoreIfResumable(session, role); err != nil {
		return zero, false, err
	}

	if err := session.Start(ctx); err != nil {
		// The source failed mid-interview; keep the snapshot so a rerun can
		// resume rather than restart.
		if saveErr := d.opts.store.SaveSnapshot(interruptedSnapshot(session)); saveErr != nil {
			slog.Error("Pipeline snapshot save after failure failed", "role", role, "error", saveErr)
		}
		return zero, false, fmt.Errorf("interview for role %s failed: %w", role, err)
	}

	if session.State() == models.StateCancelled {
		if err := d.opts.store.SaveSnapshot(interruptedSnapshot(session)); err != nil {
			return zero, false, fmt.Errorf("failed to save snapshot for role %s: %w", role, err)
		}
		return zero, false, nil
	}

	result := session.Result()
	if err := d.opts.store.AddResult(result); err != nil {
		return zero, false, fmt.Errorf("failed to store result for role %s: %w", role, err)
	}
	if err := d.opts.store.DeleteSnapshot(role); err != nil {
		slog.Error("Pipeline snapshot cleanup failed", "role", role, "error", err)
	}
	if d.opts.recordWriter != nil {
		if _, err := d.opts.recordWriter.Write(result); err != nil {
			return zero, false, fmt.Errorf("failed to write decision record for role %s: %w", role, err)
		}
	}
	return result, true, nil
}

// interruptedSnapshot captures a cancelled session as a resumable snapshot:
// the stored state records interrupted progress, not a final outcome, so a
// later run restores it instead of discarding it as terminal.
func interruptedSnapshot(session *interview.Session) models.Snapshot {
	snap := session.CreateSnapshot()
	snap.State = models.StateInProgress
	return snap
}

// restoreIfResumable loads a stored snapshot for the role, if any. Terminal
// snapshots are stale leftovers and are discarded instead of restored.
func (d *Driver) restoreIfResumable(session *interview.Session, role string) error {
	snap, err := d.opts.store.GetSnapshot(role)
	if err != nil {
		return fmt.Errorf("failed to load snapshot for role %s: %w", role, err)
	}
	if snap == nil {
		return nil
	}
	if snap.State.IsTerminal() {
		slog.Warn("Pipeline discarding stale terminal snapshot", "role", role, "state", snap.State)
		if err := d.opts.store.DeleteSnapshot(role); err != nil {
			slog.Error("Pipeline stale snapshot cleanup failed", "role", role, "error", err)
		}
		return nil
	}
	if err := session.RestoreFromSnapshot(*snap); err != nil {
		return fmt.Errorf("failed to restore snapshot for role %s: %w", role, err)
	}
	slog.Info("Pipeline resuming interview from snapshot", "role", role,
		"remaining", session.QuestionsRemaining(), "exchanges", len(session.Exchanges()))
	return nil
}

// ContextFromResults formats prior interview results as read-only background
// text for a later role's answer source.
func ContextFromResults(prior []models.InterviewResult) string {
	if len(prior) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Answers already given by other stakeholders (read-only context):\n")
	for _, res := range prior {
		fmt.Fprintf(&b, "\n[%s]\n", res.Role)
		for _, ex := range res.Exchanges {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.Question, ex.Answer)
		}
	}
	return b.String()
}
