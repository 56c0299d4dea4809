package interview

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dorsta123/Case-Prep/internal/evaluation"
	"github.com/dorsta123/Case-Prep/internal/llm"
	"github.com/dorsta123/Case-Prep/internal/logging"
	"github.com/dorsta123/Case-Prep/internal/metrics"
	"github.com/dorsta123/Case-Prep/internal/progress"
	"github.com/dorsta123/Case-Prep/internal/rating"
	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// State is the lifecycle position of a session.
type State string

const (
	StateUninitialized     State = "uninitialized"
	StateAwaitingFirstTurn State = "awaiting_first_turn"
	StateInProgress        State = "in_progress"
	StateEvaluated         State = "evaluated"
)

// StateOf derives the state of a stored session. A nil session has not been
// created yet.
func StateOf(s *types.Session) State {
	switch {
	case s == nil:
		return StateUninitialized
	case s.Evaluation != nil:
		return StateEvaluated
	case len(s.Transcript) == 0:
		return StateAwaitingFirstTurn
	default:
		return StateInProgress
	}
}

// TurnResult is returned for a successful turn.
type TurnResult struct {
	InterviewerText string  `json:"interviewer_text"`
	Progress        float64 `json:"progress"`
	State           State   `json:"state"`
	TurnCount       int     `json:"turn_count"`
}

// OpenResult is returned when a session is opened.
type OpenResult struct {
	Session  *types.Session `json:"session"`
	Created  bool           `json:"created"`
	Started  bool           `json:"started"`
	Progress float64        `json:"progress"`
	State    State          `json:"state"`
}

// SessionView is a stored session with its derived progress.
type SessionView struct {
	Session  *types.Session `json:"session"`
	Progress float64        `json:"progress"`
	State    State          `json:"state"`
}

// FinishResult is the outcome of closing a session.
type FinishResult struct {
	Evaluation  types.Evaluation        `json:"evaluation"`
	Adjustments []evaluation.Adjustment `json:"adjustments,omitempty"`
	Progress    float64                 `json:"progress"`
	Rating      *rating.Outcome         `json:"rating,omitempty"`
	Warnings    []string                `json:"warnings,omitempty"`
}

// Orchestrator runs the conversation state machine for every session.
// It holds no per-session state; concurrent turns on one session id are
// last-write-wins at the store.
type Orchestrator struct {
	client    llm.Client
	sessions  store.SessionStore
	evaluator *evaluation.Generator
	ratings   *rating.Updater
	chat      llm.Options
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithChatOptions overrides the generation options used for interviewer turns.
func WithChatOptions(opts llm.Options) Option {
	return func(o *Orchestrator) { o.chat = opts }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logging.OrNop(l) }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// NewOrchestrator wires the conversation loop to its collaborators.
func NewOrchestrator(client llm.Client, sessions store.SessionStore, evaluator *evaluation.Generator, ratings *rating.Updater, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:    client,
		sessions:  sessions,
		evaluator: evaluator,
		ratings:   ratings,
		chat:      llm.ChatOptions(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.chat.System == "" {
		o.chat.System = Persona()
	}
	return o
}

// Turn handles one candidate message. The transcript is only written after
// the interviewer replied, and the reply is only returned once it is stored.
// Evaluated sessions are closed to further turns.
func (o *Orchestrator) Turn(ctx context.Context, req types.TurnRequest) (*TurnResult, error) {
	if err := req.Validate(); err != nil {
		o.metrics.Turn("invalid")
		return nil, err
	}
	log := o.logger.With(zap.String("session_id", string(req.SessionID)))

	opened, err := o.sessions.OpenSession(ctx, req.SessionID, req.ParticipantName, req.Scenario())
	if err != nil {
		o.metrics.Turn("persistence_error")
		return nil, &types.PersistenceError{Op: "open session", Cause: err}
	}
	session := opened.Session
	if StateOf(session) == StateEvaluated {
		o.metrics.Turn("closed")
		return nil, &types.SessionClosedError{SessionID: req.SessionID}
	}
	participant := req.ParticipantName
	if participant == "" {
		participant = session.ParticipantName
	}

	outbound := ComposeTurn(session.Transcript, req.CandidateText, session.Scenario)
	if outbound.HasDirective() {
		log.Debug("scenario directive attached",
			zap.String("industry", session.Scenario.Industry),
			zap.String("domain", session.Scenario.Domain))
	}

	reply, err := o.generate(ctx, session.Transcript, outbound)
	if err != nil {
		o.metrics.Turn("upstream_error")
		log.Warn("interviewer generation failed", zap.Error(err))
		return nil, err
	}

	transcript := session.Transcript.Append(
		types.Turn{Role: types.RoleCandidate, Content: req.CandidateText},
		types.Turn{Role: types.RoleInterviewer, Content: reply},
	)
	if err := o.sessions.SaveTranscript(ctx, req.SessionID, participant, transcript); err != nil {
		o.metrics.Turn("persistence_error")
		log.Error("failed to save transcript, withholding reply", zap.Error(err))
		return nil, &types.PersistenceError{Op: "save transcript", Cause: err}
	}

	o.metrics.Turn("ok")
	log.Info("turn completed", zap.Int("turns", len(transcript)), zap.String("open_status", opened.Status.String()))
	return &TurnResult{
		InterviewerText: reply,
		Progress:        progress.Estimate(transcript),
		State:           StateInProgress,
		TurnCount:       len(transcript),
	}, nil
}

// Open opens a session, creating it when missing. A session with no turns is
// auto-started: the interviewer's opening is generated and stored as the
// first turn. Sessions that already have turns are returned untouched.
func (o *Orchestrator) Open(ctx context.Context, req types.OpenRequest) (*OpenResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := o.logger.With(zap.String("session_id", string(req.SessionID)))

	opened, err := o.sessions.OpenSession(ctx, req.SessionID, req.ParticipantName, req.Scenario())
	if err != nil {
		return nil, &types.PersistenceError{Op: "open session", Cause: err}
	}
	session := opened.Session
	result := &OpenResult{Session: session, Created: opened.Status == store.Created}

	if len(session.Transcript) > 0 || session.Evaluation != nil {
		result.Progress = progress.Estimate(session.Transcript)
		result.State = StateOf(session)
		return result, nil
	}

	reply, err := o.generate(ctx, nil, ComposeAutoStart(session.Scenario))
	if err != nil {
		log.Warn("auto-start generation failed", zap.Error(err))
		return nil, err
	}

	participant := req.ParticipantName
	if participant == "" {
		participant = session.ParticipantName
	}
	transcript := session.Transcript.Append(types.Turn{Role: types.RoleInterviewer, Content: reply})
	if err := o.sessions.SaveTranscript(ctx, req.SessionID, participant, transcript); err != nil {
		return nil, &types.PersistenceError{Op: "save transcript", Cause: err}
	}

	session.Transcript = transcript
	result.Started = true
	result.Progress = progress.Estimate(transcript)
	result.State = StateOf(session)
	log.Info("session auto-started", zap.Bool("created", result.Created))
	return result, nil
}

// Transcript returns a stored session and its progress estimate.
func (o *Orchestrator) Transcript(ctx context.Context, id types.SessionID) (*SessionView, error) {
	session, err := o.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, &types.PersistenceError{Op: "get session", Cause: err}
	}
	if session == nil {
		return nil, &types.NotFoundError{SessionID: id}
	}
	return &SessionView{
		Session:  session,
		Progress: progress.Estimate(session.Transcript),
		State:    StateOf(session),
	}, nil
}

// Finish grades a session and applies the rating change. When the request
// carries no transcript the stored one is used. Failures to store the
// evaluation or update the rating are reported as warnings; the evaluation
// is still returned.
func (o *Orchestrator) Finish(ctx context.Context, req types.EvaluateRequest) (*FinishResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	log := o.logger.With(zap.String("session_id", string(req.SessionID)))

	transcript := req.Transcript
	if len(transcript) == 0 {
		session, err := o.sessions.GetSession(ctx, req.SessionID)
		if err != nil {
			return nil, &types.PersistenceError{Op: "get session", Cause: err}
		}
		if session == nil {
			return nil, &types.NotFoundError{SessionID: req.SessionID}
		}
		transcript = session.Transcript
	}

	result, err := o.evaluator.Generate(ctx, evaluation.Input{
		SessionID:       req.SessionID,
		ParticipantName: req.ParticipantName,
		Transcript:      transcript,
	})
	if err != nil {
		return nil, err
	}

	finish := &FinishResult{
		Evaluation:  result.Evaluation,
		Adjustments: result.Adjustments,
		Progress:    progress.Estimate(transcript),
	}
	gain := rating.Gain(result.Evaluation.OverallScore, finish.Progress)

	// A plain Group: one side failing must not cancel the other, so each
	// keeps its own error for the warnings list.
	var persistErr, ratingErr error
	var g errgroup.Group
	g.Go(func() error {
		persistErr = o.evaluator.Persist(ctx, req.SessionID, result.Evaluation)
		return persistErr
	})
	g.Go(func() error {
		finish.Rating, ratingErr = o.ratings.ApplyRatingDelta(ctx, req.ParticipantName, gain)
		return ratingErr
	})
	if err := g.Wait(); err != nil {
		for _, e := range []error{persistErr, ratingErr} {
			if e != nil {
				finish.Warnings = append(finish.Warnings, e.Error())
			}
		}
		log.Error("session evaluated with warnings",
			zap.NamedError("persist_error", persistErr),
			zap.NamedError("rating_error", ratingErr))
	}

	log.Info("session evaluated",
		zap.Float64("overall_score", result.Evaluation.OverallScore),
		zap.Float64("progress", finish.Progress),
		zap.Int("gain", gain))
	return finish, nil
}

func (o *Orchestrator) generate(ctx context.Context, history types.Transcript, msg llm.Message) (string, error) {
	start := time.Now()
	reply, err := o.client.Generate(ctx, history, msg, o.chat)
	o.metrics.ObserveGeneration(string(o.chat.Tier), time.Since(start), err)
	if err != nil {
		return "", &types.UpstreamGenerationError{Message: "interviewer call failed", Cause: err}
	}
	return reply, nil
}
