// Package evaluation grades a finished interview transcript. It asks the
// grading model for a strict JSON rubric, extracts and validates the object,
// applies local consistency corrections, and persists the result.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dorsta123/Case-Prep/internal/llm"
	"github.com/dorsta123/Case-Prep/internal/logging"
	"github.com/dorsta123/Case-Prep/internal/metrics"
	"github.com/dorsta123/Case-Prep/internal/prompts"
	"github.com/dorsta123/Case-Prep/internal/schemas"
	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// Input is what the generator needs to grade a session.
type Input struct {
	SessionID       types.SessionID
	ParticipantName string
	Transcript      types.Transcript
}

// Result is a parsed, validated evaluation.
type Result struct {
	Evaluation  types.Evaluation
	Adjustments []Adjustment
	Raw         string
}

// Generator produces and stores evaluations.
type Generator struct {
	client   llm.Client
	sessions store.SessionStore
	opts     llm.Options
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewGenerator creates a Generator. logger and m may be nil.
func NewGenerator(client llm.Client, sessions store.SessionStore, logger *zap.Logger, m *metrics.Metrics) *Generator {
	return &Generator{
		client:   client,
		sessions: sessions,
		opts:     llm.GradingOptions(),
		logger:   logging.OrNop(logger),
		metrics:  m,
	}
}

// BuildPrompt renders the grading prompt with the serialized transcript.
func BuildPrompt(transcript types.Transcript, participant string) (string, error) {
	if transcript == nil {
		transcript = types.Transcript{}
	}
	serialized, err := json.Marshal(transcript)
	if err != nil {
		return "", fmt.Errorf("failed to serialize transcript: %w", err)
	}
	return prompts.Render(prompts.EvaluationFile, "grade-transcript", map[string]string{
		"Participant": participant,
		"Transcript":  string(serialized),
	})
}

// Generate grades the transcript. It does not persist anything.
func (g *Generator) Generate(ctx context.Context, in Input) (*Result, error) {
	prompt, err := BuildPrompt(in.Transcript, in.ParticipantName)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := g.client.Generate(ctx, nil, llm.Message{Content: prompt}, g.opts)
	g.metrics.ObserveGeneration(string(g.opts.Tier), time.Since(start), err)
	if err != nil {
		g.metrics.Evaluation("upstream_error", 0)
		return nil, &types.UpstreamGenerationError{Message: "grading call failed", Cause: err}
	}

	result, err := Parse(raw, in.Transcript)
	if err != nil {
		g.metrics.Evaluation("malformed", 0)
		g.logger.Warn("grader returned malformed rubric",
			zap.String("session_id", string(in.SessionID)),
			zap.Error(err))
		return nil, err
	}

	for _, adj := range result.Adjustments {
		g.logger.Info("evaluation adjusted",
			zap.String("session_id", string(in.SessionID)),
			zap.String("field", adj.Field),
			zap.Float64("from", adj.From),
			zap.Float64("to", adj.To),
			zap.String("reason", adj.Reason))
	}
	g.metrics.Evaluation("ok", len(result.Adjustments))
	return result, nil
}

// Persist stores the evaluation on the session, overwriting any earlier one.
func (g *Generator) Persist(ctx context.Context, id types.SessionID, eval types.Evaluation) error {
	if err := g.sessions.UpdateEvaluation(ctx, id, eval); err != nil {
		return &types.PersistenceError{Op: "update evaluation", Cause: err}
	}
	return nil
}

// Parse extracts the rubric object from a raw grader response, validates it
// and applies the consistency check against the transcript.
func Parse(raw string, transcript types.Transcript) (*Result, error) {
	body, ok := llm.ExtractJSONObject(raw)
	if !ok {
		return nil, &types.MalformedEvaluationError{Message: "no JSON object in response", Raw: raw}
	}
	if err := schemas.Validate(schemas.Evaluation, body); err != nil {
		return nil, &types.MalformedEvaluationError{Message: "rubric does not match schema", Raw: raw, Cause: err}
	}

	var eval types.Evaluation
	if err := json.Unmarshal([]byte(body), &eval); err != nil {
		return nil, &types.MalformedEvaluationError{Message: "rubric is not valid JSON", Raw: raw, Cause: err}
	}

	eval, adjustments := Consistency(eval, transcript)
	return &Result{Evaluation: eval, Adjustments: adjustments, Raw: raw}, nil
}
