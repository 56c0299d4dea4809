package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dorsta123/Case-Prep/internal/llm"
	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	GenerateFunc func(ctx context.Context, history []types.Turn, msg llm.Message, opts llm.Options) (string, error)
}

func (m *MockLLMClient) Generate(ctx context.Context, history []types.Turn, msg llm.Message, opts llm.Options) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, history, msg, opts)
	}
	return validRubric, nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

type failingSessions struct {
	*store.Memory
}

func (f failingSessions) UpdateEvaluation(context.Context, types.SessionID, types.Evaluation) error {
	return errors.New("connection refused")
}

const validRubric = `{"overall_score":72,"completion_rate":60,"structure":70,"business_logic":75,"communication":80,"quant_accuracy":55,"feedback":"Strong opening structure. Slow down on the market sizing math."}`

var closingTranscript = types.Transcript{
	{Role: types.RoleCandidate, Content: "Revenue fell 10% while costs stayed flat."},
	{Role: types.RoleInterviewer, Content: "Good. What is your final recommendation?"},
}

func TestBuildPrompt(t *testing.T) {
	prompt, err := BuildPrompt(closingTranscript, "Jane Doe")
	require.NoError(t, err)

	assert.Contains(t, prompt, `candidate "Jane Doe"`)
	assert.Contains(t, prompt, "0-30: Fail")
	assert.Contains(t, prompt, "31-60: Developing")
	assert.Contains(t, prompt, "61-85: Strong")
	assert.Contains(t, prompt, "86-100: Exceptional")
	assert.Contains(t, prompt, "completion_rate cannot exceed 80")
	assert.Contains(t, prompt, `"quant_accuracy": number`)
	assert.Contains(t, prompt, `{"role":"candidate","content":"Revenue fell 10% while costs stayed flat."}`)
}

func TestBuildPrompt_EmptyTranscript(t *testing.T) {
	prompt, err := BuildPrompt(nil, "Jane")
	require.NoError(t, err)
	assert.Contains(t, prompt, "TRANSCRIPT: []")
}

func TestParse_FencedWithPreamble(t *testing.T) {
	raw := "Here you go:\n```json\n" + validRubric + "\n```"

	result, err := Parse(raw, closingTranscript)
	require.NoError(t, err)
	assert.Equal(t, 72.0, result.Evaluation.OverallScore)
	assert.Equal(t, 60.0, result.Evaluation.CompletionRate)
	assert.Equal(t, 55.0, result.Evaluation.QuantAccuracy)
	assert.Empty(t, result.Adjustments)
	assert.Equal(t, raw, result.Raw)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no object", "I am unable to grade this interview."},
		{"truncated", `{"overall_score": 72, "completion_rate": `},
		{"missing fields", `{"overall_score": 72}`},
		{"wrong types", strings.Replace(validRubric, `"structure":70`, `"structure":"high"`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw, closingTranscript)
			var me *types.MalformedEvaluationError
			require.True(t, errors.As(err, &me), "got %v", err)
			assert.Equal(t, tt.raw, me.Raw)
		})
	}
}

func TestConsistency(t *testing.T) {
	t.Run("clamps out of range", func(t *testing.T) {
		eval, adj := Consistency(types.Evaluation{OverallScore: 120, Structure: -5, CompletionRate: 50}, closingTranscript)
		assert.Equal(t, 100.0, eval.OverallScore)
		assert.Equal(t, 0.0, eval.Structure)
		assert.Len(t, adj, 2)
	})

	t.Run("caps completion without recommendation", func(t *testing.T) {
		open := types.Transcript{
			{Role: types.RoleCandidate, Content: "Let me structure this."},
			{Role: types.RoleInterviewer, Content: "Go ahead."},
		}
		eval, adj := Consistency(types.Evaluation{CompletionRate: 95}, open)
		assert.Equal(t, MaxCompletionWithoutRecommendation, eval.CompletionRate)
		require.Len(t, adj, 1)
		assert.Equal(t, "completion_rate", adj[0].Field)
		assert.Equal(t, 95.0, adj[0].From)
	})

	t.Run("keeps completion after recommendation", func(t *testing.T) {
		eval, adj := Consistency(types.Evaluation{CompletionRate: 95}, closingTranscript)
		assert.Equal(t, 95.0, eval.CompletionRate)
		assert.Empty(t, adj)
	})

	t.Run("keeps completion when candidate recommends", func(t *testing.T) {
		transcript := types.Transcript{
			{Role: types.RoleInterviewer, Content: "What would you advise the client?"},
			{Role: types.RoleCandidate, Content: "My final recommendation: enter the German market through a partnership."},
			{Role: types.RoleInterviewer, Content: "Great, thanks for your time today."},
		}
		eval, adj := Consistency(types.Evaluation{CompletionRate: 95}, transcript)
		assert.Equal(t, 95.0, eval.CompletionRate)
		assert.Empty(t, adj)
	})
}

func TestGenerate_UsesGradingOptions(t *testing.T) {
	var gotOpts llm.Options
	var gotMsg llm.Message
	var gotHistory []types.Turn
	client := &MockLLMClient{
		GenerateFunc: func(_ context.Context, history []types.Turn, msg llm.Message, opts llm.Options) (string, error) {
			gotHistory, gotMsg, gotOpts = history, msg, opts
			return validRubric, nil
		},
	}
	g := NewGenerator(client, store.NewMemory(), nil, nil)

	result, err := g.Generate(context.Background(), Input{SessionID: "s1", ParticipantName: "Jane", Transcript: closingTranscript})
	require.NoError(t, err)
	assert.Equal(t, 72.0, result.Evaluation.OverallScore)

	assert.Equal(t, llm.TierGrading, gotOpts.Tier)
	assert.Equal(t, float32(0.1), gotOpts.Temperature)
	assert.True(t, gotOpts.JSON)
	assert.Empty(t, gotHistory)
	assert.Contains(t, gotMsg.Content, "TRANSCRIPT:")
	assert.False(t, gotMsg.HasDirective())
}

func TestGenerate_UpstreamFailure(t *testing.T) {
	client := &MockLLMClient{
		GenerateFunc: func(context.Context, []types.Turn, llm.Message, llm.Options) (string, error) {
			return "", context.DeadlineExceeded
		},
	}
	g := NewGenerator(client, store.NewMemory(), nil, nil)

	_, err := g.Generate(context.Background(), Input{SessionID: "s1", ParticipantName: "Jane"})
	var ue *types.UpstreamGenerationError
	require.True(t, errors.As(err, &ue))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerate_Malformed(t *testing.T) {
	client := &MockLLMClient{
		GenerateFunc: func(context.Context, []types.Turn, llm.Message, llm.Options) (string, error) {
			return "Sorry, no rubric today.", nil
		},
	}
	g := NewGenerator(client, store.NewMemory(), nil, nil)

	_, err := g.Generate(context.Background(), Input{SessionID: "s1", ParticipantName: "Jane"})
	var me *types.MalformedEvaluationError
	assert.True(t, errors.As(err, &me))
}

func TestPersist(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	_, err := mem.OpenSession(ctx, "s1", "Jane", types.Scenario{})
	require.NoError(t, err)

	g := NewGenerator(&MockLLMClient{}, mem, nil, nil)
	require.NoError(t, g.Persist(ctx, "s1", types.Evaluation{OverallScore: 64}))

	s, err := mem.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 64.0, s.Evaluation.OverallScore)
}

func TestPersist_Failure(t *testing.T) {
	g := NewGenerator(&MockLLMClient{}, failingSessions{store.NewMemory()}, nil, nil)

	err := g.Persist(context.Background(), "s1", types.Evaluation{})
	var pe *types.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "update evaluation", pe.Op)
}
