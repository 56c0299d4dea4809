package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dorsta123/Case-Prep/internal/evaluation"
	"github.com/dorsta123/Case-Prep/internal/interview"
	"github.com/dorsta123/Case-Prep/internal/llm"
	"github.com/dorsta123/Case-Prep/internal/metrics"
	"github.com/dorsta123/Case-Prep/internal/rating"
	"github.com/dorsta123/Case-Prep/internal/server/ratelimit"
	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

const testRubric = `{"overall_score":80,"completion_rate":90,"structure":80,"business_logic":78,"communication":85,"quant_accuracy":70,"feedback":"Good structure."}`

// MockLLMClient is a mock implementation of llm.Client for testing
type MockLLMClient struct {
	GenerateFunc func(ctx context.Context, history []types.Turn, msg llm.Message, opts llm.Options) (string, error)
}

func (m *MockLLMClient) Generate(ctx context.Context, history []types.Turn, msg llm.Message, opts llm.Options) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, history, msg, opts)
	}
	if opts.Tier == llm.TierGrading {
		return testRubric, nil
	}
	return "Let's begin. Your client is a regional airline.", nil
}

func (m *MockLLMClient) GetModel(_ llm.ModelTier) string { return "mock-model" }

func (m *MockLLMClient) Close() error { return nil }

type testServer struct {
	*Server
	store   *store.Memory
	metrics *metrics.Metrics
}

func newTestServer(t *testing.T, client llm.Client, mutate ...func(*Config, *Deps)) *testServer {
	t.Helper()
	mem := store.NewMemory()
	m := metrics.New(prometheus.NewRegistry())
	cfg := Config{Addr: ":0", GenerationTimeout: time.Second, LeaderboardMaxLimit: 100}
	deps := Deps{
		Orchestrator: interview.NewOrchestrator(client, mem,
			evaluation.NewGenerator(client, mem, nil, m),
			rating.NewUpdater(mem, nil, m),
			interview.WithMetrics(m)),
		Ratings: rating.NewUpdater(mem, nil, m),
		Metrics: m,
	}
	for _, f := range mutate {
		f(&cfg, &deps)
	}
	s, err := New(cfg, deps)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &testServer{Server: s, store: mem, metrics: m}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleHealth_Unavailable(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{}, func(_ *Config, d *Deps) {
		d.Ready = func(context.Context) error { return errors.New("db down") }
	})

	w := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleCatalog(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	w := ts.do(t, http.MethodGet, "/api/catalog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[CatalogResponse](t, w)
	assert.Len(t, resp.Industries, len(types.Industries))
	assert.Len(t, resp.Domains, len(types.Domains))
	assert.Equal(t, types.Random, resp.Random)
}

func TestHandleRegister(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	w := ts.do(t, http.MethodPost, "/api/sessions", map[string]string{"participant_name": "  Jane Doe ", "industry": "Private Equity"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[RegisterResponse](t, w)
	assert.True(t, strings.HasPrefix(string(resp.SessionID), "jane-doe-"))
	assert.Equal(t, "Jane Doe", resp.ParticipantName)
	assert.True(t, resp.NewParticipant)
	assert.Equal(t, types.Scenario{Industry: "Private Equity", Domain: types.Random}, resp.Scenario)

	r, ok, err := ts.store.GetRating(context.Background(), "Jane Doe")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, types.BaselineRating, r)

	w = ts.do(t, http.MethodPost, "/api/sessions", map[string]string{"participant_name": "Jane Doe"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, decode[RegisterResponse](t, w).NewParticipant)
}

func TestHandleRegister_Validation(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	for name, body := range map[string]any{
		"blank name": map[string]string{"participant_name": "   "},
		"bad json":   "{not json",
		"no body":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/sessions", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, KindValidation, decode[map[string]string](t, w)["kind"])
		})
	}
}

func TestHandleRegister_UnknownTagsAcceptedAndLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	ts := newTestServer(t, &MockLLMClient{}, func(_ *Config, d *Deps) { d.Logger = zap.New(core) })

	w := ts.do(t, http.MethodPost, "/api/sessions", map[string]string{
		"participant_name": "Jane",
		"industry":         "Space Mining",
		"domain":           "Profitability",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Space Mining", decode[RegisterResponse](t, w).Scenario.Industry)
	assert.Equal(t, 1, logs.FilterMessage("industry not in catalog").Len())
	assert.Equal(t, 0, logs.FilterMessage("domain not in catalog").Len())
}

func TestHandleOpen_AutoStarts(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	w := ts.do(t, http.MethodPost, "/api/sessions/jane-1/open", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[interview.OpenResult](t, w)
	assert.True(t, res.Started)
	require.Len(t, res.Session.Transcript, 1)
	assert.Equal(t, types.RoleInterviewer, res.Session.Transcript[0].Role)

	// second open is a no-op
	w = ts.do(t, http.MethodPost, "/api/sessions/jane-1/open", map[string]string{"participant_name": "Jane"})
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[interview.OpenResult](t, w)
	assert.False(t, res.Started)
	assert.Len(t, res.Session.Transcript, 1)
}

func TestHandleTurn_RoundTrip(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	w := ts.do(t, http.MethodPost, "/api/turn", types.TurnRequest{
		SessionID:       "jane-1",
		ParticipantName: "Jane",
		CandidateText:   "Hi, I'm ready.",
		Domain:          "Market Entry",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[interview.TurnResult](t, w)
	assert.Equal(t, "Let's begin. Your client is a regional airline.", res.InterviewerText)
	assert.Equal(t, interview.StateInProgress, res.State)
	assert.Equal(t, 2, res.TurnCount)

	w = ts.do(t, http.MethodGet, "/api/sessions/jane-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[interview.SessionView](t, w)
	require.Len(t, view.Session.Transcript, 2)
	assert.Equal(t, "Hi, I'm ready.", view.Session.Transcript[0].Content)
	assert.Equal(t, "Market Entry", view.Session.Scenario.Domain)
}

func TestHandleTurn_Errors(t *testing.T) {
	failing := &MockLLMClient{GenerateFunc: func(context.Context, []types.Turn, llm.Message, llm.Options) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	slow := &MockLLMClient{GenerateFunc: func(ctx context.Context, _ []types.Turn, _ llm.Message, _ llm.Options) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}

	tests := []struct {
		name   string
		client llm.Client
		body   any
		status int
		kind   string
	}{
		{"missing text", &MockLLMClient{}, map[string]string{"session_id": "s"}, http.StatusBadRequest, KindValidation},
		{"missing session", &MockLLMClient{}, map[string]string{"candidate_text": "hi"}, http.StatusBadRequest, KindValidation},
		{"upstream failure", failing, map[string]string{"session_id": "s", "candidate_text": "hi"}, http.StatusBadGateway, KindUpstreamGeneration},
		{"timeout", slow, map[string]string{"session_id": "s", "candidate_text": "hi"}, http.StatusGatewayTimeout, KindUpstreamTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.client, func(c *Config, _ *Deps) { c.GenerationTimeout = 20 * time.Millisecond })

			w := ts.do(t, http.MethodPost, "/api/turn", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.kind, decode[map[string]string](t, w)["kind"])

			s, err := ts.store.GetSession(context.Background(), "s")
			require.NoError(t, err)
			if s != nil {
				assert.Empty(t, s.Transcript, "failed turns store nothing")
			}
		})
	}
}

func TestHandleGetSession_NotFound(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	w := ts.do(t, http.MethodGet, "/api/sessions/nobody-1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, KindNotFound, decode[map[string]string](t, w)["kind"])
}

func TestHandleEvaluate(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})
	ctx := context.Background()
	require.NoError(t, ts.store.SaveTranscript(ctx, "jane-1", "Jane", types.Transcript{
		{Role: types.RoleCandidate, Content: "Costs grew faster than revenue."},
		{Role: types.RoleInterviewer, Content: "Good. What is your recommendation?"},
	}))

	w := ts.do(t, http.MethodPost, "/api/evaluate", map[string]string{"session_id": "jane-1", "participant_name": "Jane"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[interview.FinishResult](t, w)
	assert.Equal(t, 80.0, res.Evaluation.OverallScore)
	assert.Equal(t, 85.0, res.Progress)
	require.NotNil(t, res.Rating)
	assert.Equal(t, 1206, res.Rating.NewRating)
	assert.Empty(t, res.Warnings)

	w = ts.do(t, http.MethodGet, "/api/sessions/jane-1", nil)
	assert.Equal(t, interview.StateEvaluated, decode[interview.SessionView](t, w).State)

	w = ts.do(t, http.MethodPost, "/api/turn", map[string]string{"session_id": "jane-1", "candidate_text": "One more idea"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, KindSessionClosed, decode[map[string]string](t, w)["kind"])

	w = ts.do(t, http.MethodGet, "/api/sessions/jane-1", nil)
	assert.Len(t, decode[interview.SessionView](t, w).Session.Transcript, 2)
}

func TestHandleEvaluate_Errors(t *testing.T) {
	garbage := &MockLLMClient{GenerateFunc: func(context.Context, []types.Turn, llm.Message, llm.Options) (string, error) {
		return "I would rather not grade this.", nil
	}}

	t.Run("malformed", func(t *testing.T) {
		ts := newTestServer(t, garbage)
		require.NoError(t, ts.store.SaveTranscript(context.Background(), "s", "Jane", types.Transcript{{Role: types.RoleCandidate, Content: "hi"}}))

		w := ts.do(t, http.MethodPost, "/api/evaluate", map[string]string{"session_id": "s", "participant_name": "Jane"})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, KindMalformedEvaluation, decode[map[string]string](t, w)["kind"])

		r, _, err := ts.store.GetRating(context.Background(), "Jane")
		require.NoError(t, err)
		assert.Equal(t, 0, r, "no rating change on a failed evaluation")
	})

	t.Run("unknown session", func(t *testing.T) {
		ts := newTestServer(t, &MockLLMClient{})
		w := ts.do(t, http.MethodPost, "/api/evaluate", map[string]string{"session_id": "s", "participant_name": "Jane"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("missing participant", func(t *testing.T) {
		ts := newTestServer(t, &MockLLMClient{})
		w := ts.do(t, http.MethodPost, "/api/evaluate", map[string]string{"session_id": "s"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleLeaderboard(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{}, func(c *Config, _ *Deps) { c.LeaderboardMaxLimit = 2 })
	ctx := context.Background()
	require.NoError(t, ts.store.SetRating(ctx, "Alexandra", 2100))
	require.NoError(t, ts.store.SetRating(ctx, "Bo", 1300))
	require.NoError(t, ts.store.SetRating(ctx, "Chris", 900))

	w := ts.do(t, http.MethodGet, "/api/leaderboard?limit=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[LeaderboardResponse](t, w).Entries
	require.Len(t, entries, 2, "limit is capped")
	assert.Equal(t, rating.Entry{Rank: 1, Name: "A...a", Rating: 2100, Tier: "Senior Partner"}, entries[0])
	assert.Equal(t, rating.Entry{Rank: 2, Name: "Bo", Rating: 1300, Tier: "Engagement Manager"}, entries[1])

	for _, bad := range []string{"0", "-3", "ten"} {
		w = ts.do(t, http.MethodGet, "/api/leaderboard?limit="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{}, func(c *Config, _ *Deps) {
		c.RateLimit = &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  100,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/api/turn", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
			},
		}
	})
	body := map[string]string{"session_id": "s", "candidate_text": "hi"}

	w := ts.do(t, http.MethodPost, "/api/turn", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = ts.do(t, http.MethodPost, "/api/turn", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decode[map[string]any](t, w)["kind"])

	// other routes have their own budget
	w = ts.do(t, http.MethodGet, "/api/catalog", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})

	w := ts.do(t, http.MethodOptions, "/api/turn", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &MockLLMClient{})
	ts.do(t, http.MethodGet, "/api/catalog", nil)

	w := ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `caseprep_http_requests_total{method="GET",route="GET /api/catalog",status="200"} 1`)
}
