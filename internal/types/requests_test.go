package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       TurnRequest
		wantField string
	}{
		{name: "valid", req: TurnRequest{SessionID: "s-1", CandidateText: "Start"}},
		{name: "missing session", req: TurnRequest{CandidateText: "Start"}, wantField: "session_id"},
		{name: "missing text", req: TurnRequest{SessionID: "s-1"}, wantField: "candidate_text"},
		{name: "blank text", req: TurnRequest{SessionID: "s-1", CandidateText: "   "}, wantField: "candidate_text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestEvaluateRequest_Validate(t *testing.T) {
	req := EvaluateRequest{SessionID: "s-1"}
	var vErr *ValidationError
	require.ErrorAs(t, req.Validate(), &vErr)
	assert.Equal(t, "participant_name", vErr.Field)

	req.ParticipantName = "Alice"
	req.Transcript = Transcript{{Role: "narrator", Content: "x"}}
	require.ErrorAs(t, req.Validate(), &vErr)
	assert.Equal(t, "role", vErr.Field)

	req.Transcript = Transcript{{Role: RoleCandidate, Content: "x"}}
	assert.NoError(t, req.Validate())
}

func TestRegisterRequest_Validate(t *testing.T) {
	req := RegisterRequest{ParticipantName: "  Alice  "}
	require.NoError(t, req.Validate())
	assert.Equal(t, "Alice", req.ParticipantName)

	req = RegisterRequest{ParticipantName: "   "}
	assert.Error(t, req.Validate())
}

func TestTurnRequest_Scenario(t *testing.T) {
	req := TurnRequest{Industry: "Technology & SaaS"}
	assert.Equal(t, Scenario{Industry: "Technology & SaaS", Domain: Random}, req.Scenario())
}
