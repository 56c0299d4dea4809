package evaluation

import (
	"strings"

	"github.com/dorsta123/Case-Prep/internal/progress"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// MaxCompletionWithoutRecommendation caps completion_rate when the interview
// never reached a final recommendation.
const MaxCompletionWithoutRecommendation = 80.0

// Adjustment records one field the consistency check changed.
type Adjustment struct {
	Field  string  `json:"field"`
	From   float64 `json:"from"`
	To     float64 `json:"to"`
	Reason string  `json:"reason"`
}

// Consistency clamps every score into [0, 100] and caps completion_rate at 80
// unless the transcript reached a final recommendation. Agreement
// between feedback tone and score is left to the grading prompt.
func Consistency(eval types.Evaluation, transcript types.Transcript) (types.Evaluation, []Adjustment) {
	var adjustments []Adjustment

	fields := []struct {
		name string
		v    *float64
	}{
		{"overall_score", &eval.OverallScore},
		{"completion_rate", &eval.CompletionRate},
		{"structure", &eval.Structure},
		{"business_logic", &eval.BusinessLogic},
		{"communication", &eval.Communication},
		{"quant_accuracy", &eval.QuantAccuracy},
	}
	for _, f := range fields {
		clamped := min(max(*f.v, 0), 100)
		if clamped != *f.v {
			adjustments = append(adjustments, Adjustment{Field: f.name, From: *f.v, To: clamped, Reason: "out of range"})
			*f.v = clamped
		}
	}

	if eval.CompletionRate > MaxCompletionWithoutRecommendation && !reachedRecommendation(transcript) {
		adjustments = append(adjustments, Adjustment{
			Field:  "completion_rate",
			From:   eval.CompletionRate,
			To:     MaxCompletionWithoutRecommendation,
			Reason: "no final recommendation in transcript",
		})
		eval.CompletionRate = MaxCompletionWithoutRecommendation
	}

	return eval, adjustments
}

// reachedRecommendation holds when the last interviewer turn asks for or
// gives the wrap-up, or when the candidate stated a recommendation.
func reachedRecommendation(t types.Transcript) bool {
	if last, ok := t.LastInterviewer(); ok && progress.IsClosing(last.Content) {
		return true
	}
	for _, turn := range t {
		if turn.Role == types.RoleCandidate && strings.Contains(strings.ToLower(turn.Content), "recommend") {
			return true
		}
	}
	return false
}
