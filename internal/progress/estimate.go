// Package progress estimates how far a candidate has moved through a case.
// The estimate is a pure function of the transcript and is recomputed on
// every read; it is never stored.
package progress

import (
	"math"
	"strings"
	"unicode"

	"github.com/dorsta123/Case-Prep/internal/types"
)

const (
	// Ceiling is the highest value the estimator can report. Full completion
	// is left to the evaluation's own completion rate.
	Ceiling = 98.0
	// ClosingFloor is the minimum once the interviewer is wrapping up.
	ClosingFloor = 85.0

	milestonePerKeyword = 3.0
	milestoneCap        = 30.0
	quantBonus          = 15.0
	quantMinTurns       = 5
)

// Categories are the fixed milestone vocabularies.
var Categories = map[string][]string{
	"profitability": {"profit", "revenue", "cost", "margin", "price"},
	"market":        {"market", "competitor", "share", "segment", "growth"},
	"customer":      {"customer", "consumer", "churn", "acquisition", "retention"},
	"operational":   {"operations", "supply chain", "capacity", "logistics", "efficiency"},
}

var closingCues = []string{"recommendation", "conclude", "summary"}

// Breakdown holds the individual contributions to an estimate.
type Breakdown struct {
	CandidateTurns  int      `json:"candidate_turns"`
	Base            float64  `json:"base"`
	Milestone       float64  `json:"milestone"`
	MatchedKeywords []string `json:"matched_keywords"`
	Quant           float64  `json:"quant"`
	Closing         bool     `json:"closing"`
	Total           float64  `json:"total"`
}

// Estimate returns the progress percentage in [0, 98].
func Estimate(t types.Transcript) float64 {
	return Explain(t).Total
}

// Explain computes the estimate and reports every component.
func Explain(t types.Transcript) Breakdown {
	var b Breakdown
	if len(t) == 0 {
		return b
	}

	b.CandidateTurns = t.CandidateTurns()
	for i := 1; i <= b.CandidateTurns; i++ {
		b.Base += math.Max(4-float64(i)*0.1, 0.5)
	}

	text := strings.ToLower(t.Text())
	b.MatchedKeywords = matchKeywords(text)
	b.Milestone = math.Min(float64(len(b.MatchedKeywords))*milestonePerKeyword, milestoneCap)

	if hasQuant(text) && b.CandidateTurns > quantMinTurns {
		b.Quant = quantBonus
	}

	total := b.Base + b.Milestone + b.Quant
	if last, ok := t.LastInterviewer(); ok && IsClosing(last.Content) {
		b.Closing = true
		total = math.Max(total, ClosingFloor)
	}

	b.Total = clamp(total, 0, Ceiling)
	return b
}

// IsClosing reports whether interviewer text asks for or gives the wrap-up.
func IsClosing(text string) bool {
	lower := strings.ToLower(text)
	for _, cue := range closingCues {
		if strings.Contains(lower, cue) {
			return true
		}
	}
	return false
}

// matchKeywords returns the distinct keywords present, in category order.
func matchKeywords(text string) []string {
	seen := make(map[string]bool)
	var matched []string
	for _, name := range []string{"profitability", "market", "customer", "operational"} {
		for _, kw := range Categories[name] {
			if !seen[kw] && strings.Contains(text, kw) {
				seen[kw] = true
				matched = append(matched, kw)
			}
		}
	}
	return matched
}

func hasQuant(text string) bool {
	return strings.ContainsFunc(text, func(r rune) bool {
		return r == '%' || unicode.IsDigit(r)
	})
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
