// Package interview runs the per-message conversation loop of a case
// interview: composing what is sent to the interviewer model, keeping the
// visible transcript clean, and closing a session out with an evaluation
// and a rating update.
package interview

import (
	"github.com/dorsta123/Case-Prep/internal/llm"
	"github.com/dorsta123/Case-Prep/internal/prompts"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// generalLabel stands in for an unset tag inside a directive.
const generalLabel = "General"

// ComposeTurn builds the outbound message for a candidate turn. Only the
// first turn of a session with at least one concrete scenario tag carries a
// directive; every other turn is sent verbatim.
func ComposeTurn(transcript types.Transcript, candidateText string, scenario types.Scenario) llm.Message {
	msg := llm.Message{Content: candidateText}
	if len(transcript) > 0 || !scenario.Concrete() {
		return msg
	}
	msg.Directive = prompts.MustRender(prompts.InterviewFile, "scenario-directive", directiveData(scenario))
	return msg
}

// ComposeAutoStart builds the synthetic opening sent when a session is opened
// with no turns. There is no candidate text; the interviewer is told to begin.
func ComposeAutoStart(scenario types.Scenario) llm.Message {
	msg := llm.Message{Content: prompts.MustGet(prompts.InterviewFile, "auto-start")}
	if scenario.Concrete() {
		msg.Directive = prompts.MustRender(prompts.InterviewFile, "auto-start-directive", directiveData(scenario))
	} else {
		msg.Directive = prompts.MustGet(prompts.InterviewFile, "auto-start-random-directive")
	}
	return msg
}

// Persona returns the standing interviewer instruction.
func Persona() string {
	return prompts.MustGet(prompts.InterviewFile, "interviewer-persona")
}

func directiveData(s types.Scenario) map[string]string {
	label := func(tag string) string {
		if types.IsRandom(tag) {
			return generalLabel
		}
		return tag
	}
	return map[string]string{
		"Industry": label(s.Industry),
		"Domain":   label(s.Domain),
	}
}
