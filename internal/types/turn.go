// Package types provides type definitions for structured data used throughout the case interview system.
package types

import "strings"

// Role identifies who authored a turn.
type Role string

const (
	// RoleCandidate is the participant being interviewed
	RoleCandidate Role = "candidate"
	// RoleInterviewer is the AI interviewer persona
	RoleInterviewer Role = "interviewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleCandidate || r == RoleInterviewer
}

// Turn is one message exchanged within a session. Turns are immutable once appended.
type Turn struct {
	Role    Role   `json:"role" validate:"required,oneof=candidate interviewer"`
	Content string `json:"content"`
}

// Transcript is the ordered, append-only sequence of turns for a session.
type Transcript []Turn

// Append returns a new transcript with turns added at the end.
// The receiver's backing array is never written to.
func (t Transcript) Append(turns ...Turn) Transcript {
	out := make(Transcript, 0, len(t)+len(turns))
	out = append(out, t...)
	return append(out, turns...)
}

// CandidateTurns returns the number of turns authored by the candidate.
func (t Transcript) CandidateTurns() int {
	n := 0
	for _, turn := range t {
		if turn.Role == RoleCandidate {
			n++
		}
	}
	return n
}

// LastInterviewer returns the most recent interviewer turn, if any.
func (t Transcript) LastInterviewer() (Turn, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == RoleInterviewer {
			return t[i], true
		}
	}
	return Turn{}, false
}

// Text joins the content of every turn, one per line.
func (t Transcript) Text() string {
	var sb strings.Builder
	for i, turn := range t {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(turn.Content)
	}
	return sb.String()
}
