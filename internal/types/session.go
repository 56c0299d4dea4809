package types

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// BaselineRating is the rating a participant starts with when first seen.
const BaselineRating = 1200

// SessionID is an opaque session identifier.
type SessionID string

var whitespaceRun = regexp.MustCompile(`\s+`)

// NewSessionID builds a human-readable id from the participant name and creation time,
// e.g. "jane-doe-1735689600000". It only avoids collisions; it does not guarantee uniqueness.
func NewSessionID(participantName string, now time.Time) SessionID {
	slug := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(participantName)), "-")
	if slug == "" {
		slug = "guest"
	}
	return SessionID(fmt.Sprintf("%s-%d", slug, now.UnixMilli()))
}

// Session is one participant's continuous case-interview attempt.
type Session struct {
	ID              SessionID   `json:"session_id"`
	ParticipantName string      `json:"participant_name"`
	Scenario        Scenario    `json:"scenario"`
	Transcript      Transcript  `json:"transcript"`
	Evaluation      *Evaluation `json:"evaluation,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Evaluation is the terminal rubric assessment of a session.
// All numeric fields are nominally in [0, 100].
type Evaluation struct {
	OverallScore   float64 `json:"overall_score"`
	CompletionRate float64 `json:"completion_rate"`
	Structure      float64 `json:"structure"`
	BusinessLogic  float64 `json:"business_logic"`
	Communication  float64 `json:"communication"`
	QuantAccuracy  float64 `json:"quant_accuracy"`
	Feedback       string  `json:"feedback"`
}

// RatingRecord is a participant's cumulative rating, keyed by display name.
type RatingRecord struct {
	ParticipantName string `json:"participant_name"`
	Rating          int    `json:"rating"`
}
