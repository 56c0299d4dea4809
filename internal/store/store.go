// Package store defines the persistence ports used by the interview core and
// an in-memory implementation of them. PostgreSQL and Redis implementations
// live in internal/db and internal/leaderboard.
package store

import (
	"context"

	"github.com/dorsta123/Case-Prep/internal/types"
)

// OpenStatus distinguishes a freshly created session from an existing one.
type OpenStatus int

const (
	// Existing means the session was already stored.
	Existing OpenStatus = iota
	// Created means the session did not exist and has just been created.
	Created
)

func (s OpenStatus) String() string {
	if s == Created {
		return "created"
	}
	return "existing"
}

// OpenResult is the tagged result of OpenSession.
type OpenResult struct {
	Session *types.Session
	Status  OpenStatus
}

// SessionStore persists sessions and their transcripts.
// GetSession returns (nil, nil) when the session does not exist.
type SessionStore interface {
	OpenSession(ctx context.Context, id types.SessionID, participant string, scenario types.Scenario) (*OpenResult, error)
	GetSession(ctx context.Context, id types.SessionID) (*types.Session, error)
	SaveTranscript(ctx context.Context, id types.SessionID, participant string, transcript types.Transcript) error
	UpdateEvaluation(ctx context.Context, id types.SessionID, eval types.Evaluation) error
}

// RatingStore persists cumulative participant ratings.
type RatingStore interface {
	// IncrementRating atomically adds amount, creating the record at
	// BaselineRating+amount when absent. It returns the new rating.
	IncrementRating(ctx context.Context, participant string, amount int) (int, error)
	// GetRating returns the stored rating; found is false when absent.
	GetRating(ctx context.Context, participant string) (rating int, found bool, err error)
	// SetRating overwrites the rating with a plain write.
	SetRating(ctx context.Context, participant string, rating int) error
	// TopRatings returns at most n records ordered by rating descending.
	TopRatings(ctx context.Context, n int) ([]types.RatingRecord, error)
	// RegisterParticipant inserts the participant at BaselineRating if missing.
	RegisterParticipant(ctx context.Context, participant string) (created bool, err error)
}
