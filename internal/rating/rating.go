// Package rating turns a finished evaluation into a durable rating change
// and serves the leaderboard view of cumulative ratings.
package rating

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dorsta123/Case-Prep/internal/logging"
	"github.com/dorsta123/Case-Prep/internal/metrics"
	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// Update paths reported in Outcome and metrics.
const (
	PathAtomic   = "atomic"
	PathFallback = "fallback"
	PathFailed   = "failed"
)

// Gain converts a score and completion percentage into a rating delta.
// Every completed session is worth at least one point.
func Gain(overallScore, completionRate float64) int {
	gain := int(math.Floor(overallScore * (completionRate / 100) / 10))
	return max(gain, 1)
}

// Outcome describes an applied rating change.
type Outcome struct {
	ParticipantName string `json:"participant_name"`
	Gain            int    `json:"gain"`
	NewRating       int    `json:"new_rating"`
	Tier            string `json:"tier"`
	// Degraded is set when the non-atomic fallback path was used.
	Degraded bool `json:"degraded"`
}

// RatingError is returned when neither update path succeeded.
type RatingError struct {
	Participant string
	Atomic      error
	Fallback    error
}

func (e *RatingError) Error() string {
	return fmt.Sprintf("rating update failed for %s: atomic: %v; fallback: %v", e.Participant, e.Atomic, e.Fallback)
}

func (e *RatingError) Unwrap() []error {
	return []error{e.Atomic, e.Fallback}
}

// Updater applies rating deltas against a RatingStore.
type Updater struct {
	store   store.RatingStore
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewUpdater creates an Updater. logger and m may be nil.
func NewUpdater(s store.RatingStore, logger *zap.Logger, m *metrics.Metrics) *Updater {
	return &Updater{store: s, logger: logging.OrNop(logger), metrics: m}
}

// ApplyRatingDelta adds gain to the participant's rating. The store's atomic
// increment is tried first. If it fails, the rating is read (baseline when
// absent) and written back with gain added. That fallback is not safe against
// concurrent updates for the same participant and is reported as Degraded.
func (u *Updater) ApplyRatingDelta(ctx context.Context, participant string, gain int) (*Outcome, error) {
	newRating, atomicErr := u.store.IncrementRating(ctx, participant, gain)
	if atomicErr == nil {
		u.metrics.RatingUpdate(PathAtomic)
		return u.outcome(participant, gain, newRating, false), nil
	}

	u.logger.Warn("atomic rating increment failed, using read-then-write fallback",
		zap.String("participant", participant),
		zap.Int("gain", gain),
		zap.Error(atomicErr))

	newRating, fallbackErr := u.fallback(ctx, participant, gain)
	if fallbackErr != nil {
		u.metrics.RatingUpdate(PathFailed)
		u.logger.Error("rating update failed",
			zap.String("participant", participant),
			zap.Error(fallbackErr))
		return nil, &RatingError{Participant: participant, Atomic: atomicErr, Fallback: fallbackErr}
	}

	u.metrics.RatingUpdate(PathFallback)
	return u.outcome(participant, gain, newRating, true), nil
}

func (u *Updater) fallback(ctx context.Context, participant string, gain int) (int, error) {
	current, found, err := u.store.GetRating(ctx, participant)
	if err != nil {
		return 0, fmt.Errorf("read rating: %w", err)
	}
	if !found {
		current = types.BaselineRating
	}
	next := current + gain
	if err := u.store.SetRating(ctx, participant, next); err != nil {
		return 0, fmt.Errorf("write rating: %w", err)
	}
	return next, nil
}

func (u *Updater) outcome(participant string, gain, rating int, degraded bool) *Outcome {
	return &Outcome{
		ParticipantName: participant,
		Gain:            gain,
		NewRating:       rating,
		Tier:            TierFor(rating),
		Degraded:        degraded,
	}
}

// Register records a participant at the baseline rating if they are new.
func (u *Updater) Register(ctx context.Context, participant string) (bool, error) {
	created, err := u.store.RegisterParticipant(ctx, participant)
	if err != nil {
		return false, &types.PersistenceError{Op: "register participant", Cause: err}
	}
	if created {
		u.logger.Info("participant registered", zap.String("participant", participant))
	}
	return created, nil
}

// IsRatingError reports whether err came from a failed rating update.
func IsRatingError(err error) bool {
	var re *RatingError
	return errors.As(err, &re)
}
