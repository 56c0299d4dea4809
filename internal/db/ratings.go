package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// IncrementRating calls the increment_rating SQL function, which performs the
// read-modify-write in a single statement on the server.
func (db *DB) IncrementRating(ctx context.Context, participant string, amount int) (int, error) {
	var rating int
	err := db.pool.QueryRow(ctx, `SELECT increment_rating($1, $2)`, participant, amount).Scan(&rating)
	if err != nil {
		return 0, fmt.Errorf("failed to increment rating: %w", err)
	}
	return rating, nil
}

// GetRating returns the participant's rating; found is false when absent.
func (db *DB) GetRating(ctx context.Context, participant string) (int, bool, error) {
	var rating int
	err := db.pool.QueryRow(ctx,
		`SELECT rating FROM participants WHERE username = $1`, participant,
	).Scan(&rating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get rating: %w", err)
	}
	return rating, true, nil
}

// SetRating writes the rating with a plain upsert.
func (db *DB) SetRating(ctx context.Context, participant string, rating int) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO participants (username, rating)
		 VALUES ($1, $2)
		 ON CONFLICT (username) DO UPDATE SET rating = $2, updated_at = NOW()`,
		participant, rating,
	)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

// TopRatings returns the n highest-rated participants.
func (db *DB) TopRatings(ctx context.Context, n int) ([]types.RatingRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT username, rating FROM participants
		 ORDER BY rating DESC, username ASC
		 LIMIT $1`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	defer rows.Close()

	var records []types.RatingRecord
	for rows.Next() {
		var r types.RatingRecord
		if err := rows.Scan(&r.ParticipantName, &r.Rating); err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ratings: %w", err)
	}
	return records, nil
}

// RegisterParticipant inserts the participant at the baseline rating if missing.
func (db *DB) RegisterParticipant(ctx context.Context, participant string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO participants (username, rating) VALUES ($1, $2)
		 ON CONFLICT (username) DO NOTHING`,
		participant, types.BaselineRating,
	)
	if err != nil {
		return false, fmt.Errorf("failed to register participant: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

var _ store.RatingStore = (*DB)(nil)
