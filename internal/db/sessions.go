package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

const sessionColumns = `id, username, industry, domain, history, evaluation, created_at, updated_at`

// OpenSession creates the session row if it does not exist yet.
func (db *DB) OpenSession(ctx context.Context, id types.SessionID, participant string, scenario types.Scenario) (*store.OpenResult, error) {
	scenario = scenario.Normalize()
	row := db.pool.QueryRow(ctx,
		`INSERT INTO chat_sessions (id, username, industry, domain)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING
		 RETURNING `+sessionColumns,
		string(id), participant, scenario.Industry, scenario.Domain,
	)
	s, err := scanSession(row)
	if err == nil {
		return &store.OpenResult{Session: s, Status: store.Created}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}

	s, err = db.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("session %s vanished during open", id)
	}
	return &store.OpenResult{Session: s, Status: store.Existing}, nil
}

// GetSession retrieves a session by id. Returns nil, nil when not found.
func (db *DB) GetSession(ctx context.Context, id types.SessionID) (*types.Session, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM chat_sessions WHERE id = $1`,
		string(id),
	)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

// SaveTranscript upserts the full transcript. A blank participant keeps the stored name.
func (db *DB) SaveTranscript(ctx context.Context, id types.SessionID, participant string, transcript types.Transcript) error {
	history, err := encodeTranscript(transcript)
	if err != nil {
		return err
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO chat_sessions (id, username, history)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
		     history = EXCLUDED.history,
		     username = COALESCE(NULLIF(EXCLUDED.username, ''), chat_sessions.username),
		     updated_at = NOW()`,
		string(id), participant, history,
	)
	if err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// UpdateEvaluation overwrites the session's evaluation.
func (db *DB) UpdateEvaluation(ctx context.Context, id types.SessionID, eval types.Evaluation) error {
	body, err := json.Marshal(eval)
	if err != nil {
		return fmt.Errorf("failed to marshal evaluation: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE chat_sessions SET evaluation = $2, updated_at = NOW() WHERE id = $1`,
		string(id), body,
	)
	if err != nil {
		return fmt.Errorf("failed to update evaluation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &types.NotFoundError{SessionID: id}
	}
	return nil
}

func scanSession(row pgx.Row) (*types.Session, error) {
	var (
		s          types.Session
		id         string
		history    []byte
		evaluation []byte
		createdAt  time.Time
		updatedAt  time.Time
	)
	if err := row.Scan(&id, &s.ParticipantName, &s.Scenario.Industry, &s.Scenario.Domain,
		&history, &evaluation, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	transcript, err := decodeTranscript(history)
	if err != nil {
		return nil, err
	}
	eval, err := decodeEvaluation(evaluation)
	if err != nil {
		return nil, err
	}

	s.ID = types.SessionID(id)
	s.Transcript = transcript
	s.Evaluation = eval
	s.CreatedAt = createdAt
	s.UpdatedAt = updatedAt
	return &s, nil
}

func encodeTranscript(t types.Transcript) ([]byte, error) {
	if t == nil {
		t = types.Transcript{}
	}
	body, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transcript: %w", err)
	}
	return body, nil
}

func decodeTranscript(raw []byte) (types.Transcript, error) {
	t := types.Transcript{}
	if len(raw) == 0 {
		return t, nil
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("failed to decode transcript: %w", err)
	}
	return t, nil
}

func decodeEvaluation(raw []byte) (*types.Evaluation, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var eval types.Evaluation
	if err := json.Unmarshal(raw, &eval); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation: %w", err)
	}
	return &eval, nil
}

var _ store.SessionStore = (*DB)(nil)
