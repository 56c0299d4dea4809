package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dorsta123/Case-Prep/internal/types"
)

// Memory is a process-local SessionStore and RatingStore.
type Memory struct {
	mu       sync.Mutex
	sessions map[types.SessionID]*types.Session
	ratings  map[string]int
	now      func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[types.SessionID]*types.Session),
		ratings:  make(map[string]int),
		now:      time.Now,
	}
}

// OpenSession implements SessionStore.
func (m *Memory) OpenSession(_ context.Context, id types.SessionID, participant string, scenario types.Scenario) (*OpenResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return &OpenResult{Session: cloneSession(s), Status: Existing}, nil
	}

	now := m.now()
	s := &types.Session{
		ID:              id,
		ParticipantName: participant,
		Scenario:        scenario.Normalize(),
		Transcript:      types.Transcript{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.sessions[id] = s
	return &OpenResult{Session: cloneSession(s), Status: Created}, nil
}

// GetSession implements SessionStore.
func (m *Memory) GetSession(_ context.Context, id types.SessionID) (*types.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, nil
	}
	return cloneSession(s), nil
}

// SaveTranscript implements SessionStore. It overwrites the stored transcript.
func (m *Memory) SaveTranscript(_ context.Context, id types.SessionID, participant string, transcript types.Transcript) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[id]
	if !ok {
		s = &types.Session{ID: id, Scenario: types.Scenario{}.Normalize(), CreatedAt: now}
		m.sessions[id] = s
	}
	if participant != "" {
		s.ParticipantName = participant
	}
	s.Transcript = types.Transcript{}.Append(transcript...)
	s.UpdatedAt = now
	return nil
}

// UpdateEvaluation implements SessionStore.
func (m *Memory) UpdateEvaluation(_ context.Context, id types.SessionID, eval types.Evaluation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return &types.NotFoundError{SessionID: id}
	}
	s.Evaluation = &eval
	s.UpdatedAt = m.now()
	return nil
}

// IncrementRating implements RatingStore under the store mutex.
func (m *Memory) IncrementRating(_ context.Context, participant string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.ratings[participant]
	if !ok {
		current = types.BaselineRating
	}
	m.ratings[participant] = current + amount
	return current + amount, nil
}

// GetRating implements RatingStore.
func (m *Memory) GetRating(_ context.Context, participant string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.ratings[participant]
	return r, ok, nil
}

// SetRating implements RatingStore.
func (m *Memory) SetRating(_ context.Context, participant string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ratings[participant] = rating
	return nil
}

// TopRatings implements RatingStore. Ties are broken by name.
func (m *Memory) TopRatings(_ context.Context, n int) ([]types.RatingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := make([]types.RatingRecord, 0, len(m.ratings))
	for name, r := range m.ratings {
		records = append(records, types.RatingRecord{ParticipantName: name, Rating: r})
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Rating != records[j].Rating {
			return records[i].Rating > records[j].Rating
		}
		return records[i].ParticipantName < records[j].ParticipantName
	})
	if n >= 0 && len(records) > n {
		records = records[:n]
	}
	return records, nil
}

// RegisterParticipant implements RatingStore.
func (m *Memory) RegisterParticipant(_ context.Context, participant string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ratings[participant]; ok {
		return false, nil
	}
	m.ratings[participant] = types.BaselineRating
	return true, nil
}

func cloneSession(s *types.Session) *types.Session {
	out := *s
	out.Transcript = types.Transcript{}.Append(s.Transcript...)
	if s.Evaluation != nil {
		eval := *s.Evaluation
		out.Evaluation = &eval
	}
	return &out
}

var (
	_ SessionStore = (*Memory)(nil)
	_ RatingStore  = (*Memory)(nil)
)
