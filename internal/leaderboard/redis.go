// Package leaderboard keeps participant ratings in a Redis sorted set.
// It implements store.RatingStore and can stand in for the PostgreSQL
// ratings table when only the leaderboard needs to be shared.
package leaderboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dorsta123/Case-Prep/internal/store"
	"github.com/dorsta123/Case-Prep/internal/types"
)

// DefaultKey is the sorted set holding ratings.
const DefaultKey = "caseprep:ratings"

// incrementScript creates the member at the baseline when absent, then adds
// the amount. Running it server-side makes the two steps atomic.
var incrementScript = redis.NewScript(`
redis.call('ZADD', KEYS[1], 'NX', ARGV[3], ARGV[1])
return tonumber(redis.call('ZINCRBY', KEYS[1], ARGV[2], ARGV[1]))
`)

// RedisStore is a RatingStore backed by a sorted set.
type RedisStore struct {
	client redis.UniversalClient
	key    string
}

// New wraps an existing client. An empty key selects DefaultKey.
func New(client redis.UniversalClient, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string, db int, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return New(client, key), nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks that Redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// IncrementRating implements store.RatingStore.
func (s *RedisStore) IncrementRating(ctx context.Context, participant string, amount int) (int, error) {
	rating, err := incrementScript.Run(ctx, s.client, []string{s.key}, participant, amount, types.BaselineRating).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to increment rating: %w", err)
	}
	return rating, nil
}

// GetRating implements store.RatingStore.
func (s *RedisStore) GetRating(ctx context.Context, participant string) (int, bool, error) {
	score, err := s.client.ZScore(ctx, s.key, participant).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get rating: %w", err)
	}
	return int(score), true, nil
}

// SetRating implements store.RatingStore.
func (s *RedisStore) SetRating(ctx context.Context, participant string, rating int) error {
	if err := s.client.ZAdd(ctx, s.key, redis.Z{Score: float64(rating), Member: participant}).Err(); err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

// TopRatings implements store.RatingStore.
func (s *RedisStore) TopRatings(ctx context.Context, n int) ([]types.RatingRecord, error) {
	if n <= 0 {
		return nil, nil
	}
	zs, err := s.client.ZRevRangeWithScores(ctx, s.key, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}

	records := make([]types.RatingRecord, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		records = append(records, types.RatingRecord{ParticipantName: name, Rating: int(z.Score)})
	}
	return records, nil
}

// RegisterParticipant implements store.RatingStore.
func (s *RedisStore) RegisterParticipant(ctx context.Context, participant string) (bool, error) {
	added, err := s.client.ZAddNX(ctx, s.key, redis.Z{Score: types.BaselineRating, Member: participant}).Result()
	if err != nil {
		return false, fmt.Errorf("failed to register participant: %w", err)
	}
	return added == 1, nil
}

var _ store.RatingStore = (*RedisStore)(nil)
