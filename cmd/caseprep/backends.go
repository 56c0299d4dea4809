package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dorsta123/Case-Prep/internal/config"
	"github.com/dorsta123/Case-Prep/internal/db"
	"github.com/dorsta123/Case-Prep/internal/leaderboard"
	"github.com/dorsta123/Case-Prep/internal/store"
)

// backends holds the stores selected by configuration.
type backends struct {
	sessions store.SessionStore
	ratings  store.RatingStore
	closers  []func() error
	checks   []func(context.Context) error
}

// openBackends connects the session and rating stores. The memory store is
// shared when both use it; so is the Postgres pool.
func openBackends(ctx context.Context, cfg *config.Config, migrate bool, logger *zap.Logger) (*backends, error) {
	b := &backends{}
	var (
		mem *store.Memory
		pg  *db.DB
	)
	memory := func() *store.Memory {
		if mem == nil {
			mem = store.NewMemory()
		}
		return mem
	}
	postgres := func() (*db.DB, error) {
		if pg != nil {
			return pg, nil
		}
		conn, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() error { conn.Close(); return nil })
		b.checks = append(b.checks, conn.Ping)
		if migrate {
			applied, err := conn.Migrate(ctx)
			if err != nil {
				return nil, err
			}
			logger.Info("migrations applied", zap.Strings("versions", applied))
		}
		pg = conn
		return pg, nil
	}

	switch cfg.Store {
	case config.StorePostgres:
		conn, err := postgres()
		if err != nil {
			b.Close()
			return nil, err
		}
		b.sessions = conn
	default:
		b.sessions = memory()
	}

	switch cfg.EffectiveRatingStore() {
	case config.StorePostgres:
		conn, err := postgres()
		if err != nil {
			b.Close()
			return nil, err
		}
		b.ratings = conn
	case config.StoreRedis:
		rs, err := leaderboard.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisKey)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		b.closers = append(b.closers, rs.Close)
		b.checks = append(b.checks, rs.Ping)
		b.ratings = rs
	default:
		b.ratings = memory()
	}

	logger.Info("stores ready",
		zap.String("sessions", cfg.Store),
		zap.String("ratings", cfg.EffectiveRatingStore()))
	return b, nil
}

// Ready pings every remote backend.
func (b *backends) Ready(ctx context.Context) error {
	var errs []error
	for _, check := range b.checks {
		errs = append(errs, check(ctx))
	}
	return errors.Join(errs...)
}

// Close releases every backend in reverse order of opening.
func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}
