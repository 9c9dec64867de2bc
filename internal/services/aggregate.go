package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"game-service/internal/gameerr"
	"game-service/internal/locker"
	"game-service/internal/models"
	"game-service/internal/repository"
)

// AggregateRunner executes one read-modify-write against a player's aggregate.
//
// The player lock serialises requests for the same player; the repository version check
// catches writers outside the lock (another instance with a local lock, a manual fix-up).
// A conflict reruns the whole load-mutate-save, so mutate funcs must be free of side
// effects outside the aggregate.
type AggregateRunner struct {
	repo       repository.IUserRepository
	locker     locker.Locker
	maxRetries int
}

func NewAggregateRunner(repo repository.IUserRepository, l locker.Locker, maxRetries int) *AggregateRunner {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &AggregateRunner{repo: repo, locker: l, maxRetries: maxRetries}
}

// Mutate loads the existing aggregate, applies fn and saves. A missing player is NotFound.
// When fn returns an error nothing is saved.
func (r *AggregateRunner) Mutate(ctx context.Context, userID string, fn func(agg *models.UserAggregate) error) (*models.UserAggregate, error) {
	return r.run(ctx, userID, nil, fn)
}

// Upsert is Mutate, but a missing player is created from newAgg first.
func (r *AggregateRunner) Upsert(ctx context.Context, userID string, newAgg func(userID string) *models.UserAggregate, fn func(agg *models.UserAggregate) error) (*models.UserAggregate, error) {
	return r.run(ctx, userID, newAgg, fn)
}

// Read loads the aggregate without taking the player lock.
func (r *AggregateRunner) Read(ctx context.Context, userID string) (*models.UserAggregate, error) {
	agg, err := r.repo.Get(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, gameerr.NotFound("player")
	}
	if err != nil {
		return nil, err
	}
	return agg, nil
}

func (r *AggregateRunner) run(ctx context.Context, userID string, newAgg func(string) *models.UserAggregate, fn func(*models.UserAggregate) error) (*models.UserAggregate, error) {
	if userID == "" {
		return nil, gameerr.InvalidParameter("user id is required")
	}

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		agg, err := r.attempt(ctx, userID, newAgg, fn)
		if err == nil {
			return agg, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) && !errors.Is(err, repository.ErrUserExists) {
			return nil, err
		}
		slog.Warn("aggregate write conflict, retrying",
			"user_id", userID,
			"attempt", attempt,
			"error", err)
	}

	return nil, fmt.Errorf("failed to save player %s after %d attempts: %w", userID, r.maxRetries, repository.ErrVersionConflict)
}

func (r *AggregateRunner) attempt(ctx context.Context, userID string, newAgg func(string) *models.UserAggregate, fn func(*models.UserAggregate) error) (*models.UserAggregate, error) {
	release, err := r.locker.Acquire(ctx, "user:"+userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player %s: %w", userID, err)
	}
	defer release()

	created := false
	agg, err := r.repo.Get(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrUserNotFound) && newAgg != nil:
		agg = newAgg(userID)
		created = true
	case errors.Is(err, repository.ErrUserNotFound):
		return nil, gameerr.NotFound("player")
	case err != nil:
		return nil, err
	}

	if err := fn(agg); err != nil {
		return nil, err
	}

	if created {
		err = r.repo.Create(ctx, agg)
	} else {
		err = r.repo.Update(ctx, agg)
	}
	if err != nil {
		return nil, err
	}
	return agg, nil
}
