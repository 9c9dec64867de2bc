package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"game-service/internal/catalog"
	"game-service/internal/clock"
	"game-service/internal/config"
	"game-service/internal/event"
	"game-service/internal/gameerr"
	"game-service/internal/locker"
	"game-service/internal/models"
	"game-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

var testStart = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	clock      *clock.ManualClock
	repo       *flakyRepo
	publisher  *event.MemoryPublisher
	production *ProductionService
	merge      *MergeService
}

func defaultEconomy() config.EconomyConfig {
	return config.EconomyConfig{
		StartingGold:         2000,
		StartingGems:         50,
		SpeedUpGemsPerMinute: 2,
		AggregateMaxRetries:  3,
	}
}

func newHarness(t *testing.T, economy config.EconomyConfig, l locker.Locker) *harness {
	t.Helper()
	if l == nil {
		l = locker.NewKeyedMutex()
	}
	h := &harness{
		clock:     clock.NewManualClock(testStart),
		repo:      &flakyRepo{IUserRepository: repository.NewMemoryUserRepository()},
		publisher: &event.MemoryPublisher{},
	}
	runner := NewAggregateRunner(h.repo, l, economy.AggregateMaxRetries)
	h.production = NewProductionService(runner, catalog.Default(), h.clock, h.publisher, economy)
	h.merge = NewMergeService(runner, catalog.Default(), h.clock, h.publisher, economy)
	return h
}

func (h *harness) player(t *testing.T, userID string) *models.UserAggregate {
	t.Helper()
	agg, err := h.repo.Get(context.Background(), userID)
	require.NoError(t, err)
	return agg
}

// flakyRepo injects save failures in front of a real repository.
type flakyRepo struct {
	repository.IUserRepository

	mu          sync.Mutex
	failNext    error
	conflicts   int
	updateCalls int
}

func (f *flakyRepo) Update(ctx context.Context, agg *models.UserAggregate) error {
	f.mu.Lock()
	f.updateCalls++
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		f.mu.Unlock()
		return err
	}
	if f.conflicts > 0 {
		f.conflicts--
		f.mu.Unlock()
		return repository.ErrVersionConflict
	}
	f.mu.Unlock()
	return f.IUserRepository.Update(ctx, agg)
}

func (f *flakyRepo) failNextUpdate(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = err
}

func (f *flakyRepo) injectConflicts(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.conflicts = n
	f.updateCalls = 0
}

func (f *flakyRepo) updates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updateCalls
}

// unlocked lets concurrent writers race so only the version check protects the aggregate.
type unlocked struct{}

func (unlocked) Acquire(ctx context.Context, key string) (func(), error) {
	return func() {}, nil
}

// ============================================================================
// AGGREGATE RUNNER
// ============================================================================

func TestAggregateRunner_RejectsEmptyUser(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)

	_, err := h.production.Activate(context.Background(), "")
	assert.ErrorIs(t, err, gameerr.ErrInvalidParameter)
}

func TestAggregateRunner_MissingPlayer(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)

	_, err := h.production.Activate(context.Background(), "ghost")
	assert.ErrorIs(t, err, gameerr.ErrNotFound)

	_, err = h.production.GetStatus(context.Background(), "ghost")
	assert.ErrorIs(t, err, gameerr.ErrNotFound)
}

func TestAggregateRunner_RetriesVersionConflict(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	_, err := h.production.AddBuilding(ctx, "p1")
	require.NoError(t, err)

	h.repo.injectConflicts(2)
	res, err := h.production.Activate(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, 3, h.repo.updates())
	assert.Equal(t, int64(400), res.Balance)
	assert.Equal(t, int64(400), h.player(t, "p1").Balances.Of(models.CurrencyGold))
}

func TestAggregateRunner_GivesUpAfterMaxRetries(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	_, err := h.production.AddBuilding(ctx, "p1")
	require.NoError(t, err)

	h.repo.injectConflicts(10)
	_, err = h.production.Activate(ctx, "p1")
	require.Error(t, err)

	assert.ErrorIs(t, err, repository.ErrVersionConflict)
	assert.Equal(t, 3, h.repo.updates())

	agg := h.player(t, "p1")
	assert.Equal(t, int64(2000), agg.Balances.Of(models.CurrencyGold))
	assert.False(t, agg.Building.IsActive)
}

func TestAggregateRunner_SaveFailureLeavesStateUntouched(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	_, err := h.production.AddBuilding(ctx, "p1")
	require.NoError(t, err)

	boom := errors.New("connection reset")
	h.repo.failNextUpdate(boom)

	_, err = h.production.Activate(ctx, "p1")
	require.ErrorIs(t, err, boom)
	_, isGame := gameerr.As(err)
	assert.False(t, isGame)

	agg := h.player(t, "p1")
	assert.Equal(t, int64(2000), agg.Balances.Of(models.CurrencyGold))
	assert.False(t, agg.Building.IsActive)
	assert.Nil(t, agg.Building.ProductionStartTime)
	assert.Empty(t, h.publisher.OfType(event.BuildingActivated))

	// the next attempt goes through normally
	res, err := h.production.Activate(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(400), res.Balance)
}
