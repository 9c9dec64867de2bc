package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"game-service/internal/database/postgres"
	"game-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func newSQLiteDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty in-memory database
	db.SetMaxOpenConns(1)
	require.NoError(t, postgres.EnsureSchema(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleAggregate(userID string) *models.UserAggregate {
	agg := models.NewUserAggregate(userID, models.Balance{models.CurrencyGold: 2000, models.CurrencyGems: 50})
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	agg.Building = &models.ProducerBuilding{Level: 1, ProductionTimeMinutes: 5, YieldAmount: 4000, ActivationCost: 1600}
	agg.Building.StartProduction(start)
	agg.Creatures = append(agg.Creatures, models.CreatureInstance{
		ID: uuid.New(), TemplateID: "sprout", Rarity: models.RarityRare, Level: 1, ObtainedAt: start,
	})
	return agg
}

type repoFactory func(t *testing.T) IUserRepository

func repositories() map[string]repoFactory {
	return map[string]repoFactory{
		"sql":    func(t *testing.T) IUserRepository { return NewUserRepository(newSQLiteDB(t)) },
		"memory": func(t *testing.T) IUserRepository { return NewMemoryUserRepository() },
	}
}

// ============================================================================
// USER AGGREGATE REPOSITORY
// ============================================================================

func TestUserRepository_CreateAndGet(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()

			agg := sampleAggregate("player-1")
			require.NoError(t, repo.Create(ctx, agg))
			assert.Equal(t, int64(1), agg.Version)

			loaded, err := repo.Get(ctx, "player-1")
			require.NoError(t, err)
			assert.Equal(t, int64(1), loaded.Version)
			assert.Equal(t, int64(2000), loaded.Balances.Of(models.CurrencyGold))
			require.NotNil(t, loaded.Building)
			assert.True(t, loaded.Building.IsActive)
			require.NotNil(t, loaded.Building.ProductionEndTime)
			assert.True(t, loaded.Building.ProductionEndTime.Equal(agg.Building.ProductionEndTime.UTC()))
			require.Len(t, loaded.Creatures, 1)
			assert.Equal(t, agg.Creatures[0].ID, loaded.Creatures[0].ID)
		})
	}
}

func TestUserRepository_CreateTwice(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()

			require.NoError(t, repo.Create(ctx, sampleAggregate("player-1")))
			err := repo.Create(ctx, sampleAggregate("player-1"))
			assert.True(t, errors.Is(err, ErrUserExists))
		})
	}
}

func TestUserRepository_GetMissing(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			_, err := factory(t).Get(context.Background(), "ghost")
			assert.True(t, errors.Is(err, ErrUserNotFound))
		})
	}
}

func TestUserRepository_UpdateVersionCheck(t *testing.T) {
	for name, factory := range repositories() {
		t.Run(name, func(t *testing.T) {
			repo := factory(t)
			ctx := context.Background()
			require.NoError(t, repo.Create(ctx, sampleAggregate("player-1")))

			first, err := repo.Get(ctx, "player-1")
			require.NoError(t, err)
			second, err := repo.Get(ctx, "player-1")
			require.NoError(t, err)

			first.Balances[models.CurrencyGold] = 400
			require.NoError(t, repo.Update(ctx, first))
			assert.Equal(t, int64(2), first.Version)

			second.Balances[models.CurrencyGold] = 0
			err = repo.Update(ctx, second)
			assert.True(t, errors.Is(err, ErrVersionConflict), "stale writer must lose")

			loaded, err := repo.Get(ctx, "player-1")
			require.NoError(t, err)
			assert.Equal(t, int64(400), loaded.Balances.Of(models.CurrencyGold))
			assert.Equal(t, int64(2), loaded.Version)
		})
	}
}

func TestMemoryUserRepository_ReturnsIndependentCopies(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleAggregate("player-1")))

	loaded, err := repo.Get(ctx, "player-1")
	require.NoError(t, err)
	loaded.Balances[models.CurrencyGold] = 1

	again, err := repo.Get(ctx, "player-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2000), again.Balances.Of(models.CurrencyGold))
}

func TestMemoryUserRepository_ConcurrentUpdatesOneWins(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, sampleAggregate("player-1")))

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		agg, err := repo.Get(ctx, "player-1")
		require.NoError(t, err)
		wg.Add(1)
		go func(agg *models.UserAggregate) {
			defer wg.Done()
			results <- repo.Update(ctx, agg)
		}(agg)
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, ErrVersionConflict))
	}
	assert.Equal(t, 1, wins)
}

// ============================================================================
// CATALOG REPOSITORY
// ============================================================================

func TestCatalogRepository_GetProducerLevels(t *testing.T) {
	db := newSQLiteDB(t)
	_, err := db.Exec(`INSERT INTO producer_level_catalog
		(level, upgrade_cost, production_time_minutes, yield_amount, activation_cost)
		VALUES (2, 1000, 10, 9000, 3000), (1, 0, 5, 4000, 1600)`)
	require.NoError(t, err)

	entries, err := NewCatalogRepository(db).GetProducerLevels(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Level)
	assert.Equal(t, int64(1600), entries[0].ActivationCost)
	assert.Equal(t, int64(1000), entries[1].UpgradeCost)
}

func TestCatalogRepository_Empty(t *testing.T) {
	entries, err := NewCatalogRepository(newSQLiteDB(t)).GetProducerLevels(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
