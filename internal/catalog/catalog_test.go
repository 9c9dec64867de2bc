package catalog

import (
	"errors"
	"testing"

	"game-service/internal/gameerr"
	"game-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpgradeCostSumsSkippedLevels(t *testing.T) {
	table, err := NewTable([]models.CatalogLevelEntry{
		{Level: 1, ProductionTimeMinutes: 5, YieldAmount: 4000, ActivationCost: 1600},
		{Level: 2, UpgradeCost: 1000, ProductionTimeMinutes: 10, YieldAmount: 9000, ActivationCost: 3000},
		{Level: 3, UpgradeCost: 4000, ProductionTimeMinutes: 20, YieldAmount: 20000, ActivationCost: 6000},
	}, nil)
	require.NoError(t, err)

	cost, err := table.UpgradeCost(1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), cost)

	cost, err = table.UpgradeCost(2, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(4000), cost)
}

func TestUpgradeCostMissingLevel(t *testing.T) {
	table, err := NewTable([]models.CatalogLevelEntry{
		{Level: 1, ProductionTimeMinutes: 5},
		{Level: 3, UpgradeCost: 4000, ProductionTimeMinutes: 20},
	}, nil)
	require.NoError(t, err)

	_, err = table.UpgradeCost(1, 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, gameerr.ErrInvalidLevel))

	ge, ok := gameerr.As(err)
	require.True(t, ok)
	assert.Equal(t, 2, ge.Details["level"])
}

func TestNewTableRejectsBadInput(t *testing.T) {
	_, err := NewTable([]models.CatalogLevelEntry{
		{Level: 1, ProductionTimeMinutes: 5},
		{Level: 1, ProductionTimeMinutes: 5},
	}, nil)
	assert.Error(t, err, "duplicate level")

	_, err = NewTable([]models.CatalogLevelEntry{{Level: 2, ProductionTimeMinutes: 5}}, nil)
	assert.Error(t, err, "level 1 missing")

	_, err = NewTable([]models.CatalogLevelEntry{{Level: 9, ProductionTimeMinutes: 5}}, nil)
	assert.Error(t, err, "level out of range")

	_, err = NewTable(DefaultEntries(), []models.MergeRule{{Rarity: "mythic"}})
	assert.Error(t, err, "unknown rarity")
}

func TestDefaultTable(t *testing.T) {
	table := Default()
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, table.Levels())

	rule, ok := table.MergeRule(models.RarityCommon)
	require.True(t, ok)
	assert.Zero(t, rule.Wait)
	assert.Equal(t, 50, rule.InitialProgress)

	for _, r := range []models.Rarity{models.RarityRare, models.RarityEpic, models.RarityLegendary} {
		rule, ok := table.MergeRule(r)
		require.True(t, ok)
		assert.Positive(t, rule.Wait, "non-common rarities must wait")
		assert.Less(t, rule.InitialProgress, 50)
	}
}
