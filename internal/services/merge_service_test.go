package services

import (
	"context"
	"testing"
	"time"

	"game-service/internal/event"
	"game-service/internal/gameerr"
	"game-service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func grantPair(t *testing.T, h *harness, userID, templateID string, rarity models.Rarity) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	a, err := h.merge.GrantCreature(ctx, userID, templateID, rarity)
	require.NoError(t, err)
	b, err := h.merge.GrantCreature(ctx, userID, templateID, rarity)
	require.NoError(t, err)
	return a.ID, b.ID
}

// ============================================================================
// COMMON FAST PATH
// ============================================================================

func TestMergeService_CommonFastPath(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	a, b := grantPair(t, h, "p1", "slime", models.RarityCommon)

	started, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.False(t, started.Success)
	assert.Equal(t, 50, started.Progress)
	assert.Zero(t, started.RemainingSeconds)
	assert.Zero(t, started.WaitMinutes)

	agg := h.player(t, "p1")
	require.Len(t, agg.MergeSessions, 1)
	assert.Equal(t, 50, agg.Creature(a).UpgradeProgress)
	assert.Equal(t, b, *agg.Creature(a).UpgradePartnerID)
	assert.Equal(t, a, *agg.Creature(b).UpgradePartnerID)

	// ids swapped still address the same session, roles stay as started
	done, err := h.merge.StartOrAdvance(ctx, "p1", b, a)
	require.NoError(t, err)
	assert.True(t, done.Success)
	require.NotNil(t, done.Creature)
	assert.Equal(t, a, done.Creature.ID)
	assert.Equal(t, 2, done.Creature.Level)
	assert.Equal(t, b, *done.ConsumedID)

	agg = h.player(t, "p1")
	assert.Len(t, agg.Creatures, 1)
	assert.Empty(t, agg.MergeSessions)
	assert.Nil(t, agg.Creature(b))
	assert.False(t, agg.Creature(a).Merging())
	assert.Zero(t, agg.Creature(a).UpgradeProgress)

	assert.Len(t, h.publisher.OfType(event.MergeStarted), 1)
	assert.Len(t, h.publisher.OfType(event.MergeCompleted), 1)
}

func TestMergeService_StartReportsInitialProgress(t *testing.T) {
	for rarity, initial := range map[models.Rarity]int{
		models.RarityCommon:    50,
		models.RarityRare:      25,
		models.RarityEpic:      15,
		models.RarityLegendary: 10,
	} {
		t.Run(string(rarity), func(t *testing.T) {
			h := newHarness(t, defaultEconomy(), nil)
			a, b := grantPair(t, h, "p1", "golem", rarity)

			started, err := h.merge.StartOrAdvance(context.Background(), "p1", a, b)
			require.NoError(t, err)
			assert.False(t, started.Success)
			assert.Equal(t, models.MergePending, started.State)
			assert.Equal(t, initial, started.Progress)

			agg := h.player(t, "p1")
			assert.Equal(t, started.Progress, agg.Creature(a).UpgradeProgress)
			assert.Equal(t, started.Progress, agg.Creature(b).UpgradeProgress)
		})
	}
}

// ============================================================================
// TIMED MERGES
// ============================================================================

func TestMergeService_RareMergeWaits(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	a, b := grantPair(t, h, "p1", "dragon", models.RarityRare)

	started, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.False(t, started.Success)
	assert.Equal(t, 25, started.Progress)
	assert.Equal(t, int64(15*60), started.RemainingSeconds)
	assert.Equal(t, int64(15), started.WaitMinutes)
	assert.Equal(t, int64(30), started.SpeedUpCost)

	h.clock.Advance(5 * time.Minute)
	pending, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.False(t, pending.Success)
	assert.Equal(t, 50, pending.Progress)
	assert.Equal(t, int64(10*60), pending.RemainingSeconds)

	agg := h.player(t, "p1")
	assert.Equal(t, 50, agg.Creature(a).UpgradeProgress)
	assert.Equal(t, testStart.Add(5*time.Minute), *agg.Creature(b).LastUpgradeClickTime)

	h.clock.Advance(10 * time.Minute)
	done, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.True(t, done.Success)
	assert.Equal(t, 2, done.Creature.Level)
	assert.Len(t, h.player(t, "p1").Creatures, 1)
}

func TestMergeService_ProgressStrictlyIncreases(t *testing.T) {
	for _, rarity := range []models.Rarity{models.RarityRare, models.RarityEpic, models.RarityLegendary} {
		t.Run(string(rarity), func(t *testing.T) {
			h := newHarness(t, defaultEconomy(), nil)
			ctx := context.Background()
			a, b := grantPair(t, h, "p1", "golem", rarity)

			status, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
			require.NoError(t, err)

			last := status.Progress
			for i := 0; i < 90; i++ {
				h.clock.Advance(time.Minute)
				status, err = h.merge.CheckProgress(ctx, "p1", a, b)
				require.NoError(t, err)
				assert.LessOrEqual(t, status.Progress, 100)
				if status.State == models.MergeReady {
					assert.Equal(t, 100, status.Progress)
					break
				}
				assert.Greater(t, status.Progress, last)
				last = status.Progress
			}
			assert.Equal(t, models.MergeReady, status.State)
		})
	}
}

func TestMergeService_CheckProgressIsReadOnly(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	a, b := grantPair(t, h, "p1", "slime", models.RarityCommon)

	_, err := h.merge.CheckProgress(ctx, "p1", a, b)
	assert.ErrorIs(t, err, gameerr.ErrNoSession)

	_, err = h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)
	before := h.player(t, "p1")

	status, err := h.merge.CheckProgress(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.Equal(t, models.MergeReady, status.State)
	assert.Nil(t, status.Creature)

	after := h.player(t, "p1")
	assert.Equal(t, before.Version, after.Version)
	assert.Len(t, after.Creatures, 2)
	assert.Len(t, after.MergeSessions, 1)
}

func TestMergeService_CollectUpgrade(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	a, b := grantPair(t, h, "p1", "wyrm", models.RarityEpic)

	_, err := h.merge.CollectUpgrade(ctx, "p1", a, b)
	assert.ErrorIs(t, err, gameerr.ErrNoSession)

	_, err = h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)

	h.clock.Advance(29*time.Minute + 30*time.Second)
	_, err = h.merge.CollectUpgrade(ctx, "p1", a, b)
	require.ErrorIs(t, err, gameerr.ErrNotReady)
	ge, _ := gameerr.As(err)
	assert.Equal(t, int64(1), ge.Details["remaining_minutes"])

	h.clock.Advance(30 * time.Second)
	done, err := h.merge.CollectUpgrade(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.True(t, done.Success)
	assert.Equal(t, 2, done.Creature.Level)

	_, err = h.merge.CollectUpgrade(ctx, "p1", a, b)
	assert.ErrorIs(t, err, gameerr.ErrNoSession)
}

// ============================================================================
// SPEED UP
// ============================================================================

func TestMergeService_SpeedUp(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	a, b := grantPair(t, h, "p1", "dragon", models.RarityRare)

	_, err := h.merge.SpeedUp(ctx, "p1", a, b)
	assert.ErrorIs(t, err, gameerr.ErrNoSession)

	_, err = h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)
	h.clock.Advance(5*time.Minute + 10*time.Second)

	// 9m50s left, charged as 10 started minutes
	res, err := h.merge.SpeedUp(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.Equal(t, int64(20), res.GemsSpent)
	assert.Equal(t, models.MergeReady, res.State)
	assert.Equal(t, 100, res.Progress)

	agg := h.player(t, "p1")
	assert.Equal(t, int64(30), agg.Balances.Of(models.CurrencyGems))
	assert.True(t, agg.MergeSessions[0].SpedUp)
	assert.Equal(t, 100, agg.Creature(a).UpgradeProgress)

	_, err = h.merge.SpeedUp(ctx, "p1", a, b)
	assert.ErrorIs(t, err, gameerr.ErrAlreadyReady)

	done, err := h.merge.CollectUpgrade(ctx, "p1", a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, done.Creature.Level)
	assert.Len(t, h.publisher.OfType(event.MergeSpedUp), 1)
}

func TestMergeService_SpeedUpInsufficientGems(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	a, b := grantPair(t, h, "p1", "phoenix", models.RarityLegendary)

	_, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)

	_, err = h.merge.SpeedUp(ctx, "p1", a, b)
	require.ErrorIs(t, err, gameerr.ErrInsufficientFunds)
	ge, _ := gameerr.As(err)
	assert.Equal(t, int64(120), ge.Details["required"])
	assert.Equal(t, "gems", ge.Details["currency"])

	agg := h.player(t, "p1")
	assert.Equal(t, int64(50), agg.Balances.Of(models.CurrencyGems))
	assert.False(t, agg.MergeSessions[0].SpedUp)
	assert.Equal(t, testStart, agg.MergeSessions[0].StartedAt)
}

func TestMergeService_SpeedUpCommonIsAlreadyReady(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()
	a, b := grantPair(t, h, "p1", "slime", models.RarityCommon)

	_, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)

	_, err = h.merge.SpeedUp(ctx, "p1", a, b)
	assert.ErrorIs(t, err, gameerr.ErrAlreadyReady)
}

// ============================================================================
// ELIGIBILITY
// ============================================================================

func TestMergeService_Eligibility(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()

	slimeA, slimeB := grantPair(t, h, "p1", "slime", models.RarityCommon)
	rareSlime, err := h.merge.GrantCreature(ctx, "p1", "slime", models.RarityRare)
	require.NoError(t, err)
	golem, err := h.merge.GrantCreature(ctx, "p1", "golem", models.RarityCommon)
	require.NoError(t, err)
	extraSlime, err := h.merge.GrantCreature(ctx, "p1", "slime", models.RarityCommon)
	require.NoError(t, err)

	_, err = h.merge.StartOrAdvance(ctx, "p1", slimeA, slimeA)
	assert.ErrorIs(t, err, gameerr.ErrNotEligible)

	_, err = h.merge.StartOrAdvance(ctx, "p1", slimeA, uuid.New())
	assert.ErrorIs(t, err, gameerr.ErrNotFound)

	_, err = h.merge.StartOrAdvance(ctx, "p1", slimeA, golem.ID)
	assert.ErrorIs(t, err, gameerr.ErrNotEligible)

	_, err = h.merge.StartOrAdvance(ctx, "p1", slimeA, rareSlime.ID)
	assert.ErrorIs(t, err, gameerr.ErrNotEligible)

	_, err = h.merge.StartOrAdvance(ctx, "p1", slimeA, slimeB)
	require.NoError(t, err)

	_, err = h.merge.StartOrAdvance(ctx, "p1", extraSlime.ID, slimeB)
	assert.ErrorIs(t, err, gameerr.ErrCreatureBusy)

	assert.Len(t, h.player(t, "p1").MergeSessions, 1)
}

func TestMergeService_LevelMismatchAndCap(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()

	a, b := grantPair(t, h, "p1", "slime", models.RarityCommon)
	_, err := h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)
	_, err = h.merge.StartOrAdvance(ctx, "p1", a, b)
	require.NoError(t, err)

	fresh, err := h.merge.GrantCreature(ctx, "p1", "slime", models.RarityCommon)
	require.NoError(t, err)
	_, err = h.merge.StartOrAdvance(ctx, "p1", a, fresh.ID)
	assert.ErrorIs(t, err, gameerr.ErrNotEligible)

	// walk a pair of commons to the level cap by hand
	agg := h.player(t, "p1")
	agg.Creature(a).Level = 10
	agg.Creature(fresh.ID).Level = 10
	require.NoError(t, h.repo.Update(ctx, agg))

	_, err = h.merge.StartOrAdvance(ctx, "p1", a, fresh.ID)
	require.ErrorIs(t, err, gameerr.ErrNotEligible)
	ge, _ := gameerr.As(err)
	assert.Equal(t, 10, ge.Details["max_level"])
}

// ============================================================================
// CREATURES
// ============================================================================

func TestMergeService_GrantAndList(t *testing.T) {
	h := newHarness(t, defaultEconomy(), nil)
	ctx := context.Background()

	_, err := h.merge.ListCreatures(ctx, "p1")
	assert.ErrorIs(t, err, gameerr.ErrNotFound)

	granted, err := h.merge.GrantCreature(ctx, "p1", " slime ", models.RarityEpic)
	require.NoError(t, err)
	assert.Equal(t, "slime", granted.TemplateID)
	assert.Equal(t, 1, granted.Level)
	assert.Equal(t, testStart, granted.ObtainedAt)

	creatures, err := h.merge.ListCreatures(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, creatures, 1)
	assert.Equal(t, granted.ID, creatures[0].ID)

	agg := h.player(t, "p1")
	assert.Equal(t, int64(2000), agg.Balances.Of(models.CurrencyGold))

	_, err = h.merge.GrantCreature(ctx, "p1", "", models.RarityEpic)
	assert.ErrorIs(t, err, gameerr.ErrInvalidParameter)
	_, err = h.merge.GrantCreature(ctx, "p1", "slime", models.Rarity("mythic"))
	assert.ErrorIs(t, err, gameerr.ErrInvalidParameter)
}
