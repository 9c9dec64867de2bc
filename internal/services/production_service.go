package services

import (
	"context"
	"log/slog"
	"time"

	"game-service/internal/catalog"
	"game-service/internal/clock"
	"game-service/internal/config"
	"game-service/internal/event"
	"game-service/internal/gameerr"
	"game-service/internal/ledger"
	"game-service/internal/models"
	"game-service/internal/timing"
)

type IProductionService interface {
	AddBuilding(ctx context.Context, userID string) (*models.BuildingSnapshot, error)
	Activate(ctx context.Context, userID string) (*models.ActivateResult, error)
	Collect(ctx context.Context, userID string) (*models.CollectResult, error)
	UpgradeToLevel(ctx context.Context, userID string, targetLevel int) (*models.UpgradeResult, error)
	GetStatus(ctx context.Context, userID string) (*models.BuildingStatus, error)
}

// ProductionService runs the producer building state machine:
// idle -> active (activate, pays gold) -> ready (derived from end time) -> idle (collect).
type ProductionService struct {
	runner    *AggregateRunner
	catalog   catalog.Provider
	clock     clock.Clock
	publisher event.Publisher
	economy   config.EconomyConfig
}

func NewProductionService(runner *AggregateRunner, provider catalog.Provider, clk clock.Clock, publisher event.Publisher, economy config.EconomyConfig) *ProductionService {
	return &ProductionService{
		runner:    runner,
		catalog:   provider,
		clock:     clk,
		publisher: publisher,
		economy:   economy,
	}
}

func (s *ProductionService) AddBuilding(ctx context.Context, userID string) (*models.BuildingSnapshot, error) {
	var now time.Time
	agg, err := s.runner.Upsert(ctx, userID, s.newPlayer, func(agg *models.UserAggregate) error {
		now = s.clock.Now()
		if agg.Building != nil {
			return gameerr.AlreadyExists("producer building")
		}
		entry, ok := s.catalog.Entry(catalog.MinLevel)
		if !ok {
			return gameerr.InvalidLevel(catalog.MinLevel)
		}
		agg.Building = &models.ProducerBuilding{
			Level:                 entry.Level,
			ProductionTimeMinutes: entry.ProductionTimeMinutes,
			YieldAmount:           entry.YieldAmount,
			ActivationCost:        entry.ActivationCost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("producer building added", "user_id", userID)
	s.publish(ctx, event.BuildingAdded, userID, now, map[string]any{"level": agg.Building.Level})

	snap := snapshot(agg.Building, now)
	return &snap, nil
}

func (s *ProductionService) Activate(ctx context.Context, userID string) (*models.ActivateResult, error) {
	var now time.Time
	agg, err := s.runner.Mutate(ctx, userID, func(agg *models.UserAggregate) error {
		now = s.clock.Now()
		b := agg.Building
		if b == nil {
			return gameerr.NotFound("producer building")
		}
		if b.IsActive {
			return gameerr.AlreadyActive()
		}
		if err := ledger.Debit(agg.Balances, models.CurrencyGold, b.ActivationCost); err != nil {
			return err
		}
		b.StartProduction(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	b := agg.Building
	slog.Info("production started",
		"user_id", userID,
		"level", b.Level,
		"cost", b.ActivationCost,
		"ends_at", b.ProductionEndTime)
	s.publish(ctx, event.BuildingActivated, userID, now, map[string]any{
		"level":    b.Level,
		"cost":     b.ActivationCost,
		"end_time": *b.ProductionEndTime,
	})

	return &models.ActivateResult{
		Building:  snapshot(b, now),
		StartTime: *b.ProductionStartTime,
		EndTime:   *b.ProductionEndTime,
		CostPaid:  b.ActivationCost,
		Balance:   agg.Balances.Of(models.CurrencyGold),
	}, nil
}

// Collect credits the yield once the production window has ended. Early calls only learn
// the remaining time in whole minutes.
func (s *ProductionService) Collect(ctx context.Context, userID string) (*models.CollectResult, error) {
	var (
		now         time.Time
		yieldAmount int64
	)
	agg, err := s.runner.Mutate(ctx, userID, func(agg *models.UserAggregate) error {
		now = s.clock.Now()
		b := agg.Building
		if b == nil {
			return gameerr.NotFound("producer building")
		}
		if !b.IsActive || b.ProductionEndTime == nil {
			return gameerr.NoActiveProduction()
		}
		if remaining := timing.Remaining(now, *b.ProductionEndTime); remaining > 0 {
			return gameerr.NotReady(timing.CeilMinutes(remaining))
		}
		yieldAmount = b.YieldAmount
		if err := ledger.Credit(agg.Balances, models.CurrencyEssence, yieldAmount); err != nil {
			return err
		}
		b.FinishProduction(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	balance := agg.Balances.Of(models.CurrencyEssence)
	slog.Info("production collected", "user_id", userID, "yield", yieldAmount, "balance", balance)
	s.publish(ctx, event.ProductionCollected, userID, now, map[string]any{
		"yield_amount": yieldAmount,
		"currency":     models.CurrencyEssence,
	})

	return &models.CollectResult{
		YieldAmount: yieldAmount,
		NewBalance:  balance,
		Currency:    models.CurrencyEssence,
		CollectedAt: now,
	}, nil
}

// UpgradeToLevel jumps straight to targetLevel. The summed cost of every skipped level is
// validated before the single debit.
func (s *ProductionService) UpgradeToLevel(ctx context.Context, userID string, targetLevel int) (*models.UpgradeResult, error) {
	var (
		now           time.Time
		previousLevel int
		cost          int64
	)
	agg, err := s.runner.Mutate(ctx, userID, func(agg *models.UserAggregate) error {
		now = s.clock.Now()
		b := agg.Building
		if b == nil {
			return gameerr.NotFound("producer building")
		}
		if b.IsActive {
			return gameerr.AlreadyActive().With("hint", "collect the running production before upgrading")
		}
		if targetLevel <= b.Level {
			return gameerr.AlreadyAtOrAboveLevel(b.Level, targetLevel)
		}

		total, err := s.catalog.UpgradeCost(b.Level, targetLevel)
		if err != nil {
			return err
		}
		entry, ok := s.catalog.Entry(targetLevel)
		if !ok {
			return gameerr.InvalidLevel(targetLevel)
		}
		if err := ledger.Debit(agg.Balances, models.CurrencyGold, total); err != nil {
			return err
		}

		previousLevel = b.Level
		cost = total
		b.Level = entry.Level
		b.ProductionTimeMinutes = entry.ProductionTimeMinutes
		b.YieldAmount = entry.YieldAmount
		b.ActivationCost = entry.ActivationCost
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("producer building upgraded",
		"user_id", userID,
		"from", previousLevel,
		"to", targetLevel,
		"cost", cost)
	s.publish(ctx, event.BuildingUpgraded, userID, now, map[string]any{
		"from_level": previousLevel,
		"to_level":   targetLevel,
		"cost":       cost,
	})

	return &models.UpgradeResult{
		PreviousLevel:    previousLevel,
		NewLevel:         agg.Building.Level,
		CostPaid:         cost,
		RemainingBalance: agg.Balances.Of(models.CurrencyGold),
	}, nil
}

func (s *ProductionService) GetStatus(ctx context.Context, userID string) (*models.BuildingStatus, error) {
	agg, err := s.runner.Read(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &models.BuildingStatus{
		UserID:   agg.UserID,
		Balances: agg.Balances,
	}
	if agg.Building != nil {
		snap := snapshot(agg.Building, s.clock.Now())
		status.Building = &snap
	}
	return status, nil
}

func (s *ProductionService) newPlayer(userID string) *models.UserAggregate {
	return newPlayer(userID, s.economy)
}

func (s *ProductionService) publish(ctx context.Context, eventType event.GameEventType, userID string, at time.Time, additional map[string]any) {
	if err := s.publisher.PublishEvent(ctx, event.NewGameEvent(eventType, userID, at, additional)); err != nil {
		slog.Error("failed to publish game event", "event_type", eventType, "user_id", userID, "error", err)
	}
}

func newPlayer(userID string, economy config.EconomyConfig) *models.UserAggregate {
	return models.NewUserAggregate(userID, models.Balance{
		models.CurrencyGold:    economy.StartingGold,
		models.CurrencyGems:    economy.StartingGems,
		models.CurrencyEssence: 0,
	})
}

func snapshot(b *models.ProducerBuilding, now time.Time) models.BuildingSnapshot {
	snap := models.BuildingSnapshot{
		ProducerBuilding: *b.Clone(),
		State:            b.State(now),
	}
	if snap.State == models.BuildingActive {
		snap.RemainingMinutes = timing.CeilMinutes(timing.Remaining(now, *b.ProductionEndTime))
	}
	return snap
}
