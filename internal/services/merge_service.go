package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"game-service/internal/catalog"
	"game-service/internal/clock"
	"game-service/internal/config"
	"game-service/internal/event"
	"game-service/internal/gameerr"
	"game-service/internal/ledger"
	"game-service/internal/models"
	"game-service/internal/timing"
)

type IMergeService interface {
	StartOrAdvance(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error)
	CheckProgress(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error)
	CollectUpgrade(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error)
	SpeedUp(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error)
	ListCreatures(ctx context.Context, userID string) ([]models.CreatureInstance, error)
	GrantCreature(ctx context.Context, userID, templateID string, rarity models.Rarity) (*models.CreatureInstance, error)
}

// MergeService levels a creature up by consuming an identical partner. Common merges
// finish on the second call; rarer ones wait out a rarity-dependent timer.
type MergeService struct {
	runner    *AggregateRunner
	catalog   catalog.Provider
	clock     clock.Clock
	publisher event.Publisher
	economy   config.EconomyConfig
}

func NewMergeService(runner *AggregateRunner, provider catalog.Provider, clk clock.Clock, publisher event.Publisher, economy config.EconomyConfig) *MergeService {
	return &MergeService{
		runner:    runner,
		catalog:   provider,
		clock:     clk,
		publisher: publisher,
		economy:   economy,
	}
}

// StartOrAdvance opens a session for the pair, or completes it when it is due. A started
// or still pending merge is reported with Success=false, not as an error.
func (s *MergeService) StartOrAdvance(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error) {
	var (
		now       time.Time
		status    *models.MergeStatus
		eventType event.GameEventType
	)
	_, err := s.runner.Mutate(ctx, userID, func(agg *models.UserAggregate) error {
		now = s.clock.Now()
		status = nil
		eventType = ""

		session := agg.Session(first, second)
		if session == nil {
			started, err := s.start(agg, first, second, now)
			if err != nil {
				return err
			}
			status = s.pendingStatus(started, now, "upgrade started")
			// a zero-wait session already reads as complete; the start reports its offset
			status.Progress = started.InitialProgress
			eventType = event.MergeStarted
			return nil
		}

		if session.Rarity == models.RarityCommon || session.State(now) == models.MergeReady {
			status = complete(agg, *session, now)
			eventType = event.MergeCompleted
			return nil
		}

		progress := timing.Progress(session.InitialProgress, now.Sub(session.StartedAt), session.Wait())
		touch(agg, *session, progress, now)
		status = s.pendingStatus(session, now, "upgrade in progress")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if eventType != "" {
		slog.Info("merge transition", "user_id", userID, "event_type", eventType, "creature1_id", first, "creature2_id", second)
		s.publish(ctx, eventType, userID, now, mergeEventData(status, first, second))
	}
	return status, nil
}

// CheckProgress reports the session state without touching it.
func (s *MergeService) CheckProgress(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error) {
	agg, err := s.runner.Read(ctx, userID)
	if err != nil {
		return nil, err
	}

	session := agg.Session(first, second)
	if session == nil {
		return nil, gameerr.NoSession()
	}

	now := s.clock.Now()
	if session.State(now) == models.MergeReady {
		return &models.MergeStatus{
			Success:     true,
			Message:     "upgrade ready to collect",
			State:       models.MergeReady,
			Progress:    100,
			WaitMinutes: timing.CeilMinutes(session.Wait()),
		}, nil
	}
	return s.pendingStatus(session, now, "upgrade in progress"), nil
}

// CollectUpgrade completes a ready session exactly once.
func (s *MergeService) CollectUpgrade(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error) {
	var (
		now    time.Time
		status *models.MergeStatus
	)
	_, err := s.runner.Mutate(ctx, userID, func(agg *models.UserAggregate) error {
		now = s.clock.Now()
		session := agg.Session(first, second)
		if session == nil {
			return gameerr.NoSession()
		}
		if session.State(now) != models.MergeReady {
			return gameerr.NotReady(timing.CeilMinutes(timing.Remaining(now, session.ReadyAt()))).
				With("progress", timing.Progress(session.InitialProgress, now.Sub(session.StartedAt), session.Wait()))
		}
		status = complete(agg, *session, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("merge collected", "user_id", userID, "creature_id", status.Creature.ID, "level", status.Creature.Level)
	s.publish(ctx, event.MergeCompleted, userID, now, mergeEventData(status, first, second))
	return status, nil
}

// SpeedUp pays gems to finish the wait. The session is backdated so it reads as ready;
// collecting is still a separate call.
func (s *MergeService) SpeedUp(ctx context.Context, userID string, first, second uuid.UUID) (*models.MergeStatus, error) {
	var (
		now    time.Time
		status *models.MergeStatus
	)
	agg, err := s.runner.Mutate(ctx, userID, func(agg *models.UserAggregate) error {
		now = s.clock.Now()
		session := agg.Session(first, second)
		if session == nil {
			return gameerr.NoSession()
		}
		if session.State(now) == models.MergeReady {
			return gameerr.AlreadyReady()
		}

		cost := s.speedUpCost(timing.Remaining(now, session.ReadyAt()))
		if err := ledger.Debit(agg.Balances, models.CurrencyGems, cost); err != nil {
			return err
		}

		session.StartedAt = now.Add(-session.Wait())
		session.SpedUp = true
		touch(agg, *session, 100, now)

		status = &models.MergeStatus{
			Success:     true,
			Message:     "upgrade sped up, ready to collect",
			State:       models.MergeReady,
			Progress:    100,
			WaitMinutes: timing.CeilMinutes(session.Wait()),
			GemsSpent:   cost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("merge sped up", "user_id", userID, "gems_spent", status.GemsSpent, "gems_left", agg.Balances.Of(models.CurrencyGems))
	s.publish(ctx, event.MergeSpedUp, userID, now, mergeEventData(status, first, second))
	return status, nil
}

func (s *MergeService) ListCreatures(ctx context.Context, userID string) ([]models.CreatureInstance, error) {
	agg, err := s.runner.Read(ctx, userID)
	if err != nil {
		return nil, err
	}
	return agg.Creatures, nil
}

// GrantCreature adds a fresh level-1 creature, creating the player when needed.
func (s *MergeService) GrantCreature(ctx context.Context, userID, templateID string, rarity models.Rarity) (*models.CreatureInstance, error) {
	templateID = strings.TrimSpace(templateID)
	if templateID == "" {
		return nil, gameerr.InvalidParameter("templateId is required")
	}
	if !rarity.Valid() {
		return nil, gameerr.InvalidParameter("unknown rarity").With("rarity", rarity)
	}

	id := uuid.New()
	var granted models.CreatureInstance
	_, err := s.runner.Upsert(ctx, userID, s.newPlayer, func(agg *models.UserAggregate) error {
		granted = models.CreatureInstance{
			ID:         id,
			TemplateID: templateID,
			Rarity:     rarity,
			Level:      1,
			ObtainedAt: s.clock.Now(),
		}
		agg.Creatures = append(agg.Creatures, granted)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("creature granted", "user_id", userID, "creature_id", id, "template_id", templateID, "rarity", rarity)
	return &granted, nil
}

func (s *MergeService) start(agg *models.UserAggregate, first, second uuid.UUID, now time.Time) (*models.MergeSession, error) {
	if first == second {
		return nil, gameerr.NotEligible("a creature cannot be merged with itself")
	}
	target := agg.Creature(first)
	if target == nil {
		return nil, gameerr.NotFound("creature").With("creature_id", first.String())
	}
	partner := agg.Creature(second)
	if partner == nil {
		return nil, gameerr.NotFound("creature").With("creature_id", second.String())
	}
	if target.Merging() {
		return nil, gameerr.CreatureBusy(first.String())
	}
	if partner.Merging() {
		return nil, gameerr.CreatureBusy(second.String())
	}
	if target.TemplateID != partner.TemplateID {
		return nil, gameerr.NotEligible("creatures must share the same template")
	}
	if target.Rarity != partner.Rarity {
		return nil, gameerr.NotEligible("creatures must share the same rarity")
	}
	if target.Level != partner.Level {
		return nil, gameerr.NotEligible("creatures must be the same level")
	}

	rule, ok := s.catalog.MergeRule(target.Rarity)
	if !ok {
		return nil, gameerr.NotEligible("rarity cannot be merged").With("rarity", target.Rarity)
	}
	if target.Level >= rule.MaxLevel {
		return nil, gameerr.NotEligible("creature is already at its maximum level").
			With("max_level", rule.MaxLevel)
	}

	agg.MergeSessions = append(agg.MergeSessions, models.MergeSession{
		TargetID:        first,
		PartnerID:       second,
		Rarity:          target.Rarity,
		StartedAt:       now,
		WaitSeconds:     int64(rule.Wait / time.Second),
		InitialProgress: rule.InitialProgress,
	})
	session := &agg.MergeSessions[len(agg.MergeSessions)-1]
	touch(agg, *session, rule.InitialProgress, now)
	return session, nil
}

func (s *MergeService) pendingStatus(session *models.MergeSession, now time.Time, message string) *models.MergeStatus {
	remaining := timing.Remaining(now, session.ReadyAt())
	return &models.MergeStatus{
		Success:          false,
		Message:          message,
		State:            models.MergePending,
		RemainingSeconds: timing.CeilSeconds(remaining),
		Progress:         timing.Progress(session.InitialProgress, now.Sub(session.StartedAt), session.Wait()),
		WaitMinutes:      timing.CeilMinutes(session.Wait()),
		SpeedUpCost:      s.speedUpCost(remaining),
	}
}

// speedUpCost charges per started minute, never less than one gem.
func (s *MergeService) speedUpCost(remaining time.Duration) int64 {
	cost := timing.CeilMinutes(remaining) * s.economy.SpeedUpGemsPerMinute
	if cost < 1 {
		return 1
	}
	return cost
}

func (s *MergeService) newPlayer(userID string) *models.UserAggregate {
	return newPlayer(userID, s.economy)
}

func (s *MergeService) publish(ctx context.Context, eventType event.GameEventType, userID string, at time.Time, additional map[string]any) {
	if err := s.publisher.PublishEvent(ctx, event.NewGameEvent(eventType, userID, at, additional)); err != nil {
		slog.Error("failed to publish game event", "event_type", eventType, "user_id", userID, "error", err)
	}
}

// touch records progress and the click time on both creatures of the session.
func touch(agg *models.UserAggregate, session models.MergeSession, progress int, now time.Time) {
	pairs := [][2]uuid.UUID{
		{session.TargetID, session.PartnerID},
		{session.PartnerID, session.TargetID},
	}
	for _, p := range pairs {
		c := agg.Creature(p[0])
		if c == nil {
			continue
		}
		partner := p[1]
		clicked := now
		c.UpgradePartnerID = &partner
		c.UpgradeProgress = progress
		c.LastUpgradeClickTime = &clicked
	}
}

// complete levels up the target, consumes the partner and drops the session.
func complete(agg *models.UserAggregate, session models.MergeSession, now time.Time) *models.MergeStatus {
	target := agg.Creature(session.TargetID)
	target.Level++
	target.ClearMerge()
	clicked := now
	target.LastUpgradeClickTime = &clicked
	upgraded := *target

	agg.RemoveCreature(session.PartnerID)
	agg.RemoveSession(session.TargetID, session.PartnerID)

	consumed := session.PartnerID
	return &models.MergeStatus{
		Success:    true,
		Message:    "upgrade completed",
		State:      models.MergeReady,
		Progress:   100,
		Creature:   &upgraded,
		ConsumedID: &consumed,
	}
}

func mergeEventData(status *models.MergeStatus, first, second uuid.UUID) map[string]any {
	data := map[string]any{
		"creature1_id": first.String(),
		"creature2_id": second.String(),
		"progress":     status.Progress,
	}
	if status.Creature != nil {
		data["creature_id"] = status.Creature.ID.String()
		data["level"] = status.Creature.Level
	}
	if status.GemsSpent > 0 {
		data["gems_spent"] = status.GemsSpent
	}
	return data
}
