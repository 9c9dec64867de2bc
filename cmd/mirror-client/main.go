// Command mirror-client plays one production cycle and one creature merge against a
// running game service, polling only when its local countdown says a call is worthwhile.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"game-service/internal/clock"
	"game-service/internal/gameerr"
	"game-service/internal/mirror"
	"game-service/internal/models"

	"github.com/google/uuid"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	baseURL := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if baseURL == "" {
		slog.Error("API_BASE_URL is required")
		os.Exit(1)
	}
	userID := strings.TrimSpace(os.Getenv("MIRROR_USER_ID"))
	if userID == "" {
		userID = "mirror-" + uuid.NewString()[:8]
	}
	rarity := models.Rarity(strings.TrimSpace(os.Getenv("MIRROR_RARITY")))
	if rarity == "" {
		rarity = models.RarityCommon
	}
	pollEvery := time.Duration(parseEnvInt("MIRROR_POLL_SECONDS", 30)) * time.Second

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := mirror.NewClient(baseURL, userID, &http.Client{Timeout: 15 * time.Second}, mirror.NewTimer(clock.RealClock{}))

	if err := runProduction(ctx, client, pollEvery); err != nil {
		slog.Error("production cycle failed", "user_id", userID, "error", err)
		os.Exit(1)
	}
	if err := runMerge(ctx, client, rarity, pollEvery); err != nil {
		slog.Error("merge failed", "user_id", userID, "error", err)
		os.Exit(1)
	}
	slog.Info("done", "user_id", userID)
}

func runProduction(ctx context.Context, client *mirror.Client, pollEvery time.Duration) error {
	if _, err := client.AddBuilding(ctx); err != nil && !errors.Is(err, gameerr.ErrAlreadyExists) {
		return err
	}

	res, err := client.StartProduction(ctx)
	switch {
	case errors.Is(err, gameerr.ErrAlreadyActive):
		if _, err := client.Status(ctx); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		slog.Info("production started", "ends_at", res.EndTime, "gold_left", res.Balance)
	}

	key := mirror.BuildingKey(client.UserID())
	for {
		if err := waitUntilLikelyReady(ctx, client.Timer(), key, pollEvery); err != nil {
			return err
		}
		collected, err := client.CollectProduction(ctx)
		if errors.Is(err, gameerr.ErrNotReady) {
			continue
		}
		if err != nil {
			return err
		}
		slog.Info("production collected", "yield", collected.YieldAmount, "balance", collected.NewBalance)
		return nil
	}
}

func runMerge(ctx context.Context, client *mirror.Client, rarity models.Rarity, pollEvery time.Duration) error {
	a, err := client.GrantCreature(ctx, "mirror-slime", rarity)
	if err != nil {
		return err
	}
	b, err := client.GrantCreature(ctx, "mirror-slime", rarity)
	if err != nil {
		return err
	}

	key := mirror.MergeKey(client.UserID(), a.ID, b.ID)
	for {
		outcome, err := client.Merge(ctx, a.ID, b.ID)
		if err != nil {
			return err
		}
		if outcome.Completed {
			slog.Info("merge completed", "creature_id", outcome.Result.Creature.ID, "level", outcome.Result.Creature.Level)
			return nil
		}
		slog.Info("merge pending", "progress", outcome.Progress, "remaining", outcome.Remaining, "speed_up_cost", outcome.SpeedUpCost)
		if err := waitUntilLikelyReady(ctx, client.Timer(), key, pollEvery); err != nil {
			return err
		}
	}
}

// waitUntilLikelyReady sleeps in pollEvery steps until the local countdown runs out.
func waitUntilLikelyReady(ctx context.Context, timer *mirror.Timer, key string, pollEvery time.Duration) error {
	for {
		remaining, ok := timer.Remaining(key)
		if !ok || remaining == 0 {
			return nil
		}
		if pollEvery > 0 && remaining > pollEvery {
			remaining = pollEvery
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(remaining):
		}
	}
}

func parseEnvInt(key string, fallback int) int {
	if raw := strings.TrimSpace(os.Getenv(key)); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			return parsed
		}
	}
	return fallback
}
