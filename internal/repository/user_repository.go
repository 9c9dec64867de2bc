package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"game-service/internal/models"
	"game-service/internal/utils"

	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound    = errors.New("user aggregate not found")
	ErrUserExists      = errors.New("user aggregate already exists")
	ErrVersionConflict = errors.New("user aggregate was modified concurrently")
)

// IUserRepository persists the whole player aggregate as one document.
//
// Update is a compare-and-swap on Version: it succeeds only when the stored version still
// equals agg.Version, then bumps it.
type IUserRepository interface {
	Get(ctx context.Context, userID string) (*models.UserAggregate, error)
	Create(ctx context.Context, agg *models.UserAggregate) error
	Update(ctx context.Context, agg *models.UserAggregate) error
}

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userAggregateRow struct {
	UserID   string                            `db:"user_id"`
	Document utils.JSONB[models.UserAggregate] `db:"document"`
	Version  int64                             `db:"version"`
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*models.UserAggregate, error) {
	var row userAggregateRow
	query := r.db.Rebind(`
		SELECT user_id, document, version
		FROM user_aggregates
		WHERE user_id = ?`)

	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user aggregate: %w", err)
	}

	agg := row.Document.V
	agg.UserID = row.UserID
	agg.Version = row.Version
	normalize(&agg)
	return &agg, nil
}

func (r *UserRepository) Create(ctx context.Context, agg *models.UserAggregate) error {
	now := time.Now().UTC()
	agg.UpdatedAt = now
	agg.Version = 1

	query := r.db.Rebind(`
		INSERT INTO user_aggregates (user_id, document, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO NOTHING`)

	err := utils.ExecWithCheck(ctx, r.db, query, utils.ExecInsertIgnore,
		agg.UserID, utils.JSONB[models.UserAggregate]{V: *agg}, agg.Version, now, now)
	if errors.Is(err, utils.ErrNoRowsAffected) {
		agg.Version = 0
		return ErrUserExists
	}
	if err != nil {
		agg.Version = 0
		return fmt.Errorf("failed to create user aggregate: %w", err)
	}

	slog.Debug("user aggregate created", "user_id", agg.UserID)
	return nil
}

func (r *UserRepository) Update(ctx context.Context, agg *models.UserAggregate) error {
	now := time.Now().UTC()
	expected := agg.Version
	next := *agg
	next.Version = expected + 1
	next.UpdatedAt = now

	query := r.db.Rebind(`
		UPDATE user_aggregates
		SET document = ?, version = ?, updated_at = ?
		WHERE user_id = ? AND version = ?`)

	err := utils.ExecWithCheck(ctx, r.db, query, utils.ExecUpdate,
		utils.JSONB[models.UserAggregate]{V: next}, next.Version, now, agg.UserID, expected)
	if errors.Is(err, utils.ErrNoRowsAffected) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update user aggregate: %w", err)
	}

	agg.Version = next.Version
	agg.UpdatedAt = now
	return nil
}

func normalize(agg *models.UserAggregate) {
	if agg.Balances == nil {
		agg.Balances = models.Balance{}
	}
	if agg.Creatures == nil {
		agg.Creatures = []models.CreatureInstance{}
	}
	if agg.MergeSessions == nil {
		agg.MergeSessions = []models.MergeSession{}
	}
}
