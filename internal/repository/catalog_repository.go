package repository

import (
	"context"
	"fmt"

	"game-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CatalogRepository reads the producer level table. Rows are seeded outside this service.
type CatalogRepository struct {
	db *sqlx.DB
}

func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProducerLevels(ctx context.Context) ([]models.CatalogLevelEntry, error) {
	var entries []models.CatalogLevelEntry
	query := `
		SELECT level, upgrade_cost, production_time_minutes, yield_amount, activation_cost
		FROM producer_level_catalog
		ORDER BY level`

	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("failed to get producer level catalog: %w", err)
	}

	return entries, nil
}
