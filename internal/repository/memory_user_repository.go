package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"game-service/internal/models"
	"game-service/internal/utils"
)

type memoryRecord struct {
	document []byte
	version  int64
}

// MemoryUserRepository keeps encoded aggregates in memory with the same version
// semantics as UserRepository. Used by STORAGE_MODE=memory and tests.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{records: make(map[string]memoryRecord)}
}

func (r *MemoryUserRepository) Get(ctx context.Context, userID string) (*models.UserAggregate, error) {
	r.mu.RLock()
	rec, ok := r.records[userID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}

	var agg models.UserAggregate
	if err := utils.DeserializeModel(rec.document, &agg); err != nil {
		return nil, fmt.Errorf("failed to decode user aggregate: %w", err)
	}
	agg.Version = rec.version
	normalize(&agg)
	return &agg, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, agg *models.UserAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[agg.UserID]; ok {
		return ErrUserExists
	}
	agg.UpdatedAt = time.Now().UTC()
	doc, err := utils.SerializeModel(agg)
	if err != nil {
		return fmt.Errorf("failed to encode user aggregate: %w", err)
	}
	agg.Version = 1
	r.records[agg.UserID] = memoryRecord{document: doc, version: 1}
	return nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, agg *models.UserAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[agg.UserID]
	if !ok || rec.version != agg.Version {
		return ErrVersionConflict
	}

	next := *agg
	next.UpdatedAt = time.Now().UTC()
	doc, err := utils.SerializeModel(&next)
	if err != nil {
		return fmt.Errorf("failed to encode user aggregate: %w", err)
	}
	r.records[agg.UserID] = memoryRecord{document: doc, version: rec.version + 1}
	agg.Version = rec.version + 1
	agg.UpdatedAt = next.UpdatedAt
	return nil
}
