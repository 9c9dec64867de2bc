// Package catalog holds the immutable producer level table and the creature merge rules.
package catalog

import (
	"fmt"
	"sort"
	"time"

	"game-service/internal/gameerr"
	"game-service/internal/models"
)

const (
	MinLevel = 1
	MaxLevel = 8
)

// Provider is the read-only view the engines depend on.
type Provider interface {
	Entry(level int) (models.CatalogLevelEntry, bool)
	UpgradeCost(fromLevel, toLevel int) (int64, error)
	MergeRule(rarity models.Rarity) (models.MergeRule, bool)
}

// Table is safe for concurrent reads; it is never mutated after NewTable.
type Table struct {
	entries map[int]models.CatalogLevelEntry
	levels  []int
	merge   map[models.Rarity]models.MergeRule
}

func NewTable(entries []models.CatalogLevelEntry, rules []models.MergeRule) (*Table, error) {
	t := &Table{
		entries: make(map[int]models.CatalogLevelEntry, len(entries)),
		merge:   make(map[models.Rarity]models.MergeRule, len(rules)),
	}
	for _, e := range entries {
		if e.Level < MinLevel || e.Level > MaxLevel {
			return nil, fmt.Errorf("catalog level %d out of range [%d,%d]", e.Level, MinLevel, MaxLevel)
		}
		if _, dup := t.entries[e.Level]; dup {
			return nil, fmt.Errorf("duplicate catalog level %d", e.Level)
		}
		if e.ProductionTimeMinutes <= 0 || e.YieldAmount < 0 || e.ActivationCost < 0 || e.UpgradeCost < 0 {
			return nil, fmt.Errorf("catalog level %d has invalid parameters", e.Level)
		}
		t.entries[e.Level] = e
		t.levels = append(t.levels, e.Level)
	}
	if _, ok := t.entries[MinLevel]; !ok {
		return nil, fmt.Errorf("catalog must contain level %d", MinLevel)
	}
	sort.Ints(t.levels)

	for _, r := range rules {
		if !r.Rarity.Valid() {
			return nil, fmt.Errorf("unknown rarity %q in merge rules", r.Rarity)
		}
		if r.InitialProgress < 0 || r.InitialProgress > 100 || r.Wait < 0 {
			return nil, fmt.Errorf("invalid merge rule for %s", r.Rarity)
		}
		t.merge[r.Rarity] = r
	}
	return t, nil
}

func (t *Table) Entry(level int) (models.CatalogLevelEntry, bool) {
	e, ok := t.entries[level]
	return e, ok
}

func (t *Table) Levels() []int {
	return append([]int(nil), t.levels...)
}

// UpgradeCost sums upgrade_cost over (fromLevel, toLevel]. Every level from 1 to toLevel
// must exist; the total is computed before anything is charged.
func (t *Table) UpgradeCost(fromLevel, toLevel int) (int64, error) {
	for level := MinLevel; level <= toLevel; level++ {
		if _, ok := t.entries[level]; !ok {
			return 0, gameerr.InvalidLevel(level)
		}
	}
	var total int64
	for level := fromLevel + 1; level <= toLevel; level++ {
		total += t.entries[level].UpgradeCost
	}
	return total, nil
}

func (t *Table) MergeRule(rarity models.Rarity) (models.MergeRule, bool) {
	r, ok := t.merge[rarity]
	return r, ok
}

// DefaultEntries is the built-in producer table used when no catalog rows are seeded.
func DefaultEntries() []models.CatalogLevelEntry {
	return []models.CatalogLevelEntry{
		{Level: 1, UpgradeCost: 0, ProductionTimeMinutes: 5, YieldAmount: 4000, ActivationCost: 1600},
		{Level: 2, UpgradeCost: 1000, ProductionTimeMinutes: 10, YieldAmount: 9000, ActivationCost: 3000},
		{Level: 3, UpgradeCost: 4000, ProductionTimeMinutes: 20, YieldAmount: 20000, ActivationCost: 6000},
		{Level: 4, UpgradeCost: 10000, ProductionTimeMinutes: 40, YieldAmount: 45000, ActivationCost: 12000},
		{Level: 5, UpgradeCost: 25000, ProductionTimeMinutes: 60, YieldAmount: 80000, ActivationCost: 20000},
		{Level: 6, UpgradeCost: 50000, ProductionTimeMinutes: 90, YieldAmount: 140000, ActivationCost: 35000},
		{Level: 7, UpgradeCost: 100000, ProductionTimeMinutes: 120, YieldAmount: 220000, ActivationCost: 55000},
		{Level: 8, UpgradeCost: 200000, ProductionTimeMinutes: 180, YieldAmount: 360000, ActivationCost: 90000},
	}
}

// DefaultMergeRules: common merges have no wait and start at 50%.
func DefaultMergeRules() []models.MergeRule {
	return []models.MergeRule{
		{Rarity: models.RarityCommon, Wait: 0, InitialProgress: 50, MaxLevel: 10},
		{Rarity: models.RarityRare, Wait: 15 * time.Minute, InitialProgress: 25, MaxLevel: 15},
		{Rarity: models.RarityEpic, Wait: 30 * time.Minute, InitialProgress: 15, MaxLevel: 20},
		{Rarity: models.RarityLegendary, Wait: 60 * time.Minute, InitialProgress: 10, MaxLevel: 25},
	}
}

// Default builds a Table from the built-in data.
func Default() *Table {
	t, err := NewTable(DefaultEntries(), DefaultMergeRules())
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return t
}
