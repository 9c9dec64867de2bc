package models

import "time"

// CatalogLevelEntry holds the production parameters of one producer level.
type CatalogLevelEntry struct {
	Level                 int   `json:"level" db:"level"`
	UpgradeCost           int64 `json:"upgrade_cost" db:"upgrade_cost"`
	ProductionTimeMinutes int   `json:"production_time_minutes" db:"production_time_minutes"`
	YieldAmount           int64 `json:"yield_amount" db:"yield_amount"`
	ActivationCost        int64 `json:"activation_cost" db:"activation_cost"`
}

// MergeRule holds the rarity-dependent merge timing.
type MergeRule struct {
	Rarity          Rarity        `json:"rarity"`
	Wait            time.Duration `json:"wait"`
	InitialProgress int           `json:"initial_progress"`
	MaxLevel        int           `json:"max_level"`
}
