package models

type Currency string

const (
	CurrencyGold    Currency = "gold"
	CurrencyGems    Currency = "gems"
	CurrencyEssence Currency = "essence"
)

type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

func (r Rarity) Valid() bool {
	switch r {
	case RarityCommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// BuildingState is derived from the stored timestamps, never persisted.
type BuildingState string

const (
	BuildingIdle   BuildingState = "idle"
	BuildingActive BuildingState = "active"
	BuildingReady  BuildingState = "ready"
)

type MergeState string

const (
	MergePending MergeState = "pending"
	MergeReady   MergeState = "ready"
)
