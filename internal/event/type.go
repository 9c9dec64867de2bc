package event

import "time"

const GameQueue string = "game_events"

type GameEvent struct {
	ID         string         `json:"id"`
	EventType  GameEventType  `json:"event_type"`
	UserID     string         `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Additional map[string]any `json:"additional"`
}

type GameEventType string

const (
	BuildingAdded       GameEventType = "building_added"
	BuildingActivated   GameEventType = "building_activated"
	ProductionCollected GameEventType = "production_collected"
	BuildingUpgraded    GameEventType = "building_upgraded"
	MergeStarted        GameEventType = "merge_started"
	MergeCompleted      GameEventType = "merge_completed"
	MergeSpedUp         GameEventType = "merge_sped_up"
)
