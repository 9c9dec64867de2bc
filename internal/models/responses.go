package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// PRODUCER BUILDING
// ============================================================================

type BuildingSnapshot struct {
	ProducerBuilding
	State            BuildingState `json:"state"`
	RemainingMinutes int64         `json:"remaining_minutes"`
}

type ActivateResult struct {
	Building  BuildingSnapshot `json:"building"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	CostPaid  int64            `json:"cost_paid"`
	Balance   int64            `json:"balance"`
}

type CollectResult struct {
	YieldAmount int64     `json:"yield_amount"`
	NewBalance  int64     `json:"new_balance"`
	Currency    Currency  `json:"currency"`
	CollectedAt time.Time `json:"collected_at"`
}

type UpgradeResult struct {
	PreviousLevel    int   `json:"previous_level"`
	NewLevel         int   `json:"new_level"`
	CostPaid         int64 `json:"cost_paid"`
	RemainingBalance int64 `json:"remaining_balance"`
}

type BuildingStatus struct {
	UserID   string            `json:"user_id"`
	Building *BuildingSnapshot `json:"building"`
	Balances Balance           `json:"balances"`
}

// ============================================================================
// CREATURE MERGE
// ============================================================================

// MergeStatus is the outcome of a merge call. Success=false with no error means the
// merge is started or still pending; the timing fields drive the client countdown.
type MergeStatus struct {
	Success          bool              `json:"success"`
	Message          string            `json:"message"`
	State            MergeState        `json:"state,omitempty"`
	RemainingSeconds int64             `json:"remaining_time"`
	Progress         int               `json:"progress"`
	WaitMinutes      int64             `json:"wait_time_minutes"`
	SpeedUpCost      int64             `json:"speed_up_cost"`
	Creature         *CreatureInstance `json:"creature,omitempty"`
	ConsumedID       *uuid.UUID        `json:"consumed_id,omitempty"`
	GemsSpent        int64             `json:"gems_spent,omitempty"`
}
