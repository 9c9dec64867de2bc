package models

import "time"

// ProducerBuilding is the single production building a player owns.
type ProducerBuilding struct {
	Level                 int        `json:"level"`
	IsActive              bool       `json:"is_active"`
	ProductionStartTime   *time.Time `json:"production_start_time"`
	ProductionEndTime     *time.Time `json:"production_end_time"`
	ProductionTimeMinutes int        `json:"production_time_minutes"`
	YieldAmount           int64      `json:"yield_amount"`
	ActivationCost        int64      `json:"activation_cost"`
	LastCollected         *time.Time `json:"last_collected"`
}

func (b *ProducerBuilding) ProductionDuration() time.Duration {
	return time.Duration(b.ProductionTimeMinutes) * time.Minute
}

// State derives idle/active/ready at now.
func (b *ProducerBuilding) State(now time.Time) BuildingState {
	if !b.IsActive || b.ProductionEndTime == nil {
		return BuildingIdle
	}
	if now.Before(*b.ProductionEndTime) {
		return BuildingActive
	}
	return BuildingReady
}

// StartProduction sets both timestamps together with the active flag.
func (b *ProducerBuilding) StartProduction(now time.Time) {
	start := now
	end := now.Add(b.ProductionDuration())
	b.ProductionStartTime = &start
	b.ProductionEndTime = &end
	b.IsActive = true
}

// FinishProduction clears the production window and records the collection time.
func (b *ProducerBuilding) FinishProduction(now time.Time) {
	collected := now
	b.ProductionStartTime = nil
	b.ProductionEndTime = nil
	b.IsActive = false
	b.LastCollected = &collected
}

func (b *ProducerBuilding) Clone() *ProducerBuilding {
	if b == nil {
		return nil
	}
	out := *b
	out.ProductionStartTime = cloneTime(b.ProductionStartTime)
	out.ProductionEndTime = cloneTime(b.ProductionEndTime)
	out.LastCollected = cloneTime(b.LastCollected)
	return &out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
