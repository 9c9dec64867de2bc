package models

import (
	"time"

	"github.com/google/uuid"
)

type CreatureInstance struct {
	ID                   uuid.UUID  `json:"id"`
	TemplateID           string     `json:"template_id"`
	Rarity               Rarity     `json:"rarity"`
	Level                int        `json:"level"`
	UpgradeProgress      int        `json:"upgrade_progress"`
	UpgradePartnerID     *uuid.UUID `json:"upgrade_partner_id"`
	LastUpgradeClickTime *time.Time `json:"last_upgrade_click_time"`
	ObtainedAt           time.Time  `json:"obtained_at"`
}

func (c *CreatureInstance) Merging() bool {
	return c.UpgradePartnerID != nil
}

func (c *CreatureInstance) ClearMerge() {
	c.UpgradeProgress = 0
	c.UpgradePartnerID = nil
}

// MergeSession records one in-flight merge. TargetID is levelled up, PartnerID is consumed.
type MergeSession struct {
	TargetID        uuid.UUID `json:"target_id"`
	PartnerID       uuid.UUID `json:"partner_id"`
	Rarity          Rarity    `json:"rarity"`
	StartedAt       time.Time `json:"started_at"`
	WaitSeconds     int64     `json:"wait_seconds"`
	InitialProgress int       `json:"initial_progress"`
	SpedUp          bool      `json:"sped_up"`
}

func (s *MergeSession) Wait() time.Duration {
	return time.Duration(s.WaitSeconds) * time.Second
}

func (s *MergeSession) ReadyAt() time.Time {
	return s.StartedAt.Add(s.Wait())
}

func (s *MergeSession) State(now time.Time) MergeState {
	if now.Before(s.ReadyAt()) {
		return MergePending
	}
	return MergeReady
}

// Involves reports whether the session is for the unordered pair {a, b}.
func (s *MergeSession) Involves(a, b uuid.UUID) bool {
	return (s.TargetID == a && s.PartnerID == b) || (s.TargetID == b && s.PartnerID == a)
}
