package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAggregate is the per-player document: building, creatures, merges and balances are
// loaded and saved together so every transition commits with its ledger change.
type UserAggregate struct {
	UserID        string             `json:"user_id"`
	Building      *ProducerBuilding  `json:"building"`
	Creatures     []CreatureInstance `json:"creatures"`
	MergeSessions []MergeSession     `json:"merge_sessions"`
	Balances      Balance            `json:"balances"`
	Version       int64              `json:"-"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

func NewUserAggregate(userID string, balances Balance) *UserAggregate {
	if balances == nil {
		balances = Balance{}
	}
	return &UserAggregate{
		UserID:        userID,
		Creatures:     []CreatureInstance{},
		MergeSessions: []MergeSession{},
		Balances:      balances,
	}
}

func (u *UserAggregate) Creature(id uuid.UUID) *CreatureInstance {
	for i := range u.Creatures {
		if u.Creatures[i].ID == id {
			return &u.Creatures[i]
		}
	}
	return nil
}

func (u *UserAggregate) RemoveCreature(id uuid.UUID) bool {
	for i := range u.Creatures {
		if u.Creatures[i].ID == id {
			u.Creatures = append(u.Creatures[:i], u.Creatures[i+1:]...)
			return true
		}
	}
	return false
}

// Session finds the merge session for the unordered pair {a, b}.
func (u *UserAggregate) Session(a, b uuid.UUID) *MergeSession {
	for i := range u.MergeSessions {
		if u.MergeSessions[i].Involves(a, b) {
			return &u.MergeSessions[i]
		}
	}
	return nil
}

func (u *UserAggregate) RemoveSession(a, b uuid.UUID) {
	for i := range u.MergeSessions {
		if u.MergeSessions[i].Involves(a, b) {
			u.MergeSessions = append(u.MergeSessions[:i], u.MergeSessions[i+1:]...)
			return
		}
	}
}

// Clone returns a deep copy.
func (u *UserAggregate) Clone() *UserAggregate {
	out := *u
	out.Building = u.Building.Clone()
	out.Balances = u.Balances.Clone()
	out.Creatures = make([]CreatureInstance, len(u.Creatures))
	for i, c := range u.Creatures {
		c.LastUpgradeClickTime = cloneTime(c.LastUpgradeClickTime)
		if c.UpgradePartnerID != nil {
			partner := *c.UpgradePartnerID
			c.UpgradePartnerID = &partner
		}
		out.Creatures[i] = c
	}
	out.MergeSessions = append([]MergeSession(nil), u.MergeSessions...)
	return &out
}
