package models

type MergeRequest struct {
	Creature1ID string `json:"creature1Id" form:"creature1Id" binding:"required"`
	Creature2ID string `json:"creature2Id" form:"creature2Id" binding:"required"`
}

type GrantCreatureRequest struct {
	TemplateID string `json:"templateId" binding:"required"`
	Rarity     Rarity `json:"rarity" binding:"required"`
}
