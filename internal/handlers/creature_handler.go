package handlers

import (
	"net/http"

	"game-service/internal/models"
	"game-service/internal/services"
	"game-service/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CreatureHandler struct {
	mergeService services.IMergeService
}

func NewCreatureHandler(mergeService services.IMergeService) *CreatureHandler {
	return &CreatureHandler{
		mergeService: mergeService,
	}
}

func (h *CreatureHandler) RegisterRoutes(router *gin.Engine) {
	creatureGroup := router.Group("/api/creatures")
	creatureGroup.GET("/check-upgrade-progress/:userId", h.CheckUpgradeProgress)
	creatureGroup.POST("/speed-up-upgrade/:userId", h.SpeedUpUpgrade)
	creatureGroup.GET("/:userId", h.ListCreatures)
	creatureGroup.POST("/:userId", h.GrantCreature)
	creatureGroup.PUT("/:userId/upgrade-milestone", h.UpgradeMilestone)
	creatureGroup.POST("/:userId/collect-upgrade", h.CollectUpgrade)
}

func (h *CreatureHandler) UpgradeMilestone(c *gin.Context) {
	first, second, ok := bindPair(c, c.ShouldBindJSON)
	if !ok {
		return
	}
	status, err := h.mergeService.StartOrAdvance(c.Request.Context(), c.Param("userId"), first, second)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMerge(c, status)
}

// CheckUpgradeProgress never advances or completes the merge.
func (h *CreatureHandler) CheckUpgradeProgress(c *gin.Context) {
	first, second, ok := bindPair(c, c.ShouldBindQuery)
	if !ok {
		return
	}
	status, err := h.mergeService.CheckProgress(c.Request.Context(), c.Param("userId"), first, second)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMerge(c, status)
}

func (h *CreatureHandler) CollectUpgrade(c *gin.Context) {
	first, second, ok := bindPair(c, c.ShouldBindJSON)
	if !ok {
		return
	}
	status, err := h.mergeService.CollectUpgrade(c.Request.Context(), c.Param("userId"), first, second)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMerge(c, status)
}

func (h *CreatureHandler) SpeedUpUpgrade(c *gin.Context) {
	first, second, ok := bindPair(c, c.ShouldBindJSON)
	if !ok {
		return
	}
	status, err := h.mergeService.SpeedUp(c.Request.Context(), c.Param("userId"), first, second)
	if err != nil {
		respondError(c, err)
		return
	}
	respondMerge(c, status)
}

func (h *CreatureHandler) ListCreatures(c *gin.Context) {
	creatures, err := h.mergeService.ListCreatures(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(creatures))
}

func (h *CreatureHandler) GrantCreature(c *gin.Context) {
	var req models.GrantCreatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "templateId and rarity are required")
		return
	}
	creature, err := h.mergeService.GrantCreature(c.Request.Context(), c.Param("userId"), req.TemplateID, req.Rarity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateMessageResponse("creature granted", creature))
}

func bindPair(c *gin.Context, bind func(obj any) error) (uuid.UUID, uuid.UUID, bool) {
	var req models.MergeRequest
	if err := bind(&req); err != nil {
		respondBadRequest(c, "creature1Id and creature2Id are required")
		return uuid.Nil, uuid.Nil, false
	}
	first, second, err := utils.ParseUUIDPair(req.Creature1ID, req.Creature2ID)
	if err != nil {
		respondBadRequest(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}
	return first, second, true
}

// respondMerge writes the pending shape for started or running merges and the regular
// success envelope otherwise.
func respondMerge(c *gin.Context, status *models.MergeStatus) {
	if !status.Success {
		resp := utils.CreatePendingResponse(status.Message, status.RemainingSeconds, status.Progress, status.WaitMinutes)
		resp.Timing.SpeedUpCost = status.SpeedUpCost
		c.JSON(http.StatusOK, resp)
		return
	}
	c.JSON(http.StatusOK, utils.CreateMessageResponse(status.Message, status))
}
