package handlers

import (
	"net/http"

	"game-service/internal/catalog"
	"game-service/internal/services"
	"game-service/internal/utils"

	"github.com/gin-gonic/gin"
)

type BuildingHandler struct {
	productionService services.IProductionService
}

func NewBuildingHandler(productionService services.IProductionService) *BuildingHandler {
	return &BuildingHandler{
		productionService: productionService,
	}
}

func (h *BuildingHandler) RegisterRoutes(router *gin.Engine) {
	userGroup := router.Group("/user/:userId")
	userGroup.GET("", h.GetStatus)
	userGroup.POST("/add", h.AddBuilding)
	userGroup.POST("/start", h.Activate)
	userGroup.POST("/collect", h.Collect)
	userGroup.POST("/upgrade/:level", h.Upgrade)
}

func (h *BuildingHandler) GetStatus(c *gin.Context) {
	status, err := h.productionService.GetStatus(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateSuccessResponse(status))
}

func (h *BuildingHandler) AddBuilding(c *gin.Context) {
	snap, err := h.productionService.AddBuilding(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, utils.CreateMessageResponse("producer building added", snap))
}

func (h *BuildingHandler) Activate(c *gin.Context) {
	res, err := h.productionService.Activate(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateMessageResponse("production started", res))
}

func (h *BuildingHandler) Collect(c *gin.Context) {
	res, err := h.productionService.Collect(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateMessageResponse("production collected", res))
}

func (h *BuildingHandler) Upgrade(c *gin.Context) {
	level, err := utils.GetPathParamAsIntInRange(c, "level", catalog.MinLevel, catalog.MaxLevel)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	res, err := h.productionService.UpgradeToLevel(c.Request.Context(), c.Param("userId"), level)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utils.CreateMessageResponse("producer building upgraded", res))
}
