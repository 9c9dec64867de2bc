package handlers

import (
	"log/slog"
	"net/http"

	"game-service/internal/gameerr"
	"game-service/internal/utils"

	"github.com/gin-gonic/gin"
)

// MapErrorToHTTPStatus turns a service error into a status and the error envelope.
// Anything that is not a game failure is reported as a generic internal error.
func MapErrorToHTTPStatus(err error) (int, utils.ErrorResponse) {
	ge, ok := gameerr.As(err)
	if !ok {
		return http.StatusInternalServerError,
			utils.CreateErrorResponse("INTERNAL_ERROR", "internal server error")
	}

	status := http.StatusInternalServerError
	switch ge.Kind {
	case gameerr.KindNotFound:
		status = http.StatusNotFound
	case gameerr.KindInvalidState, gameerr.KindAlreadyExists:
		status = http.StatusConflict
	case gameerr.KindInsufficientFunds:
		status = http.StatusPaymentRequired
	case gameerr.KindInvalidParameter:
		status = http.StatusBadRequest
	}
	return status, utils.CreateDetailedErrorResponse(string(ge.Reason), ge.Message, ge.Details)
}

func respondError(c *gin.Context, err error) {
	status, resp := MapErrorToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"user_id", c.Param("userId"),
			"error", err)
	} else {
		slog.Debug("request rejected",
			"path", c.FullPath(),
			"user_id", c.Param("userId"),
			"code", resp.Error.Code)
	}
	c.JSON(status, resp)
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, utils.CreateErrorResponse(string(gameerr.ReasonInvalidParameter), message))
}
