package cron

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/service"
)

// EntitlementCronHandler exposes the expiry sweeper as an HTTP trigger
// for external schedulers
type EntitlementCronHandler struct {
	sweeperService service.SweeperService
	logger         *logger.Logger
}

func NewEntitlementCronHandler(sweeperService service.SweeperService, logger *logger.Logger) *EntitlementCronHandler {
	return &EntitlementCronHandler{
		sweeperService: sweeperService,
		logger:         logger,
	}
}

// @Summary Sweep expired entitlements
// @Description Expires every trial and subscription whose end date has
// passed. Per-record failures are counted and the sweep continues.
// @Tags Cron
// @Produce json
// @Success 200 {object} dto.SweepResult
// @Router /cron/entitlements/sweep [post]
// @Security ApiKeyAuth
func (h *EntitlementCronHandler) SweepExpired(c *gin.Context) {
	result, err := h.sweeperService.SweepExpired(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, result)
}
