package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumitra/entitlements/internal/api/dto"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/service"
	"github.com/edumitra/entitlements/internal/types"
)

type EntitlementHandler struct {
	entitlementService service.EntitlementService
	logger             *logger.Logger
}

func NewEntitlementHandler(entitlementService service.EntitlementService, logger *logger.Logger) *EntitlementHandler {
	return &EntitlementHandler{
		entitlementService: entitlementService,
		logger:             logger,
	}
}

// @Summary Get my entitlement
// @Description Returns the calling account's entitlement snapshot
// @Tags Entitlements
// @Produce json
// @Success 200 {object} dto.EntitlementResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /entitlements/me [get]
// @Security BearerAuth
func (h *EntitlementHandler) GetMyEntitlement(c *gin.Context) {
	accountID := types.GetAccountID(c.Request.Context())
	if accountID == "" {
		c.Error(ierr.NewError("missing account context").
			WithHint("Unauthorized").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	response := h.entitlementService.GetStatus(c.Request.Context(), accountID)
	c.JSON(http.StatusOK, response)
}

// @Summary Start a free trial
// @Description Starts the account's one-time free trial
// @Tags Entitlements
// @Accept json
// @Produce json
// @Param request body dto.StartTrialRequest true "Trial request"
// @Success 200 {object} dto.EntitlementResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /entitlements/trial [post]
// @Security BearerAuth
func (h *EntitlementHandler) StartTrial(c *gin.Context) {
	accountID := types.GetAccountID(c.Request.Context())
	if accountID == "" {
		c.Error(ierr.NewError("missing account context").
			WithHint("Unauthorized").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	var req dto.StartTrialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	response, err := h.entitlementService.StartTrial(c.Request.Context(), accountID, req.Plan)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Start a grace period
// @Description Moves an expired account into a grace window
// @Tags Entitlements
// @Accept json
// @Produce json
// @Param account_id path string true "Account ID"
// @Param request body dto.StartGraceRequest true "Grace request"
// @Success 200 {object} dto.EntitlementResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/entitlements/{account_id}/grace [post]
// @Security ApiKeyAuth
func (h *EntitlementHandler) StartGrace(c *gin.Context) {
	accountID := c.Param("account_id")
	if accountID == "" {
		c.Error(ierr.NewError("account ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.StartGraceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.entitlementService.StartGrace(c.Request.Context(), accountID, req.Days)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Downgrade to free
// @Description Downgrades a grace or expired account to the free tier
// @Tags Entitlements
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 200 {object} dto.EntitlementResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/entitlements/{account_id}/downgrade [post]
// @Security ApiKeyAuth
func (h *EntitlementHandler) DowngradeToFree(c *gin.Context) {
	accountID := c.Param("account_id")
	if accountID == "" {
		c.Error(ierr.NewError("account ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.entitlementService.DowngradeToFree(c.Request.Context(), accountID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Re-arm an account's trial
// @Description Clears the trial-used flag so the account may trial again
// @Tags Entitlements
// @Produce json
// @Param account_id path string true "Account ID"
// @Success 204
// @Failure 400 {object} middleware.ErrorResponse
// @Router /admin/entitlements/{account_id}/trial-override [post]
// @Security ApiKeyAuth
func (h *EntitlementHandler) OverrideTrial(c *gin.Context) {
	accountID := c.Param("account_id")
	if accountID == "" {
		c.Error(ierr.NewError("account ID is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.entitlementService.OverrideTrial(c.Request.Context(), accountID); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
