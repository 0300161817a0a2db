package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/service"
	"github.com/edumitra/entitlements/internal/types"
)

type FeatureHandler struct {
	accessService service.FeatureAccessService
	logger        *logger.Logger
}

func NewFeatureHandler(accessService service.FeatureAccessService, logger *logger.Logger) *FeatureHandler {
	return &FeatureHandler{
		accessService: accessService,
		logger:        logger,
	}
}

func (h *FeatureHandler) accountAndFeature(c *gin.Context) (string, types.FeatureCode, bool) {
	accountID := types.GetAccountID(c.Request.Context())
	if accountID == "" {
		c.Error(ierr.NewError("missing account context").
			WithHint("Unauthorized").
			Mark(ierr.ErrPermissionDenied))
		return "", "", false
	}

	feature := types.FeatureCode(c.Param("feature"))
	if feature == "" {
		c.Error(ierr.NewError("feature is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return "", "", false
	}

	return accountID, feature, true
}

// @Summary Check feature access
// @Description Answers whether the account may see the feature at all
// @Tags Features
// @Produce json
// @Param feature path string true "Feature code"
// @Success 200 {object} dto.FeatureAccessResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /features/{feature}/access [get]
// @Security BearerAuth
func (h *FeatureHandler) CheckAccess(c *gin.Context) {
	accountID, feature, ok := h.accountAndFeature(c)
	if !ok {
		return
	}

	response := h.accessService.CanAccessFeature(c.Request.Context(), accountID, feature)
	c.JSON(http.StatusOK, response)
}

// @Summary Get feature usage
// @Description Returns today's quota state for a metered feature
// @Tags Features
// @Produce json
// @Param feature path string true "Feature code"
// @Success 200 {object} dto.UsageResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /features/{feature}/usage [get]
// @Security BearerAuth
func (h *FeatureHandler) GetUsage(c *gin.Context) {
	accountID, feature, ok := h.accountAndFeature(c)
	if !ok {
		return
	}

	response, err := h.accessService.Remaining(c.Request.Context(), accountID, feature)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Use a feature
// @Description Gates one use of a feature and counts it when metered
// @Tags Features
// @Produce json
// @Param feature path string true "Feature code"
// @Success 200 {object} dto.FeatureAccessResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /features/{feature}/usage [post]
// @Security BearerAuth
func (h *FeatureHandler) UseFeature(c *gin.Context) {
	accountID, feature, ok := h.accountAndFeature(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	response := h.accessService.CanUseFeatureNow(ctx, accountID, feature)
	if !response.Allowed {
		c.JSON(http.StatusForbidden, response)
		return
	}

	// Subscribers are not metered; only count free-tier quota uses
	if feature.IsQuotaLimited() && response.Reason != "subscription" {
		if err := h.accessService.RecordUsage(ctx, accountID, feature); err != nil {
			c.Error(err)
			return
		}
	}

	c.JSON(http.StatusOK, response)
}
