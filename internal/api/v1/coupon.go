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

type CouponHandler struct {
	couponService     service.CouponService
	validationService service.CouponValidationService
	logger            *logger.Logger
}

func NewCouponHandler(
	couponService service.CouponService,
	validationService service.CouponValidationService,
	logger *logger.Logger,
) *CouponHandler {
	return &CouponHandler{
		couponService:     couponService,
		validationService: validationService,
		logger:            logger,
	}
}

// @Summary Create a new coupon
// @Description Creates a new coupon
// @Tags Coupons
// @Accept json
// @Produce json
// @Param coupon body dto.CreateCouponRequest true "Coupon request"
// @Success 201 {object} dto.CouponResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /admin/coupons [post]
// @Security ApiKeyAuth
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var req dto.CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.CreateCoupon(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// @Summary Get a coupon by code
// @Description Retrieves a coupon by its code
// @Tags Coupons
// @Produce json
// @Param code path string true "Coupon code"
// @Success 200 {object} dto.CouponResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/coupons/{code} [get]
// @Security ApiKeyAuth
func (h *CouponHandler) GetCoupon(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.Error(ierr.NewError("coupon code is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.GetCoupon(c.Request.Context(), code)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary List coupons
// @Description Lists all coupon definitions
// @Tags Coupons
// @Produce json
// @Success 200 {object} dto.ListCouponsResponse
// @Router /admin/coupons [get]
// @Security ApiKeyAuth
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	response, err := h.couponService.ListCoupons(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Update a coupon
// @Description Updates a coupon definition
// @Tags Coupons
// @Accept json
// @Produce json
// @Param code path string true "Coupon code"
// @Param coupon body dto.UpdateCouponRequest true "Update request"
// @Success 200 {object} dto.CouponResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/coupons/{code} [put]
// @Security ApiKeyAuth
func (h *CouponHandler) UpdateCoupon(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.Error(ierr.NewError("coupon code is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.UpdateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.couponService.UpdateCoupon(c.Request.Context(), code, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Delete a coupon
// @Description Deletes a coupon definition
// @Tags Coupons
// @Param code path string true "Coupon code"
// @Success 204
// @Failure 404 {object} middleware.ErrorResponse
// @Router /admin/coupons/{code} [delete]
// @Security ApiKeyAuth
func (h *CouponHandler) DeleteCoupon(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		c.Error(ierr.NewError("coupon code is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.couponService.DeleteCoupon(c.Request.Context(), code); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Validate a coupon
// @Description Runs the validation pipeline for the calling account.
// Business failures come back with 200 and valid=false; only transport
// and store failures are HTTP errors.
// @Tags Coupons
// @Accept json
// @Produce json
// @Param code path string true "Coupon code"
// @Param request body dto.ValidateCouponRequest true "Validation request"
// @Success 200 {object} dto.CouponValidationResult
// @Failure 401 {object} middleware.ErrorResponse
// @Router /coupons/{code}/validate [post]
// @Security BearerAuth
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	accountID := types.GetAccountID(c.Request.Context())
	if accountID == "" {
		c.Error(ierr.NewError("missing account context").
			WithHint("Unauthorized").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	code := c.Param("code")
	if code == "" {
		c.Error(ierr.NewError("coupon code is required").
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.ValidateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.validationService.ValidateCoupon(c.Request.Context(), code, accountID, req.PlanPrice)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, response)
}
