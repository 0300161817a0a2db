package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/edumitra/entitlements/internal/domain/coupon"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// CreateCouponRequest represents the request to create a new coupon
type CreateCouponRequest struct {
	Code           string           `json:"code" validate:"required"`
	Name           string           `json:"name"`
	Active         bool             `json:"active"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Discount       decimal.Decimal  `json:"discount"`
	Type           types.CouponType `json:"type" validate:"required,oneof=flat percentage"`
	MaxUsageCount  *int64           `json:"max_usage_count,omitempty"`
	OneTimePerUser bool             `json:"one_time_per_user"`
}

func (r *CreateCouponRequest) Validate() error {
	if r.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Please provide a coupon code").
			Mark(ierr.ErrValidation)
	}
	if r.Discount.LessThanOrEqual(decimal.Zero) {
		return ierr.NewError("discount must be greater than zero").
			WithHint("Please provide a valid discount").
			Mark(ierr.ErrValidation)
	}
	if r.Type == types.CouponTypePercentage && r.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("percentage discount must be between 0 and 100").
			WithHint("Please provide a valid percentage between 0 and 100").
			Mark(ierr.ErrValidation)
	}
	return r.Type.Validate()
}

// ToCoupon converts the request to a domain coupon with the canonical code
func (r *CreateCouponRequest) ToCoupon(createdBy string) *coupon.Coupon {
	now := time.Now().UTC()
	return &coupon.Coupon{
		Code:           coupon.CanonicalCode(r.Code),
		Name:           r.Name,
		Active:         r.Active,
		ValidUntil:     r.ValidUntil,
		Discount:       r.Discount,
		Type:           r.Type,
		MaxUsageCount:  r.MaxUsageCount,
		OneTimePerUser: r.OneTimePerUser,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      createdBy,
	}
}

// UpdateCouponRequest represents the request to update an existing coupon
type UpdateCouponRequest struct {
	Name           *string          `json:"name,omitempty"`
	Active         *bool            `json:"active,omitempty"`
	ValidUntil     *time.Time       `json:"valid_until,omitempty"`
	Discount       *decimal.Decimal `json:"discount,omitempty"`
	MaxUsageCount  *int64           `json:"max_usage_count,omitempty"`
	OneTimePerUser *bool            `json:"one_time_per_user,omitempty"`
}

// CouponResponse represents a coupon definition in API responses
type CouponResponse struct {
	*coupon.Coupon
}

// ListCouponsResponse represents the list of coupon definitions
type ListCouponsResponse struct {
	Items []*CouponResponse `json:"items"`
	Total int               `json:"total"`
}

// ValidateCouponRequest represents the request to validate or redeem a
// coupon for the current account
type ValidateCouponRequest struct {
	// PlanPrice, when provided, lets the response carry the final
	// discounted price
	PlanPrice *decimal.Decimal `json:"plan_price,omitempty"`
}

// CouponValidationResult is the structured outcome of coupon validation.
// Business failures are carried here, never as transport errors.
type CouponValidationResult struct {
	Valid    bool                            `json:"valid"`
	Code     string                          `json:"code,omitempty"`
	Reason   types.CouponValidationErrorCode `json:"reason,omitempty"`
	Message  string                          `json:"message,omitempty"`
	Discount decimal.Decimal                 `json:"discount"`
	Type     types.CouponType                `json:"type,omitempty"`

	// FinalPrice is present when the request supplied a plan price
	FinalPrice *decimal.Decimal `json:"final_price,omitempty"`
}

// InvalidCouponResult builds a failed validation outcome from a reason code
func InvalidCouponResult(reason types.CouponValidationErrorCode) *CouponValidationResult {
	return &CouponValidationResult{
		Valid:   false,
		Reason:  reason,
		Message: reason.Message(),
	}
}
