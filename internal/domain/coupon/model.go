package coupon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// Coupon is a shared discount definition, keyed by its canonical
// uppercased code. CurrentUsageCount is the one field in the system that
// concurrent redeemers race on; it is only ever moved through the
// repository's conditional increment, never read-modify-write.
type Coupon struct {
	Code              string           `json:"code"`
	Name              string           `json:"name"`
	Active            bool             `json:"active"`
	ValidUntil        *time.Time       `json:"valid_until"`
	Discount          decimal.Decimal  `json:"discount"`
	Type              types.CouponType `json:"type"`
	MaxUsageCount     *int64           `json:"max_usage_count"`
	CurrentUsageCount int64            `json:"current_usage_count"`
	OneTimePerUser    bool             `json:"one_time_per_user"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
	CreatedBy         string           `json:"created_by"`
}

// CanonicalCode uppercases and trims a user-supplied coupon code
func CanonicalCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Validate performs validation on the coupon definition
func (c *Coupon) Validate() error {
	if c.Code == "" {
		return ierr.NewError("code is required").
			WithHint("Please provide a coupon code").
			Mark(ierr.ErrValidation)
	}
	if c.Code != CanonicalCode(c.Code) {
		return ierr.NewError("code must be uppercase").
			WithHint("Coupon codes are stored uppercased").
			WithReportableDetails(map[string]any{
				"code": c.Code,
			}).
			Mark(ierr.ErrValidation)
	}
	if err := c.Type.Validate(); err != nil {
		return err
	}
	if c.Discount.IsNegative() {
		return ierr.NewError("discount cannot be negative").
			WithHint("Please provide a non-negative discount").
			Mark(ierr.ErrValidation)
	}
	if c.Type == types.CouponTypePercentage && c.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return ierr.NewError("percentage discount cannot exceed 100").
			WithHint("Percentage discounts are capped at 100").
			WithReportableDetails(map[string]any{
				"discount": c.Discount,
			}).
			Mark(ierr.ErrValidation)
	}
	if c.MaxUsageCount != nil && *c.MaxUsageCount <= 0 {
		return ierr.NewError("max_usage_count must be positive").
			WithHint("Leave max usage unset for unlimited redemptions").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsExpired reports whether the coupon's validity window has passed
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ValidUntil != nil && now.After(*c.ValidUntil)
}

// RedemptionLimitReached reports whether the global usage cap is exhausted
func (c *Coupon) RedemptionLimitReached() bool {
	return c.MaxUsageCount != nil && c.CurrentUsageCount >= *c.MaxUsageCount
}

// CalculateDiscount calculates the discount amount for a given price
func (c *Coupon) CalculateDiscount(originalPrice decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case types.CouponTypeFlat:
		return c.Discount
	case types.CouponTypePercentage:
		return originalPrice.Mul(c.Discount).Div(decimal.NewFromInt(100))
	default:
		return decimal.Zero
	}
}

// ApplyDiscount applies the discount to a given price and returns the
// final price, floored at zero
func (c *Coupon) ApplyDiscount(originalPrice decimal.Decimal) decimal.Decimal {
	finalPrice := originalPrice.Sub(c.CalculateDiscount(originalPrice))
	if finalPrice.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	return finalPrice
}
