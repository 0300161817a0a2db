package types

import (
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/samber/lo"
)

// CouponType represents the type of coupon discount (flat or percentage)
type CouponType string

const (
	// CouponTypeFlat represents a flat amount coupon discount
	CouponTypeFlat CouponType = "flat"
	// CouponTypePercentage represents a percentage-based coupon discount
	CouponTypePercentage CouponType = "percentage"
)

func (t CouponType) String() string {
	return string(t)
}

func (t CouponType) Validate() error {
	allowed := []CouponType{
		CouponTypeFlat,
		CouponTypePercentage,
	}
	if !lo.Contains(allowed, t) {
		return ierr.NewError("invalid coupon type").
			WithHint("Coupon type must be flat or percentage").
			WithReportableDetails(map[string]any{
				"type":    t,
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CouponValidationErrorCode represents the reason a coupon failed validation
type CouponValidationErrorCode string

const (
	CouponValidationErrorCodeNotFound          CouponValidationErrorCode = "COUPON_NOT_FOUND"
	CouponValidationErrorCodeInactive          CouponValidationErrorCode = "COUPON_INACTIVE"
	CouponValidationErrorCodeExpired           CouponValidationErrorCode = "COUPON_EXPIRED"
	CouponValidationErrorCodeUsageLimitReached CouponValidationErrorCode = "USAGE_LIMIT_REACHED"
	CouponValidationErrorCodeAlreadyUsed       CouponValidationErrorCode = "COUPON_ALREADY_USED"
	CouponValidationErrorCodeDatabaseError     CouponValidationErrorCode = "DATABASE_ERROR"
)

func (c CouponValidationErrorCode) String() string {
	return string(c)
}

// IsUserError returns true if the code is an expected business outcome
// rather than a system failure
func (c CouponValidationErrorCode) IsUserError() bool {
	return c != CouponValidationErrorCodeDatabaseError
}

// Message returns the user-facing message for the validation failure
func (c CouponValidationErrorCode) Message() string {
	switch c {
	case CouponValidationErrorCodeNotFound:
		return "Invalid coupon code"
	case CouponValidationErrorCodeInactive:
		return "This coupon is no longer active"
	case CouponValidationErrorCodeExpired:
		return "This coupon has expired"
	case CouponValidationErrorCodeUsageLimitReached:
		return "This coupon has reached its usage limit"
	case CouponValidationErrorCodeAlreadyUsed:
		return "You have already used this coupon"
	default:
		return "Could not validate coupon, please try again"
	}
}
