package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/domain/coupon"
	"github.com/edumitra/entitlements/internal/domain/redemption"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// CouponValidationService validates and redeems coupons for an account.
// Validation failures are expected business outcomes and travel as a
// structured result, never as errors.
type CouponValidationService interface {
	// ValidateCoupon runs the validation pipeline, short-circuiting on
	// the first failure. It does not mutate anything.
	ValidateCoupon(ctx context.Context, code string, accountID string, planPrice *decimal.Decimal) (*dto.CouponValidationResult, error)

	// RedeemCoupon validates, appends the account's ledger row, then
	// atomically increments the coupon's global usage counter.
	RedeemCoupon(ctx context.Context, code string, accountID string, planPrice *decimal.Decimal) (*dto.CouponValidationResult, error)
}

type couponValidationService struct {
	ServiceParams
}

// NewCouponValidationService creates a new coupon validation service
func NewCouponValidationService(params ServiceParams) CouponValidationService {
	return &couponValidationService{
		ServiceParams: params,
	}
}

func (s *couponValidationService) ValidateCoupon(ctx context.Context, code string, accountID string, planPrice *decimal.Decimal) (*dto.CouponValidationResult, error) {
	c, result, err := s.validate(ctx, code, accountID)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}
	return s.validResult(c, planPrice), nil
}

func (s *couponValidationService) RedeemCoupon(ctx context.Context, code string, accountID string, planPrice *decimal.Decimal) (*dto.CouponValidationResult, error) {
	c, result, err := s.validate(ctx, code, accountID)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	now := time.Now().UTC()

	// The ledger row is created first: its uniqueness per (account, code)
	// makes one-time-per-user redemption at-most-once even when the same
	// account races itself from two devices.
	row := redemption.New(accountID, c.Code, now)
	if err := row.Validate(); err != nil {
		return nil, err
	}
	rowCreated := true
	if err := s.RedemptionRepo.Create(ctx, row); err != nil {
		if !ierr.IsAlreadyExists(err) {
			return nil, err
		}
		if c.OneTimePerUser {
			return dto.InvalidCouponResult(types.CouponValidationErrorCodeAlreadyUsed), nil
		}
		rowCreated = false
	}

	// The global counter is the one shared write in the system: it moves
	// only through the store's conditional increment, retried on
	// transient conflicts. A failed condition means the cap was consumed
	// by concurrent redeemers between validation and here.
	incr := func() error {
		err := s.CouponRepo.IncrementUsage(ctx, c.Code)
		if err != nil && ierr.IsVersionConflict(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	if err := backoff.Retry(incr, policy); err != nil {
		// The counter never moved, so the ledger row written above must
		// not survive: a leftover row would block this account's retry
		// after the cap is raised.
		if rowCreated {
			if delErr := s.RedemptionRepo.Delete(ctx, accountID, c.Code); delErr != nil {
				s.Logger.Errorw("failed to roll back redemption row",
					"code", c.Code,
					"account_id", accountID,
					"error", delErr)
			}
		}
		if ierr.IsVersionConflict(err) {
			return dto.InvalidCouponResult(types.CouponValidationErrorCodeUsageLimitReached), nil
		}
		return nil, err
	}

	s.Logger.Infow("redeemed coupon",
		"code", c.Code,
		"account_id", accountID)

	return s.validResult(c, planPrice), nil
}

// validate runs the redemption rule pipeline. It returns a
// non-nil result on business failure, the coupon on success.
func (s *couponValidationService) validate(ctx context.Context, code string, accountID string) (*coupon.Coupon, *dto.CouponValidationResult, error) {
	canonical := coupon.CanonicalCode(code)
	if canonical == "" {
		return nil, dto.InvalidCouponResult(types.CouponValidationErrorCodeNotFound), nil
	}

	c, err := s.CouponRepo.Get(ctx, canonical)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, dto.InvalidCouponResult(types.CouponValidationErrorCodeNotFound), nil
		}
		return nil, nil, err
	}

	if !c.Active {
		return nil, dto.InvalidCouponResult(types.CouponValidationErrorCodeInactive), nil
	}

	if c.IsExpired(time.Now().UTC()) {
		return nil, dto.InvalidCouponResult(types.CouponValidationErrorCodeExpired), nil
	}

	if c.RedemptionLimitReached() {
		return nil, dto.InvalidCouponResult(types.CouponValidationErrorCodeUsageLimitReached), nil
	}

	if c.OneTimePerUser {
		used, err := s.RedemptionRepo.Exists(ctx, accountID, c.Code)
		if err != nil {
			return nil, nil, err
		}
		if used {
			return nil, dto.InvalidCouponResult(types.CouponValidationErrorCodeAlreadyUsed), nil
		}
	}

	return c, nil, nil
}

func (s *couponValidationService) validResult(c *coupon.Coupon, planPrice *decimal.Decimal) *dto.CouponValidationResult {
	result := &dto.CouponValidationResult{
		Valid:    true,
		Code:     c.Code,
		Discount: c.Discount,
		Type:     c.Type,
	}
	if planPrice != nil {
		final := c.ApplyDiscount(*planPrice)
		result.FinalPrice = &final
	}
	return result
}
