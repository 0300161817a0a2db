package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/domain/coupon"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/testutil"
	"github.com/edumitra/entitlements/internal/types"
)

type CouponValidationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service CouponValidationService
}

func TestCouponValidationService(t *testing.T) {
	suite.Run(t, new(CouponValidationServiceSuite))
}

func (s *CouponValidationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewCouponValidationService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *CouponValidationServiceSuite) createCoupon(mutate func(c *coupon.Coupon)) *coupon.Coupon {
	now := time.Now().UTC()
	c := &coupon.Coupon{
		Code:           "SAVE50",
		Name:           "Half off",
		Active:         true,
		Discount:       decimal.NewFromInt(50),
		Type:           types.CouponTypePercentage,
		OneTimePerUser: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if mutate != nil {
		mutate(c)
	}
	s.NoError(s.GetStores().CouponRepo.Create(s.GetContext(), c))
	return c
}

func (s *CouponValidationServiceSuite) TestValidateUnknownCode() {
	result, err := s.service.ValidateCoupon(s.GetContext(), "NOPE", "acc_1", nil)
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(types.CouponValidationErrorCodeNotFound, result.Reason)
	s.NotEmpty(result.Message)
}

func (s *CouponValidationServiceSuite) TestValidateCanonicalizesCode() {
	s.createCoupon(nil)

	result, err := s.service.ValidateCoupon(s.GetContext(), "  save50 ", "acc_1", nil)
	s.NoError(err)
	s.True(result.Valid)
	s.Equal("SAVE50", result.Code)
}

func (s *CouponValidationServiceSuite) TestValidateEmptyCode() {
	result, err := s.service.ValidateCoupon(s.GetContext(), "   ", "acc_1", nil)
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(types.CouponValidationErrorCodeNotFound, result.Reason)
}

func (s *CouponValidationServiceSuite) TestFailurePrecedence() {
	past := time.Now().UTC().Add(-time.Hour)
	cap := int64(1)

	// Inactive wins even when the coupon is also expired and capped out
	s.createCoupon(func(c *coupon.Coupon) {
		c.Active = false
		c.ValidUntil = &past
		c.MaxUsageCount = &cap
		c.CurrentUsageCount = 1
	})
	result, err := s.service.ValidateCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.Equal(types.CouponValidationErrorCodeInactive, result.Reason)

	// Active but expired and capped out: expired wins
	s.NoError(s.GetStores().CouponRepo.Delete(s.GetContext(), "SAVE50"))
	s.createCoupon(func(c *coupon.Coupon) {
		c.ValidUntil = &past
		c.MaxUsageCount = &cap
		c.CurrentUsageCount = 1
	})
	result, err = s.service.ValidateCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.Equal(types.CouponValidationErrorCodeExpired, result.Reason)

	// Active and in window but capped out
	s.NoError(s.GetStores().CouponRepo.Delete(s.GetContext(), "SAVE50"))
	s.createCoupon(func(c *coupon.Coupon) {
		c.MaxUsageCount = &cap
		c.CurrentUsageCount = 1
	})
	result, err = s.service.ValidateCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.Equal(types.CouponValidationErrorCodeUsageLimitReached, result.Reason)
}

func (s *CouponValidationServiceSuite) TestValidateDoesNotMutate() {
	s.createCoupon(nil)

	_, err := s.service.ValidateCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)

	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), "SAVE50")
	s.NoError(err)
	s.Equal(int64(0), stored.CurrentUsageCount)

	rows, err := s.GetStores().RedemptionRepo.ListByAccount(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Empty(rows)
}

func (s *CouponValidationServiceSuite) TestRedeemMovesCounterAndLedger() {
	s.createCoupon(nil)

	result, err := s.service.RedeemCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.True(result.Valid)

	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), "SAVE50")
	s.NoError(err)
	s.Equal(int64(1), stored.CurrentUsageCount)

	rows, err := s.GetStores().RedemptionRepo.ListByAccount(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Len(rows, 1)
	s.Equal("SAVE50", rows[0].CouponCode)
}

func (s *CouponValidationServiceSuite) TestRedeemOneTimePerUserIsAtMostOnce() {
	s.createCoupon(nil)

	result, err := s.service.RedeemCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.True(result.Valid)

	result, err = s.service.RedeemCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(types.CouponValidationErrorCodeAlreadyUsed, result.Reason)

	// The counter moved exactly once
	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), "SAVE50")
	s.NoError(err)
	s.Equal(int64(1), stored.CurrentUsageCount)
}

func (s *CouponValidationServiceSuite) TestRedeemGlobalCapNeverOvershoots() {
	cap := int64(3)
	s.createCoupon(func(c *coupon.Coupon) {
		c.MaxUsageCount = &cap
	})

	valid := 0
	for i := 0; i < 4; i++ {
		account := fmt.Sprintf("acc_%d", i)
		result, err := s.service.RedeemCoupon(s.GetContext(), "SAVE50", account, nil)
		s.NoError(err)
		if result.Valid {
			valid++
		} else {
			s.Equal(types.CouponValidationErrorCodeUsageLimitReached, result.Reason)
		}
	}

	s.Equal(3, valid)
	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), "SAVE50")
	s.NoError(err)
	s.Equal(cap, stored.CurrentUsageCount)
}

// conflictingCouponRepo loses every counter race, as if another
// redeemer always claims the last slot first
type conflictingCouponRepo struct {
	coupon.Repository
}

func (r *conflictingCouponRepo) IncrementUsage(ctx context.Context, code string) error {
	return ierr.NewError("usage count conflict").
		WithHint("The coupon usage limit was reached").
		Mark(ierr.ErrVersionConflict)
}

func (s *CouponValidationServiceSuite) TestRedeemRollsBackLedgerRowOnCounterConflict() {
	s.createCoupon(nil)

	params := newTestParams(&s.BaseServiceTestSuite)
	params.CouponRepo = &conflictingCouponRepo{Repository: s.GetStores().CouponRepo}
	contended := NewCouponValidationService(params)

	result, err := contended.RedeemCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.False(result.Valid)
	s.Equal(types.CouponValidationErrorCodeUsageLimitReached, result.Reason)

	// The losing attempt must leave no trace in the ledger
	rows, err := s.GetStores().RedemptionRepo.ListByAccount(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Empty(rows)

	// Once the counter stops conflicting the same account can redeem
	result, err = s.service.RedeemCoupon(s.GetContext(), "SAVE50", "acc_1", nil)
	s.NoError(err)
	s.True(result.Valid)
}

func (s *CouponValidationServiceSuite) TestRedeemConcurrentGlobalCap() {
	cap := int64(3)
	s.createCoupon(func(c *coupon.Coupon) {
		c.MaxUsageCount = &cap
	})

	const redeemers = 4
	results := make([]*dto.CouponValidationResult, redeemers)
	errs := make([]error, redeemers)

	var wg sync.WaitGroup
	for i := 0; i < redeemers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account := fmt.Sprintf("acc_%d", i)
			results[i], errs[i] = s.service.RedeemCoupon(s.GetContext(), "SAVE50", account, nil)
		}(i)
	}
	wg.Wait()

	valid := 0
	for i := 0; i < redeemers; i++ {
		s.NoError(errs[i])
		if results[i].Valid {
			valid++
		} else {
			s.Equal(types.CouponValidationErrorCodeUsageLimitReached, results[i].Reason)
		}
	}
	s.Equal(3, valid)

	stored, err := s.GetStores().CouponRepo.Get(s.GetContext(), "SAVE50")
	s.NoError(err)
	s.Equal(cap, stored.CurrentUsageCount)
}

func (s *CouponValidationServiceSuite) TestPercentageDiscountPrice() {
	s.createCoupon(func(c *coupon.Coupon) {
		c.Code = "FREE100"
		c.Discount = decimal.NewFromInt(100)
	})

	price := decimal.NewFromInt(1950)
	result, err := s.service.ValidateCoupon(s.GetContext(), "FREE100", "acc_1", &price)
	s.NoError(err)
	s.True(result.Valid)
	s.True(result.FinalPrice.IsZero())
}

func (s *CouponValidationServiceSuite) TestFlatDiscountFloorsAtZero() {
	s.createCoupon(func(c *coupon.Coupon) {
		c.Code = "FLAT500"
		c.Type = types.CouponTypeFlat
		c.Discount = decimal.NewFromInt(500)
	})

	price := decimal.NewFromInt(300)
	result, err := s.service.ValidateCoupon(s.GetContext(), "FLAT500", "acc_1", &price)
	s.NoError(err)
	s.True(result.Valid)
	s.True(result.FinalPrice.IsZero())

	price = decimal.NewFromInt(1950)
	result, err = s.service.ValidateCoupon(s.GetContext(), "FLAT500", "acc_1", &price)
	s.NoError(err)
	s.True(result.FinalPrice.Equal(decimal.NewFromInt(1450)))
}
