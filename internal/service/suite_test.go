package service

import (
	"github.com/edumitra/entitlements/internal/testutil"
)

// newTestParams assembles ServiceParams from the suite's in-memory stores
// and mock collaborators
func newTestParams(s *testutil.BaseServiceTestSuite) ServiceParams {
	stores := s.GetStores()
	return ServiceParams{
		Logger:          s.GetLogger(),
		Config:          s.GetConfig(),
		EntitlementRepo: stores.EntitlementRepo,
		UsageRepo:       stores.UsageRepo,
		CouponRepo:      stores.CouponRepo,
		RedemptionRepo:  stores.RedemptionRepo,
		PaymentRepo:     stores.PaymentRepo,
		Checkout:        s.GetCheckout(),
		Tutor:           s.GetTutor(),
	}
}
