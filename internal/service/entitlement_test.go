package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/domain/entitlement"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/testutil"
	"github.com/edumitra/entitlements/internal/types"
)

type EntitlementServiceSuite struct {
	testutil.BaseServiceTestSuite
	service EntitlementService
}

func TestEntitlementService(t *testing.T) {
	suite.Run(t, new(EntitlementServiceSuite))
}

func (s *EntitlementServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewEntitlementService(newTestParams(&s.BaseServiceTestSuite))
}

func (s *EntitlementServiceSuite) repo() *testutil.InMemoryEntitlementStore {
	return s.GetStores().EntitlementRepo.(*testutil.InMemoryEntitlementStore)
}

func (s *EntitlementServiceSuite) TestGetOrCreateCreatesFreeRecord() {
	ent, err := s.service.GetOrCreate(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Equal(types.EntitlementStatusFree, ent.Status)
	s.False(ent.TrialUsed)
	s.Nil(ent.Plan)

	// Second call returns the persisted record, not a new one
	again, err := s.service.GetOrCreate(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Equal(ent.CreatedAt, again.CreatedAt)
}

func (s *EntitlementServiceSuite) TestGetOrCreateRequiresAccountID() {
	_, err := s.service.GetOrCreate(s.GetContext(), "")
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *EntitlementServiceSuite) TestStartTrial() {
	resp, err := s.service.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.NoError(err)

	s.Equal(types.EntitlementStatusTrial, resp.Status)
	s.True(resp.TrialUsed)
	s.True(resp.HasActiveSubscription)
	s.True(resp.IsOnTrial)
	s.False(resp.CanStartTrial)
	s.Equal("jee-2026", *resp.Plan)

	expectedEnd := resp.TrialStartDate.Add(time.Duration(s.GetConfig().Entitlement.TrialDays) * 24 * time.Hour)
	s.Equal(expectedEnd, *resp.TrialEndDate)
	s.Equal(s.GetConfig().Entitlement.TrialDays, resp.TrialDaysRemaining)
}

func (s *EntitlementServiceSuite) TestStartTrialOnlyOnce() {
	_, err := s.service.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.NoError(err)

	_, err = s.service.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EntitlementServiceSuite) TestTrialNotActiveAfterDeadline() {
	_, err := s.service.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.NoError(err)

	// Move the trial window entirely into the past
	ent, err := s.repo().Get(s.GetContext(), "acc_1")
	s.NoError(err)
	start := time.Now().UTC().Add(-8 * 24 * time.Hour)
	end := start.Add(7 * 24 * time.Hour)
	ent.TrialStartDate = &start
	ent.TrialEndDate = &end
	s.NoError(s.repo().Update(s.GetContext(), ent))

	resp := s.service.GetStatus(s.GetContext(), "acc_1")
	s.False(resp.HasActiveSubscription)
	s.False(resp.IsOnTrial)
	s.Equal(0, resp.TrialDaysRemaining)
}

func (s *EntitlementServiceSuite) TestTrialDeadlineInstantIsExclusive() {
	now := time.Now().UTC()
	ent := entitlement.New("acc_1")
	ent.Status = types.EntitlementStatusTrial
	ent.TrialUsed = true
	start := now.Add(-7 * 24 * time.Hour)
	ent.TrialStartDate = &start
	ent.TrialEndDate = &now
	s.NoError(s.repo().Create(s.GetContext(), ent))

	// At the exact deadline instant the trial no longer counts
	s.False(ent.HasActiveSubscription(now))
	s.True(ent.ExpiryDue(now))
}

func (s *EntitlementServiceSuite) TestActivateSubscription() {
	confirmation := &dto.PaymentConfirmation{
		PaymentID: "pay_abc",
		OrderID:   "order_abc",
		Amount:    decimal.NewFromInt(195000),
		Plan:      "neet-2026",
	}

	resp, err := s.service.ActivateSubscription(s.GetContext(), "acc_1", confirmation)
	s.NoError(err)

	s.Equal(types.EntitlementStatusActive, resp.Status)
	s.True(resp.HasActiveSubscription)
	s.Equal("pay_abc", resp.LastPaymentID)
	s.Equal("neet-2026", *resp.Plan)

	expectedEnd := resp.SubscriptionStartDate.Add(time.Duration(s.GetConfig().Entitlement.SubscriptionDays) * 24 * time.Hour)
	s.Equal(expectedEnd, *resp.SubscriptionEndDate)
}

func (s *EntitlementServiceSuite) TestActivateSubscriptionReplayedPaymentIsNoop() {
	confirmation := &dto.PaymentConfirmation{
		PaymentID: "pay_abc",
		Amount:    decimal.NewFromInt(195000),
		Plan:      "neet-2026",
	}

	first, err := s.service.ActivateSubscription(s.GetContext(), "acc_1", confirmation)
	s.NoError(err)
	firstEnd := *first.SubscriptionEndDate

	// Replaying the same payment id must not extend the paid period
	second, err := s.service.ActivateSubscription(s.GetContext(), "acc_1", confirmation)
	s.NoError(err)
	s.Equal(firstEnd, *second.SubscriptionEndDate)
}

func (s *EntitlementServiceSuite) TestActivateSubscriptionFromTrial() {
	_, err := s.service.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.NoError(err)

	resp, err := s.service.ActivateSubscription(s.GetContext(), "acc_1", &dto.PaymentConfirmation{
		PaymentID: "pay_upgrade",
		Amount:    decimal.NewFromInt(195000),
		Plan:      "jee-2026",
	})
	s.NoError(err)
	s.Equal(types.EntitlementStatusActive, resp.Status)
	// The trial flag stays burned through the upgrade
	s.True(resp.TrialUsed)
}

func (s *EntitlementServiceSuite) TestForceExpireRequiresOverdueRecord() {
	_, err := s.service.ActivateSubscription(s.GetContext(), "acc_1", &dto.PaymentConfirmation{
		PaymentID: "pay_abc",
		Amount:    decimal.NewFromInt(195000),
	})
	s.NoError(err)

	err = s.service.ForceExpire(s.GetContext(), "acc_1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// Backdate the subscription window, then expiry is allowed
	ent, err := s.repo().Get(s.GetContext(), "acc_1")
	s.NoError(err)
	end := time.Now().UTC().Add(-time.Hour)
	ent.SubscriptionEndDate = &end
	s.NoError(s.repo().Update(s.GetContext(), ent))

	s.NoError(s.service.ForceExpire(s.GetContext(), "acc_1"))

	ent, err = s.repo().Get(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Equal(types.EntitlementStatusExpired, ent.Status)
}

func (s *EntitlementServiceSuite) TestStartGraceRequiresExpired() {
	_, err := s.service.GetOrCreate(s.GetContext(), "acc_1")
	s.NoError(err)

	_, err = s.service.StartGrace(s.GetContext(), "acc_1", 0)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *EntitlementServiceSuite) TestGraceThenDowngrade() {
	ent := entitlement.New("acc_1")
	ent.Status = types.EntitlementStatusExpired
	plan := "jee-2026"
	ent.Plan = &plan
	s.NoError(s.repo().Create(s.GetContext(), ent))

	resp, err := s.service.StartGrace(s.GetContext(), "acc_1", 0)
	s.NoError(err)
	s.Equal(types.EntitlementStatusGrace, resp.Status)
	s.True(resp.IsInGracePeriod)
	s.Equal(s.GetConfig().Entitlement.GraceDays, resp.DaysUntilDowngrade)

	resp, err = s.service.DowngradeToFree(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Equal(types.EntitlementStatusFree, resp.Status)
	s.Nil(resp.Plan)
	s.Nil(resp.GracePeriodEndDate)
	s.False(resp.IsInGracePeriod)
}

func (s *EntitlementServiceSuite) TestOverrideTrialReArmsEligibility() {
	_, err := s.service.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.NoError(err)

	s.NoError(s.service.OverrideTrial(s.GetContext(), "acc_1"))

	_, err = s.service.StartTrial(s.GetContext(), "acc_1", "neet-2026")
	s.NoError(err)
}

// updateFailingOnceRepo rejects a fixed number of writes, then recovers
type updateFailingOnceRepo struct {
	entitlement.Repository
	failures int
}

func (r *updateFailingOnceRepo) Update(ctx context.Context, ent *entitlement.Entitlement) error {
	if r.failures > 0 {
		r.failures--
		return ierr.NewError("write rejected").
			WithHint("Storage is unavailable").
			Mark(ierr.ErrDatabase)
	}
	return r.Repository.Update(ctx, ent)
}

func (s *EntitlementServiceSuite) TestActivationRetryCompletesAfterFailedWrite() {
	flaky := &updateFailingOnceRepo{Repository: s.GetStores().EntitlementRepo, failures: 1}
	params := newTestParams(&s.BaseServiceTestSuite)
	params.EntitlementRepo = flaky
	svc := NewEntitlementService(params)

	confirmation := &dto.PaymentConfirmation{
		PaymentID: "pay_once",
		Amount:    decimal.NewFromInt(195000),
		Plan:      "jee-2026",
	}

	// The payment record lands but the entitlement write fails
	_, err := svc.ActivateSubscription(s.GetContext(), "acc_1", confirmation)
	s.Error(err)

	ent, err := s.repo().Get(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Equal(types.EntitlementStatusFree, ent.Status)

	// The gateway redelivers the same confirmation; the recorded payment
	// must not block the activation it never completed
	resp, err := svc.ActivateSubscription(s.GetContext(), "acc_1", confirmation)
	s.NoError(err)
	s.Equal(types.EntitlementStatusActive, resp.Status)
	s.Equal("pay_once", resp.LastPaymentID)
	s.NotNil(resp.SubscriptionEndDate)
}

// failingEntitlementRepo simulates a store outage after the first
// successful reads warmed the snapshot cache
type failingEntitlementRepo struct {
	entitlement.Repository
	fail bool
}

func (r *failingEntitlementRepo) Get(ctx context.Context, accountID string) (*entitlement.Entitlement, error) {
	if r.fail {
		return nil, ierr.NewError("store unavailable").
			WithHint("Storage is unavailable").
			Mark(ierr.ErrDatabase)
	}
	return r.Repository.Get(ctx, accountID)
}

func (s *EntitlementServiceSuite) TestGetStatusServesCachedSnapshotDuringOutage() {
	flaky := &failingEntitlementRepo{Repository: s.GetStores().EntitlementRepo}
	params := newTestParams(&s.BaseServiceTestSuite)
	params.EntitlementRepo = flaky
	svc := NewEntitlementService(params)

	_, err := svc.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.NoError(err)

	flaky.fail = true
	resp := svc.GetStatus(s.GetContext(), "acc_1")
	s.True(resp.Degraded)
	s.Equal(types.EntitlementStatusTrial, resp.Status)
	s.True(resp.HasActiveSubscription)
}

func (s *EntitlementServiceSuite) TestGetStatusDegradesToFreeWithoutCache() {
	flaky := &failingEntitlementRepo{Repository: s.GetStores().EntitlementRepo, fail: true}
	params := newTestParams(&s.BaseServiceTestSuite)
	params.EntitlementRepo = flaky
	svc := NewEntitlementService(params)

	resp := svc.GetStatus(s.GetContext(), "acc_unseen")
	s.True(resp.Degraded)
	s.Equal(types.EntitlementStatusFree, resp.Status)
	s.False(resp.HasActiveSubscription)
}
