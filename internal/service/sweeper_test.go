package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/edumitra/entitlements/internal/domain/entitlement"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/testutil"
	"github.com/edumitra/entitlements/internal/types"
)

type SweeperServiceSuite struct {
	testutil.BaseServiceTestSuite
	service      SweeperService
	entitlements EntitlementService
}

func TestSweeperService(t *testing.T) {
	suite.Run(t, new(SweeperServiceSuite))
}

func (s *SweeperServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.entitlements = NewEntitlementService(params)
	s.service = NewSweeperService(params, s.entitlements)
}

func (s *SweeperServiceSuite) seedTrial(accountID string, end time.Time) {
	ent := entitlement.New(accountID)
	ent.Status = types.EntitlementStatusTrial
	ent.TrialUsed = true
	start := end.Add(-7 * 24 * time.Hour)
	ent.TrialStartDate = &start
	ent.TrialEndDate = &end
	s.NoError(s.GetStores().EntitlementRepo.Create(s.GetContext(), ent))
}

func (s *SweeperServiceSuite) seedActive(accountID string, end time.Time) {
	ent := entitlement.New(accountID)
	ent.Status = types.EntitlementStatusActive
	start := end.Add(-30 * 24 * time.Hour)
	ent.SubscriptionStartDate = &start
	ent.SubscriptionEndDate = &end
	s.NoError(s.GetStores().EntitlementRepo.Create(s.GetContext(), ent))
}

func (s *SweeperServiceSuite) TestSweepExpiresOverdueRecords() {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	s.seedTrial("acc_trial", past)
	s.seedActive("acc_active", past)
	s.seedActive("acc_mixed", past)
	s.seedTrial("acc_running", future)
	s.NoError(s.GetStores().EntitlementRepo.Create(s.GetContext(), entitlement.New("acc_free")))

	result, err := s.service.SweepExpired(s.GetContext())
	s.NoError(err)

	s.Equal(3, result.Scanned)
	s.Equal(3, result.Expired)
	s.Equal(0, result.Failed)

	for _, accountID := range []string{"acc_trial", "acc_active", "acc_mixed"} {
		ent, err := s.GetStores().EntitlementRepo.Get(s.GetContext(), accountID)
		s.NoError(err)
		s.Equal(types.EntitlementStatusExpired, ent.Status, "account %s", accountID)
	}

	// Untouched records keep their state
	ent, err := s.GetStores().EntitlementRepo.Get(s.GetContext(), "acc_running")
	s.NoError(err)
	s.Equal(types.EntitlementStatusTrial, ent.Status)

	ent, err = s.GetStores().EntitlementRepo.Get(s.GetContext(), "acc_free")
	s.NoError(err)
	s.Equal(types.EntitlementStatusFree, ent.Status)
}

func (s *SweeperServiceSuite) TestSweepEmptyStore() {
	result, err := s.service.SweepExpired(s.GetContext())
	s.NoError(err)
	s.Equal(0, result.Scanned)
	s.Equal(0, result.Expired)
	s.Equal(0, result.Failed)
}

// updateFailingRepo rejects writes for one account to exercise the
// sweeper's per-record failure tolerance
type updateFailingRepo struct {
	entitlement.Repository
	failFor string
}

func (r *updateFailingRepo) Update(ctx context.Context, ent *entitlement.Entitlement) error {
	if ent.AccountID == r.failFor {
		return ierr.NewError("write rejected").
			WithHint("Storage is unavailable").
			Mark(ierr.ErrDatabase)
	}
	return r.Repository.Update(ctx, ent)
}

func (s *SweeperServiceSuite) TestSweepToleratesPerRecordFailures() {
	past := time.Now().UTC().Add(-time.Hour)
	s.seedTrial("acc_ok", past)
	s.seedTrial("acc_broken", past)
	s.seedActive("acc_also_ok", past)

	flaky := &updateFailingRepo{Repository: s.GetStores().EntitlementRepo, failFor: "acc_broken"}
	params := newTestParams(&s.BaseServiceTestSuite)
	params.EntitlementRepo = flaky
	entitlements := NewEntitlementService(params)
	sweeper := NewSweeperService(params, entitlements)

	result, err := sweeper.SweepExpired(s.GetContext())
	s.NoError(err)

	s.Equal(3, result.Scanned)
	s.Equal(2, result.Expired)
	s.Equal(1, result.Failed)

	ent, err := s.GetStores().EntitlementRepo.Get(s.GetContext(), "acc_broken")
	s.NoError(err)
	s.Equal(types.EntitlementStatusTrial, ent.Status)
}
