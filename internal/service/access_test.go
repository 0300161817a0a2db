package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/edumitra/entitlements/internal/domain/usage"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/testutil"
	"github.com/edumitra/entitlements/internal/types"
)

type FeatureAccessServiceSuite struct {
	testutil.BaseServiceTestSuite
	service      FeatureAccessService
	entitlements EntitlementService
}

func TestFeatureAccessService(t *testing.T) {
	suite.Run(t, new(FeatureAccessServiceSuite))
}

func (s *FeatureAccessServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.entitlements = NewEntitlementService(params)
	s.service = NewFeatureAccessService(params, s.entitlements)
}

func (s *FeatureAccessServiceSuite) subscribe(accountID string) {
	_, err := s.entitlements.StartTrial(s.GetContext(), accountID, "jee-2026")
	s.NoError(err)
}

func (s *FeatureAccessServiceSuite) TestUnknownFeatureDeniedEverywhere() {
	resp := s.service.CanAccessFeature(s.GetContext(), "acc_1", "teleportation")
	s.False(resp.Allowed)
	s.Equal("not_included", resp.Reason)

	resp = s.service.CanUseFeatureNow(s.GetContext(), "acc_1", "teleportation")
	s.False(resp.Allowed)
	s.Equal("not_included", resp.Reason)
}

func (s *FeatureAccessServiceSuite) TestSubscriberAccessesEverything() {
	s.subscribe("acc_1")

	for _, feature := range []types.FeatureCode{
		types.FeatureSyllabus,
		types.FeatureMockTests,
		types.FeatureAIQuestion,
	} {
		resp := s.service.CanAccessFeature(s.GetContext(), "acc_1", feature)
		s.True(resp.Allowed, "feature %s", feature)
		s.Equal("subscription", resp.Reason)
	}
}

func (s *FeatureAccessServiceSuite) TestFreeTierAllowList() {
	resp := s.service.CanAccessFeature(s.GetContext(), "acc_1", types.FeatureSyllabus)
	s.True(resp.Allowed)
	s.Equal("free_tier", resp.Reason)

	resp = s.service.CanAccessFeature(s.GetContext(), "acc_1", types.FeatureMockTests)
	s.False(resp.Allowed)
	s.Equal("not_included", resp.Reason)
}

func (s *FeatureAccessServiceSuite) TestSubscriberSkipsQuota() {
	s.subscribe("acc_1")

	resp := s.service.CanUseFeatureNow(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.True(resp.Allowed)
	s.Equal("subscription", resp.Reason)

	usage, err := s.service.Remaining(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.NoError(err)
	s.True(usage.Unlimited)
	s.Equal(types.UnlimitedUsage, usage.Remaining)
}

func (s *FeatureAccessServiceSuite) TestQuotaExhaustion() {
	limit := s.GetConfig().Entitlement.AIQuestionDailyLimit

	for i := int64(0); i < limit; i++ {
		resp := s.service.CanUseFeatureNow(s.GetContext(), "acc_1", types.FeatureAIQuestion)
		s.True(resp.Allowed, "use %d of %d", i+1, limit)
		s.Equal("quota_available", resp.Reason)
		s.NoError(s.service.RecordUsage(s.GetContext(), "acc_1", types.FeatureAIQuestion))
	}

	resp := s.service.CanUseFeatureNow(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.False(resp.Allowed)
	s.Equal("quota_exhausted", resp.Reason)

	usage, err := s.service.Remaining(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.NoError(err)
	s.Equal(limit, usage.UsedToday)
	s.Equal(int64(0), usage.Remaining)
}

func (s *FeatureAccessServiceSuite) TestQuotasAreIndependent() {
	limit := s.GetConfig().Entitlement.AIQuestionDailyLimit
	for i := int64(0); i < limit; i++ {
		s.NoError(s.service.RecordUsage(s.GetContext(), "acc_1", types.FeatureAIQuestion))
	}

	resp := s.service.CanUseFeatureNow(s.GetContext(), "acc_1", types.FeaturePracticeQuestion)
	s.True(resp.Allowed)
	s.Equal("quota_available", resp.Reason)
}

func (s *FeatureAccessServiceSuite) TestCalendarDayRollover() {
	stores := s.GetStores()
	yesterday := time.Now().UTC().Add(-24 * time.Hour)

	record := usage.New("acc_1", yesterday)
	record.AIQuestionsToday = s.GetConfig().Entitlement.AIQuestionDailyLimit
	s.NoError(stores.UsageRepo.Save(s.GetContext(), record))

	// Yesterday's exhausted counters do not block today
	resp := s.service.CanUseFeatureNow(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.True(resp.Allowed)
	s.Equal("quota_available", resp.Reason)

	usage, err := s.service.Remaining(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.NoError(err)
	s.Equal(int64(0), usage.UsedToday)

	// First recorded use of the new day resets then counts
	s.NoError(s.service.RecordUsage(s.GetContext(), "acc_1", types.FeatureAIQuestion))
	usage, err = s.service.Remaining(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.NoError(err)
	s.Equal(int64(1), usage.UsedToday)
}

func (s *FeatureAccessServiceSuite) TestRemainingReadDoesNotPersistReset() {
	stores := s.GetStores()
	yesterday := time.Now().UTC().Add(-24 * time.Hour)

	record := usage.New("acc_1", yesterday)
	record.AIQuestionsToday = 3
	s.NoError(stores.UsageRepo.Save(s.GetContext(), record))

	_, err := s.service.Remaining(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.NoError(err)

	stored, err := stores.UsageRepo.Get(s.GetContext(), "acc_1")
	s.NoError(err)
	s.Equal(types.CalendarDate(yesterday), stored.LastResetDate)
	s.Equal(int64(3), stored.AIQuestionsToday)
}

func (s *FeatureAccessServiceSuite) TestNonMeteredFeatureHasNoUsage() {
	_, err := s.service.Remaining(s.GetContext(), "acc_1", types.FeatureSyllabus)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	err = s.service.RecordUsage(s.GetContext(), "acc_1", types.FeatureSyllabus)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
