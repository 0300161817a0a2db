package service

import (
	"testing"

	"github.com/stretchr/testify/suite"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/testutil"
	"github.com/edumitra/entitlements/internal/types"
)

type TutorServiceSuite struct {
	testutil.BaseServiceTestSuite
	service      TutorService
	access       FeatureAccessService
	entitlements EntitlementService
}

func TestTutorService(t *testing.T) {
	suite.Run(t, new(TutorServiceSuite))
}

func (s *TutorServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	params := newTestParams(&s.BaseServiceTestSuite)
	s.entitlements = NewEntitlementService(params)
	s.access = NewFeatureAccessService(params, s.entitlements)
	s.service = NewTutorService(params, s.access)
}

func (s *TutorServiceSuite) TestAskRequiresText() {
	_, err := s.service.Ask(s.GetContext(), "acc_1", "", nil, "")
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal(0, s.GetTutor().Calls)
}

func (s *TutorServiceSuite) TestFreeAccountExhaustsDailyQuota() {
	limit := s.GetConfig().Entitlement.AIQuestionDailyLimit

	for i := int64(0); i < limit; i++ {
		answer, err := s.service.Ask(s.GetContext(), "acc_1", "what is torque", nil, "")
		s.NoError(err, "question %d of %d", i+1, limit)
		s.Equal("test answer", answer)
	}

	_, err := s.service.Ask(s.GetContext(), "acc_1", "one more", nil, "")
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
	s.Equal(int(limit), s.GetTutor().Calls)
}

func (s *TutorServiceSuite) TestSubscriberIsUnmetered() {
	_, err := s.entitlements.StartTrial(s.GetContext(), "acc_1", "jee-2026")
	s.NoError(err)

	limit := s.GetConfig().Entitlement.AIQuestionDailyLimit
	for i := int64(0); i < limit+2; i++ {
		_, err := s.service.Ask(s.GetContext(), "acc_1", "what is torque", nil, "")
		s.NoError(err)
	}

	// No usage is recorded for subscribed accounts
	_, err = s.GetStores().UsageRepo.Get(s.GetContext(), "acc_1")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *TutorServiceSuite) TestTutorFailureDoesNotRefundQuota() {
	s.GetTutor().Fail = true

	_, err := s.service.Ask(s.GetContext(), "acc_1", "what is torque", nil, "")
	s.Error(err)

	// The question was counted before the call went out
	usage, err := s.access.Remaining(s.GetContext(), "acc_1", types.FeatureAIQuestion)
	s.NoError(err)
	s.Equal(int64(1), usage.UsedToday)
}
