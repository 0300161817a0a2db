package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/domain/coupon"
	"github.com/edumitra/entitlements/internal/domain/entitlement"
	"github.com/edumitra/entitlements/internal/domain/payment"
	"github.com/edumitra/entitlements/internal/domain/redemption"
	"github.com/edumitra/entitlements/internal/domain/usage"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/types"
	"github.com/edumitra/entitlements/internal/validator"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	EntitlementRepo entitlement.Repository
	UsageRepo       usage.Repository
	CouponRepo      coupon.Repository
	RedemptionRepo  redemption.Repository
	PaymentRepo     payment.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	stores   Stores
	checkout *MockCheckoutClient
	tutor    *MockTutorClient
	logger   *logger.Logger
	config   *config.Configuration
	now      time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()

	var err error
	s.logger, err = logger.NewLogger(s.config)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = context.Background()
	s.ctx = context.WithValue(s.ctx, types.CtxRequestID, types.GenerateUUID())
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		EntitlementRepo: NewInMemoryEntitlementStore(),
		UsageRepo:       NewInMemoryUsageStore(),
		CouponRepo:      NewInMemoryCouponStore(),
		RedemptionRepo:  NewInMemoryRedemptionStore(),
		PaymentRepo:     NewInMemoryPaymentStore(),
	}
	s.checkout = NewMockCheckoutClient()
	s.tutor = NewMockTutorClient()
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.EntitlementRepo.(*InMemoryEntitlementStore).Clear()
	s.stores.UsageRepo.(*InMemoryUsageStore).Clear()
	s.stores.CouponRepo.(*InMemoryCouponStore).Clear()
	s.stores.RedemptionRepo.(*InMemoryRedemptionStore).Clear()
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
}

// ClearStores wipes every in-memory store
func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetCheckout returns the mock gateway client
func (s *BaseServiceTestSuite) GetCheckout() *MockCheckoutClient {
	return s.checkout
}

// GetTutor returns the mock tutor client
func (s *BaseServiceTestSuite) GetTutor() *MockTutorClient {
	return s.tutor
}

// GetNow returns the current test time in UTC
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now
}
