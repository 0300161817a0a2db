package service

import (
	"github.com/edumitra/entitlements/internal/checkout"
	"github.com/edumitra/entitlements/internal/config"
	"github.com/edumitra/entitlements/internal/domain/coupon"
	"github.com/edumitra/entitlements/internal/domain/entitlement"
	"github.com/edumitra/entitlements/internal/domain/payment"
	"github.com/edumitra/entitlements/internal/domain/redemption"
	"github.com/edumitra/entitlements/internal/domain/usage"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/tutor"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration

	// Repositories
	EntitlementRepo entitlement.Repository
	UsageRepo       usage.Repository
	CouponRepo      coupon.Repository
	RedemptionRepo  redemption.Repository
	PaymentRepo     payment.Repository

	// Collaborators
	Checkout checkout.Client
	Tutor    tutor.Client
}

// NewServiceParams assembles the common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	entitlementRepo entitlement.Repository,
	usageRepo usage.Repository,
	couponRepo coupon.Repository,
	redemptionRepo redemption.Repository,
	paymentRepo payment.Repository,
	checkoutClient checkout.Client,
	tutorClient tutor.Client,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		EntitlementRepo: entitlementRepo,
		UsageRepo:       usageRepo,
		CouponRepo:      couponRepo,
		RedemptionRepo:  redemptionRepo,
		PaymentRepo:     paymentRepo,
		Checkout:        checkoutClient,
		Tutor:           tutorClient,
	}
}
