package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/edumitra/entitlements/internal/domain/entitlement"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

// StartTrialRequest represents the request to start a free trial
type StartTrialRequest struct {
	Plan string `json:"plan" validate:"required"`
}

func (r *StartTrialRequest) Validate() error {
	if r.Plan == "" {
		return ierr.NewError("plan is required").
			WithHint("Please choose a plan for the trial").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// StartGraceRequest represents the administrative request to move an
// expired account into a grace period
type StartGraceRequest struct {
	// Days overrides the configured grace window length when positive
	Days int `json:"days"`
}

// EntitlementResponse is the point-in-time snapshot of an account's
// entitlement state served to the client
type EntitlementResponse struct {
	*entitlement.Entitlement

	// Derived fields, evaluated at snapshot time
	HasActiveSubscription     bool `json:"has_active_subscription"`
	IsOnTrial                 bool `json:"is_on_trial"`
	CanStartTrial             bool `json:"can_start_trial"`
	TrialDaysRemaining        int  `json:"trial_days_remaining"`
	SubscriptionDaysRemaining int  `json:"subscription_days_remaining"`
	IsInGracePeriod           bool `json:"is_in_grace_period"`
	DaysUntilDowngrade        int  `json:"days_until_downgrade"`

	// Degraded is set when the snapshot came from the fallback cache
	// because the store was unavailable
	Degraded bool `json:"degraded,omitempty"`
}

// NewEntitlementResponse evaluates the read predicates at the given instant
func NewEntitlementResponse(e *entitlement.Entitlement, now time.Time) *EntitlementResponse {
	return &EntitlementResponse{
		Entitlement:               e,
		HasActiveSubscription:     e.HasActiveSubscription(now),
		IsOnTrial:                 e.IsOnTrial(now),
		CanStartTrial:             e.CanStartTrial(),
		TrialDaysRemaining:        e.TrialDaysRemaining(now),
		SubscriptionDaysRemaining: e.SubscriptionDaysRemaining(now),
		IsInGracePeriod:           e.IsInGracePeriod(now),
		DaysUntilDowngrade:        e.DaysUntilDowngrade(now),
	}
}

// DegradedEntitlementResponse is the most restrictive snapshot, served
// when the store is unreachable and no cached state exists
func DegradedEntitlementResponse(accountID string) *EntitlementResponse {
	resp := NewEntitlementResponse(entitlement.New(accountID), time.Now().UTC())
	resp.Degraded = true
	return resp
}

// PaymentConfirmation is the verified gateway confirmation consumed by
// subscription activation
type PaymentConfirmation struct {
	PaymentID string          `json:"payment_id" validate:"required"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Plan      string          `json:"plan"`
}

func (p *PaymentConfirmation) Validate() error {
	if p.PaymentID == "" {
		return ierr.NewError("payment_id is required").
			WithHint("Missing payment reference").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SweepResult summarises one expiry sweeper run
type SweepResult struct {
	Scanned   int       `json:"scanned"`
	Expired   int       `json:"expired"`
	Failed    int       `json:"failed"`
	SweptAt   time.Time `json:"swept_at"`
	SweptOver string    `json:"swept_over,omitempty"`
}
