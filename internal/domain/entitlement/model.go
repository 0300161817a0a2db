package entitlement

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// Entitlement is the persisted subscription state for one account. It is
// created as free on first registration and never hard-deleted; the
// payment audit fields always describe the most recent capture.
type Entitlement struct {
	AccountID string                  `json:"account_id"`
	Status    types.EntitlementStatus `json:"status"`
	Plan      *string                 `json:"plan"`

	// TrialUsed is set permanently once a trial starts; a trial never
	// restarts without an administrative override.
	TrialUsed      bool       `json:"trial_used"`
	TrialStartDate *time.Time `json:"trial_start_date"`
	TrialEndDate   *time.Time `json:"trial_end_date"`

	SubscriptionStartDate *time.Time `json:"subscription_start_date"`
	SubscriptionEndDate   *time.Time `json:"subscription_end_date"`
	GracePeriodEndDate    *time.Time `json:"grace_period_end_date"`

	AutoRenew bool `json:"auto_renew"`

	LastPaymentID     string          `json:"last_payment_id"`
	LastPaymentAmount decimal.Decimal `json:"last_payment_amount"`
	LastPaymentDate   *time.Time      `json:"last_payment_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a fresh free-tier entitlement for an account
func New(accountID string) *Entitlement {
	now := time.Now().UTC()
	return &Entitlement{
		AccountID: accountID,
		Status:    types.EntitlementStatusFree,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate performs validation on the entitlement record
func (e *Entitlement) Validate() error {
	if e.AccountID == "" {
		return ierr.NewError("account_id is required").
			WithHint("Please provide a valid account ID").
			Mark(ierr.ErrValidation)
	}
	if err := e.Status.Validate(); err != nil {
		return err
	}
	if e.TrialStartDate != nil && e.TrialEndDate != nil && e.TrialEndDate.Before(*e.TrialStartDate) {
		return ierr.NewError("trial end date before trial start date").
			WithHint("Invalid trial window").
			WithReportableDetails(map[string]any{
				"trial_start_date": e.TrialStartDate,
				"trial_end_date":   e.TrialEndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	if e.SubscriptionStartDate != nil && e.SubscriptionEndDate != nil && e.SubscriptionEndDate.Before(*e.SubscriptionStartDate) {
		return ierr.NewError("subscription end date before subscription start date").
			WithHint("Invalid subscription window").
			WithReportableDetails(map[string]any{
				"subscription_start_date": e.SubscriptionStartDate,
				"subscription_end_date":   e.SubscriptionEndDate,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanStartTrial reports whether the account is still eligible for a trial
func (e *Entitlement) CanStartTrial() bool {
	return !e.TrialUsed
}

// IsOnTrial reports whether the account is on a trial that has not yet
// reached its deadline
func (e *Entitlement) IsOnTrial(now time.Time) bool {
	if e.Status != types.EntitlementStatusTrial || e.TrialEndDate == nil {
		return false
	}
	return now.Before(*e.TrialEndDate)
}

// HasTrialExpired reports whether a started trial has passed its deadline
func (e *Entitlement) HasTrialExpired(now time.Time) bool {
	if !e.TrialUsed || e.TrialEndDate == nil {
		return false
	}
	return !now.Before(*e.TrialEndDate)
}

// HasActiveSubscription reports whether the account currently holds an
// active entitlement. A trial counts until its exact deadline instant;
// at now == trialEndDate the entitlement is gone.
func (e *Entitlement) HasActiveSubscription(now time.Time) bool {
	if e.Status == types.EntitlementStatusActive {
		return true
	}
	return e.IsOnTrial(now)
}

// IsInGracePeriod reports whether an expired account is inside its
// administrative grace window
func (e *Entitlement) IsInGracePeriod(now time.Time) bool {
	if e.Status != types.EntitlementStatusGrace && e.Status != types.EntitlementStatusExpired {
		return false
	}
	if e.GracePeriodEndDate == nil {
		return false
	}
	return now.Before(*e.GracePeriodEndDate)
}

// DaysUntilDowngrade returns the whole days left in the grace window,
// zero when the account is not in one
func (e *Entitlement) DaysUntilDowngrade(now time.Time) int {
	if !e.IsInGracePeriod(now) {
		return 0
	}
	return types.DaysUntil(now, *e.GracePeriodEndDate)
}

// TrialDaysRemaining returns the whole days left on a running trial
func (e *Entitlement) TrialDaysRemaining(now time.Time) int {
	if !e.IsOnTrial(now) {
		return 0
	}
	return types.DaysUntil(now, *e.TrialEndDate)
}

// SubscriptionDaysRemaining returns the whole days left on a paid period
func (e *Entitlement) SubscriptionDaysRemaining(now time.Time) int {
	if e.Status != types.EntitlementStatusActive || e.SubscriptionEndDate == nil {
		return 0
	}
	return types.DaysUntil(now, *e.SubscriptionEndDate)
}

// ExpiryDue reports whether the sweeper should force this record to
// expired: a trial or active status whose relevant end date has passed.
// Expiry comparisons are exact-instant, not calendar-day.
func (e *Entitlement) ExpiryDue(now time.Time) bool {
	switch e.Status {
	case types.EntitlementStatusTrial:
		return e.TrialEndDate != nil && !now.Before(*e.TrialEndDate)
	case types.EntitlementStatusActive:
		return e.SubscriptionEndDate != nil && !now.Before(*e.SubscriptionEndDate)
	default:
		return false
	}
}
