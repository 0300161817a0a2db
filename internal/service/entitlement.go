package service

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/domain/entitlement"
	"github.com/edumitra/entitlements/internal/domain/payment"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// EntitlementService owns every transition of the subscription state
// machine. Reads never fail towards the caller: when the store is down a
// cached snapshot is served, and failing that the most restrictive free
// interpretation.
type EntitlementService interface {
	GetOrCreate(ctx context.Context, accountID string) (*entitlement.Entitlement, error)
	GetStatus(ctx context.Context, accountID string) *dto.EntitlementResponse

	StartTrial(ctx context.Context, accountID string, plan string) (*dto.EntitlementResponse, error)
	ActivateSubscription(ctx context.Context, accountID string, confirmation *dto.PaymentConfirmation) (*dto.EntitlementResponse, error)
	ForceExpire(ctx context.Context, accountID string) error

	// Administrative transitions
	StartGrace(ctx context.Context, accountID string, days int) (*dto.EntitlementResponse, error)
	DowngradeToFree(ctx context.Context, accountID string) (*dto.EntitlementResponse, error)
	OverrideTrial(ctx context.Context, accountID string) error
}

type entitlementService struct {
	ServiceParams
	snapshots *gocache.Cache
}

// NewEntitlementService creates a new entitlement service
func NewEntitlementService(params ServiceParams) EntitlementService {
	ttl := params.Config.Entitlement.CacheTTL
	return &entitlementService{
		ServiceParams: params,
		snapshots:     gocache.New(ttl, 2*ttl),
	}
}

// GetOrCreate returns the account's record, creating a free one the first
// time the account is seen
func (s *entitlementService) GetOrCreate(ctx context.Context, accountID string) (*entitlement.Entitlement, error) {
	if accountID == "" {
		return nil, ierr.NewError("account_id is required").
			WithHint("Please provide a valid account ID").
			Mark(ierr.ErrValidation)
	}

	ent, err := s.EntitlementRepo.Get(ctx, accountID)
	if err == nil {
		s.cacheSnapshot(ent)
		return ent, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	ent = entitlement.New(accountID)
	if err := s.EntitlementRepo.Create(ctx, ent); err != nil {
		// A concurrent registration may have won the create; re-read.
		if ierr.IsAlreadyExists(err) {
			return s.EntitlementRepo.Get(ctx, accountID)
		}
		return nil, err
	}

	s.Logger.Infow("created free entitlement record", "account_id", accountID)
	s.cacheSnapshot(ent)
	return ent, nil
}

// GetStatus returns the entitlement snapshot without ever failing: store
// errors degrade to the cached copy, then to the free interpretation.
func (s *entitlementService) GetStatus(ctx context.Context, accountID string) *dto.EntitlementResponse {
	now := time.Now().UTC()

	ent, err := s.GetOrCreate(ctx, accountID)
	if err == nil {
		return dto.NewEntitlementResponse(ent, now)
	}

	s.Logger.Errorw("entitlement read failed, serving degraded snapshot",
		"account_id", accountID,
		"error", err)

	if cached, ok := s.snapshots.Get(accountID); ok {
		resp := dto.NewEntitlementResponse(cached.(*entitlement.Entitlement), now)
		resp.Degraded = true
		return resp
	}

	return dto.DegradedEntitlementResponse(accountID)
}

// StartTrial begins the one-and-only free trial for an account
func (s *entitlementService) StartTrial(ctx context.Context, accountID string, plan string) (*dto.EntitlementResponse, error) {
	ent, err := s.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if !ent.CanStartTrial() {
		return nil, ierr.NewError("trial already used").
			WithHint("Free trial has already been used").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	end := now.Add(time.Duration(s.Config.Entitlement.TrialDays) * 24 * time.Hour)

	ent.Status = types.EntitlementStatusTrial
	ent.Plan = &plan
	ent.TrialUsed = true
	ent.TrialStartDate = &now
	ent.TrialEndDate = &end
	ent.UpdatedAt = now

	if err := ent.Validate(); err != nil {
		return nil, err
	}
	if err := s.EntitlementRepo.Update(ctx, ent); err != nil {
		return nil, err
	}

	s.Logger.Infow("started trial",
		"account_id", accountID,
		"plan", plan,
		"trial_end_date", end)

	s.cacheSnapshot(ent)
	return dto.NewEntitlementResponse(ent, now), nil
}

// ActivateSubscription transitions the account to active off a verified
// payment confirmation. Replaying the same payment id is a no-op: the
// paid period is never extended twice for one capture.
func (s *entitlementService) ActivateSubscription(ctx context.Context, accountID string, confirmation *dto.PaymentConfirmation) (*dto.EntitlementResponse, error) {
	if err := confirmation.Validate(); err != nil {
		return nil, err
	}

	ent, err := s.GetOrCreate(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Idempotency guard: the payment audit record is created exactly
	// once per gateway payment id. An existing record only short-circuits
	// when the entitlement already reflects this payment; otherwise a
	// prior attempt wrote the record but failed before the entitlement
	// update landed, and this retry must finish the activation.
	if err := s.recordPayment(ctx, accountID, confirmation, now); err != nil {
		if !ierr.IsAlreadyExists(err) {
			return nil, err
		}
		if ent.LastPaymentID == confirmation.PaymentID {
			s.Logger.Warnw("replayed payment confirmation ignored",
				"account_id", accountID,
				"payment_id", confirmation.PaymentID)
			return dto.NewEntitlementResponse(ent, now), nil
		}
		s.Logger.Warnw("completing activation for previously recorded payment",
			"account_id", accountID,
			"payment_id", confirmation.PaymentID)
	}

	end := now.Add(time.Duration(s.Config.Entitlement.SubscriptionDays) * 24 * time.Hour)

	ent.Status = types.EntitlementStatusActive
	if confirmation.Plan != "" {
		plan := confirmation.Plan
		ent.Plan = &plan
	}
	ent.SubscriptionStartDate = &now
	ent.SubscriptionEndDate = &end
	ent.GracePeriodEndDate = nil
	ent.LastPaymentID = confirmation.PaymentID
	ent.LastPaymentAmount = confirmation.Amount
	ent.LastPaymentDate = &now
	ent.UpdatedAt = now

	if err := ent.Validate(); err != nil {
		return nil, err
	}
	if err := s.EntitlementRepo.Update(ctx, ent); err != nil {
		return nil, err
	}

	s.Logger.Infow("activated subscription",
		"account_id", accountID,
		"payment_id", confirmation.PaymentID,
		"subscription_end_date", end)

	s.cacheSnapshot(ent)
	return dto.NewEntitlementResponse(ent, now), nil
}

// ForceExpire moves a trial or active record whose end date has passed to
// expired. Sweeper-only; a record that is not due is left untouched.
func (s *entitlementService) ForceExpire(ctx context.Context, accountID string) error {
	ent, err := s.EntitlementRepo.Get(ctx, accountID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if !ent.ExpiryDue(now) {
		return ierr.NewError("entitlement is not due for expiry").
			WithHint("Only overdue trial or active records can be expired").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
				"status":     ent.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	ent.Status = types.EntitlementStatusExpired
	ent.UpdatedAt = now

	if err := s.EntitlementRepo.Update(ctx, ent); err != nil {
		return err
	}

	s.Logger.Infow("force expired entitlement", "account_id", accountID)
	s.cacheSnapshot(ent)
	return nil
}

// StartGrace moves an expired account into an administrative grace window
func (s *entitlementService) StartGrace(ctx context.Context, accountID string, days int) (*dto.EntitlementResponse, error) {
	ent, err := s.EntitlementRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if ent.Status != types.EntitlementStatusExpired {
		return nil, ierr.NewError("grace period requires an expired entitlement").
			WithHint("Only expired accounts can enter a grace period").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
				"status":     ent.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if days <= 0 {
		days = s.Config.Entitlement.GraceDays
	}

	now := time.Now().UTC()
	end := now.Add(time.Duration(days) * 24 * time.Hour)

	ent.Status = types.EntitlementStatusGrace
	ent.GracePeriodEndDate = &end
	ent.UpdatedAt = now

	if err := s.EntitlementRepo.Update(ctx, ent); err != nil {
		return nil, err
	}

	s.Logger.Infow("started grace period",
		"account_id", accountID,
		"grace_period_end_date", end)

	s.cacheSnapshot(ent)
	return dto.NewEntitlementResponse(ent, now), nil
}

// DowngradeToFree is the administrative exit from an elapsed grace period
func (s *entitlementService) DowngradeToFree(ctx context.Context, accountID string) (*dto.EntitlementResponse, error) {
	ent, err := s.EntitlementRepo.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if ent.Status != types.EntitlementStatusGrace && ent.Status != types.EntitlementStatusExpired {
		return nil, ierr.NewError("downgrade requires a grace or expired entitlement").
			WithHint("Only lapsed accounts can be downgraded").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
				"status":     ent.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	ent.Status = types.EntitlementStatusFree
	ent.Plan = nil
	ent.GracePeriodEndDate = nil
	ent.UpdatedAt = now

	if err := s.EntitlementRepo.Update(ctx, ent); err != nil {
		return nil, err
	}

	s.Logger.Infow("downgraded entitlement to free", "account_id", accountID)
	s.cacheSnapshot(ent)
	return dto.NewEntitlementResponse(ent, now), nil
}

// OverrideTrial is the administrative plan-change override that re-arms
// trial eligibility. Never reachable from user-facing surfaces.
func (s *entitlementService) OverrideTrial(ctx context.Context, accountID string) error {
	ent, err := s.EntitlementRepo.Get(ctx, accountID)
	if err != nil {
		return err
	}

	ent.TrialUsed = false
	ent.TrialStartDate = nil
	ent.TrialEndDate = nil
	ent.UpdatedAt = time.Now().UTC()

	if err := s.EntitlementRepo.Update(ctx, ent); err != nil {
		return err
	}

	s.Logger.Warnw("trial eligibility overridden", "account_id", accountID)
	s.cacheSnapshot(ent)
	return nil
}

func (s *entitlementService) recordPayment(ctx context.Context, accountID string, confirmation *dto.PaymentConfirmation, now time.Time) error {
	record := &payment.Record{
		PaymentID:  confirmation.PaymentID,
		OrderID:    confirmation.OrderID,
		AccountID:  accountID,
		Plan:       confirmation.Plan,
		Amount:     confirmation.Amount,
		CapturedAt: now,
	}
	if err := record.Validate(); err != nil {
		return err
	}
	return s.PaymentRepo.Create(ctx, record)
}

func (s *entitlementService) cacheSnapshot(ent *entitlement.Entitlement) {
	s.snapshots.SetDefault(ent.AccountID, ent)
}
