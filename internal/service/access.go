package service

import (
	"context"
	"time"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/domain/usage"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// FeatureAccessService is the gate the UI consults before exposing any
// feature. Gate reads never propagate errors: missing or unreadable state
// resolves to the most restrictive free interpretation.
type FeatureAccessService interface {
	// CanAccessFeature answers whether the feature is visible to the
	// account at all: always for subscribers, allow-list for free tier.
	CanAccessFeature(ctx context.Context, accountID string, feature types.FeatureCode) *dto.FeatureAccessResponse

	// CanUseFeatureNow additionally consults today's quota for metered
	// features. Unknown features are denied.
	CanUseFeatureNow(ctx context.Context, accountID string, feature types.FeatureCode) *dto.FeatureAccessResponse

	// RecordUsage counts one use of a metered feature against today
	RecordUsage(ctx context.Context, accountID string, feature types.FeatureCode) error

	// Remaining reports the reset-aware quota state without persisting
	// the reset
	Remaining(ctx context.Context, accountID string, feature types.FeatureCode) (*dto.UsageResponse, error)
}

type featureAccessService struct {
	ServiceParams
	entitlements EntitlementService
}

// NewFeatureAccessService creates a new feature access gate
func NewFeatureAccessService(params ServiceParams, entitlements EntitlementService) FeatureAccessService {
	return &featureAccessService{
		ServiceParams: params,
		entitlements:  entitlements,
	}
}

func (s *featureAccessService) CanAccessFeature(ctx context.Context, accountID string, feature types.FeatureCode) *dto.FeatureAccessResponse {
	if feature.Validate() != nil {
		// Unknown names are denied outright. The legacy client allowed
		// unrecognised names through this check while denying them in
		// the quota check; deny-by-default is applied to both here.
		return &dto.FeatureAccessResponse{Feature: feature, Allowed: false, Reason: "not_included"}
	}

	snapshot := s.entitlements.GetStatus(ctx, accountID)
	if snapshot.HasActiveSubscription {
		return &dto.FeatureAccessResponse{Feature: feature, Allowed: true, Reason: "subscription"}
	}

	if s.Config.Entitlement.IsFreeFeature(feature) {
		return &dto.FeatureAccessResponse{Feature: feature, Allowed: true, Reason: "free_tier"}
	}

	return &dto.FeatureAccessResponse{Feature: feature, Allowed: false, Reason: "not_included"}
}

func (s *featureAccessService) CanUseFeatureNow(ctx context.Context, accountID string, feature types.FeatureCode) *dto.FeatureAccessResponse {
	snapshot := s.entitlements.GetStatus(ctx, accountID)
	if snapshot.HasActiveSubscription {
		return &dto.FeatureAccessResponse{Feature: feature, Allowed: true, Reason: "subscription"}
	}

	if !feature.IsQuotaLimited() {
		// Non-metered features have no quota to consult; the plain
		// access check decides, which also denies unknown names.
		access := s.CanAccessFeature(ctx, accountID, feature)
		return access
	}

	usageResp, err := s.remainingForFree(ctx, accountID, feature)
	if err != nil {
		s.Logger.Errorw("usage read failed, denying metered feature",
			"account_id", accountID,
			"feature", feature,
			"error", err)
		return &dto.FeatureAccessResponse{Feature: feature, Allowed: false, Reason: "quota_exhausted"}
	}

	if usageResp.Remaining > 0 {
		return &dto.FeatureAccessResponse{Feature: feature, Allowed: true, Reason: "quota_available"}
	}
	return &dto.FeatureAccessResponse{Feature: feature, Allowed: false, Reason: "quota_exhausted"}
}

// RecordUsage resets a stale record, bumps the counter and persists the
// full record. Runs on every metered invocation; there is no scheduled
// reset to rely on.
func (s *featureAccessService) RecordUsage(ctx context.Context, accountID string, feature types.FeatureCode) error {
	if !feature.IsQuotaLimited() {
		return ierr.NewError("feature is not quota limited").
			WithHint("Usage is only tracked for metered features").
			WithReportableDetails(map[string]any{
				"feature": feature,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	now := time.Now().UTC()
	record, err := s.getOrNewRecord(ctx, accountID, now)
	if err != nil {
		return err
	}

	if err := record.Increment(feature, now); err != nil {
		return err
	}

	return s.UsageRepo.Save(ctx, record)
}

// Remaining computes the reset-aware remaining quota. The reset is
// applied in memory only; nothing is persisted on the read path.
func (s *featureAccessService) Remaining(ctx context.Context, accountID string, feature types.FeatureCode) (*dto.UsageResponse, error) {
	if !feature.IsQuotaLimited() {
		return nil, ierr.NewError("feature is not quota limited").
			WithHint("Usage is only tracked for metered features").
			WithReportableDetails(map[string]any{
				"feature": feature,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	snapshot := s.entitlements.GetStatus(ctx, accountID)
	if snapshot.HasActiveSubscription {
		return &dto.UsageResponse{
			Feature:   feature,
			Limit:     s.Config.Entitlement.DailyLimit(feature),
			Remaining: types.UnlimitedUsage,
			Unlimited: true,
		}, nil
	}

	return s.remainingForFree(ctx, accountID, feature)
}

func (s *featureAccessService) remainingForFree(ctx context.Context, accountID string, feature types.FeatureCode) (*dto.UsageResponse, error) {
	now := time.Now().UTC()
	record, err := s.getOrNewRecord(ctx, accountID, now)
	if err != nil {
		return nil, err
	}

	record.ResetIfStale(now)

	limit := s.Config.Entitlement.DailyLimit(feature)
	used := record.Count(feature)
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return &dto.UsageResponse{
		Feature:   feature,
		UsedToday: used,
		Limit:     limit,
		Remaining: remaining,
	}, nil
}

func (s *featureAccessService) getOrNewRecord(ctx context.Context, accountID string, now time.Time) (*usage.Record, error) {
	record, err := s.UsageRepo.Get(ctx, accountID)
	if err != nil {
		if ierr.IsNotFound(err) {
			return usage.New(accountID, now), nil
		}
		return nil, err
	}
	return record, nil
}
