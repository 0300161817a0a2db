package service

import (
	"context"
	"time"

	"github.com/edumitra/entitlements/internal/api/dto"
)

// SweeperService is the scheduled batch job that forces overdue trial and
// active records into expired. It runs outside any user request path.
type SweeperService interface {
	SweepExpired(ctx context.Context) (*dto.SweepResult, error)
}

type sweeperService struct {
	ServiceParams
	entitlements EntitlementService
}

// NewSweeperService creates a new expiry sweeper
func NewSweeperService(params ServiceParams, entitlements EntitlementService) SweeperService {
	return &sweeperService{
		ServiceParams: params,
		entitlements:  entitlements,
	}
}

// SweepExpired transitions every overdue record it can reach. Records are
// processed one by one: a failing write is logged and counted, never
// allowed to block the rest of the batch.
func (s *sweeperService) SweepExpired(ctx context.Context) (*dto.SweepResult, error) {
	now := time.Now().UTC()

	due, err := s.EntitlementRepo.ListExpiring(ctx, now)
	if err != nil {
		return nil, err
	}

	result := &dto.SweepResult{
		Scanned: len(due),
		SweptAt: now,
	}

	for _, ent := range due {
		if !ent.Status.IsExpirable() {
			continue
		}
		if err := s.entitlements.ForceExpire(ctx, ent.AccountID); err != nil {
			result.Failed++
			s.Logger.Errorw("failed to expire entitlement",
				"account_id", ent.AccountID,
				"status", ent.Status,
				"error", err)
			continue
		}
		result.Expired++
	}

	s.Logger.Infow("expiry sweep completed",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"failed", result.Failed)

	return result, nil
}
