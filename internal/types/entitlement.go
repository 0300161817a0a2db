package types

import (
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/samber/lo"
)

// EntitlementStatus is the tier an account is currently entitled to.
// Exactly one value holds at any time; transitions are owned by the
// entitlement service and the expiry sweeper.
type EntitlementStatus string

const (
	// EntitlementStatusFree is the initial status for every new account
	EntitlementStatusFree EntitlementStatus = "free"
	// EntitlementStatusTrial is the canonical trial status. The legacy
	// client used both "trial" and "free_trial" for the same concept;
	// "trial" is the single value accepted here.
	EntitlementStatusTrial   EntitlementStatus = "trial"
	EntitlementStatusActive  EntitlementStatus = "active"
	EntitlementStatusGrace   EntitlementStatus = "grace"
	EntitlementStatusExpired EntitlementStatus = "expired"
)

func (s EntitlementStatus) String() string {
	return string(s)
}

func (s EntitlementStatus) Validate() error {
	allowed := []EntitlementStatus{
		EntitlementStatusFree,
		EntitlementStatusTrial,
		EntitlementStatusActive,
		EntitlementStatusGrace,
		EntitlementStatusExpired,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid entitlement status").
			WithHint("Invalid entitlement status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsExpirable reports whether the sweeper may force this status to expired
func (s EntitlementStatus) IsExpirable() bool {
	return s == EntitlementStatusTrial || s == EntitlementStatusActive
}
