package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edumitra/entitlements/internal/types"
)

func trialEntitlement(end time.Time) *Entitlement {
	e := New("acc_1")
	e.Status = types.EntitlementStatusTrial
	e.TrialUsed = true
	start := end.Add(-7 * 24 * time.Hour)
	e.TrialStartDate = &start
	e.TrialEndDate = &end
	return e
}

func TestNewEntitlementIsFree(t *testing.T) {
	e := New("acc_1")
	assert.Equal(t, types.EntitlementStatusFree, e.Status)
	assert.True(t, e.CanStartTrial())
	assert.False(t, e.HasActiveSubscription(time.Now().UTC()))
}

func TestTrialDeadlineIsExclusive(t *testing.T) {
	end := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	e := trialEntitlement(end)

	assert.True(t, e.HasActiveSubscription(end.Add(-time.Nanosecond)))
	assert.False(t, e.HasActiveSubscription(end))
	assert.False(t, e.HasActiveSubscription(end.Add(time.Nanosecond)))
}

func TestExpiryDue(t *testing.T) {
	end := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

	e := trialEntitlement(end)
	assert.False(t, e.ExpiryDue(end.Add(-time.Second)))
	assert.True(t, e.ExpiryDue(end))

	e.Status = types.EntitlementStatusActive
	e.SubscriptionEndDate = &end
	assert.True(t, e.ExpiryDue(end.Add(time.Hour)))

	// Free, expired and grace records are never due
	for _, status := range []types.EntitlementStatus{
		types.EntitlementStatusFree,
		types.EntitlementStatusExpired,
		types.EntitlementStatusGrace,
	} {
		e.Status = status
		assert.False(t, e.ExpiryDue(end.Add(time.Hour)), "status %s", status)
	}
}

func TestActiveStatusIgnoresTrialWindow(t *testing.T) {
	e := New("acc_1")
	e.Status = types.EntitlementStatusActive
	assert.True(t, e.HasActiveSubscription(time.Now().UTC()))
	assert.False(t, e.IsOnTrial(time.Now().UTC()))
}

func TestGracePeriodWindow(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)
	end := now.Add(3 * 24 * time.Hour)

	e := New("acc_1")
	e.Status = types.EntitlementStatusGrace
	e.GracePeriodEndDate = &end

	assert.True(t, e.IsInGracePeriod(now))
	assert.Equal(t, 3, e.DaysUntilDowngrade(now))
	assert.False(t, e.IsInGracePeriod(end))
	assert.Equal(t, 0, e.DaysUntilDowngrade(end))

	// An active account is never in grace, whatever the date says
	e.Status = types.EntitlementStatusActive
	assert.False(t, e.IsInGracePeriod(now))
}

func TestValidateRejectsInvertedWindows(t *testing.T) {
	now := time.Now().UTC()
	earlier := now.Add(-time.Hour)

	e := New("acc_1")
	e.TrialStartDate = &now
	e.TrialEndDate = &earlier
	assert.Error(t, e.Validate())

	e = New("acc_1")
	e.SubscriptionStartDate = &now
	e.SubscriptionEndDate = &earlier
	assert.Error(t, e.Validate())

	e = New("")
	assert.Error(t, e.Validate())
}
