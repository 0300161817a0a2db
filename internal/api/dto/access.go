package dto

import (
	"github.com/edumitra/entitlements/internal/types"
)

// FeatureAccessResponse answers "can this account use feature X right now"
type FeatureAccessResponse struct {
	Feature types.FeatureCode `json:"feature"`
	Allowed bool              `json:"allowed"`
	// Reason is a short machine-readable explanation: "subscription",
	// "free_tier", "quota_available", "quota_exhausted", "not_included"
	Reason string `json:"reason,omitempty"`
}

// UsageResponse reports the reset-aware quota state for one metered feature
type UsageResponse struct {
	Feature   types.FeatureCode `json:"feature"`
	UsedToday int64             `json:"used_today"`
	Limit     int64             `json:"limit"`
	// Remaining is types.UnlimitedUsage (-1) for subscribed accounts
	Remaining int64 `json:"remaining"`
	Unlimited bool  `json:"unlimited"`
}
