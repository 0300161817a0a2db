package types

import (
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/samber/lo"
)

// FeatureCode identifies a gated product feature
type FeatureCode string

const (
	FeatureAIQuestion       FeatureCode = "ai_question"
	FeaturePracticeQuestion FeatureCode = "practice_question"
	FeatureSyllabus         FeatureCode = "syllabus"
	FeatureNotes            FeatureCode = "notes"
	FeatureProfile          FeatureCode = "profile"
	FeatureMockTests        FeatureCode = "mock_tests"
	FeatureDoubtSessions    FeatureCode = "doubt_sessions"
)

// UnlimitedUsage is the remaining-quota sentinel returned for accounts
// with an active subscription.
const UnlimitedUsage int64 = -1

func (f FeatureCode) String() string {
	return string(f)
}

func (f FeatureCode) Validate() error {
	allowed := []FeatureCode{
		FeatureAIQuestion,
		FeaturePracticeQuestion,
		FeatureSyllabus,
		FeatureNotes,
		FeatureProfile,
		FeatureMockTests,
		FeatureDoubtSessions,
	}
	if !lo.Contains(allowed, f) {
		return ierr.NewError("invalid feature code").
			WithHint("Unknown feature").
			WithReportableDetails(map[string]any{
				"feature": f,
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsQuotaLimited reports whether the feature is metered by the daily
// usage counter rather than gated outright.
func (f FeatureCode) IsQuotaLimited() bool {
	return f == FeatureAIQuestion || f == FeaturePracticeQuestion
}
