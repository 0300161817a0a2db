package usage

import (
	"time"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// Record is the daily quota tracker for one account's free-tier usage.
// Counters are only meaningful while LastResetDate equals the current
// calendar day; every read and increment must reset a stale record first.
type Record struct {
	AccountID              string    `json:"account_id"`
	AIQuestionsToday       int64     `json:"ai_questions_today"`
	PracticeQuestionsToday int64     `json:"practice_questions_today"`
	LastResetDate          string    `json:"last_reset_date"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// New returns a zeroed usage record for the given day
func New(accountID string, now time.Time) *Record {
	return &Record{
		AccountID:     accountID,
		LastResetDate: types.CalendarDate(now),
		UpdatedAt:     now.UTC(),
	}
}

// ResetIfStale zeroes both counters when the record belongs to an
// earlier calendar day. Returns true when a reset happened.
func (r *Record) ResetIfStale(now time.Time) bool {
	today := types.CalendarDate(now)
	if r.LastResetDate == today {
		return false
	}
	r.AIQuestionsToday = 0
	r.PracticeQuestionsToday = 0
	r.LastResetDate = today
	r.UpdatedAt = now.UTC()
	return true
}

// Count returns today's counter for a metered feature, assuming the
// record has already been reset for the current day
func (r *Record) Count(feature types.FeatureCode) int64 {
	switch feature {
	case types.FeatureAIQuestion:
		return r.AIQuestionsToday
	case types.FeaturePracticeQuestion:
		return r.PracticeQuestionsToday
	default:
		return 0
	}
}

// Increment bumps today's counter for a metered feature
func (r *Record) Increment(feature types.FeatureCode, now time.Time) error {
	if !feature.IsQuotaLimited() {
		return ierr.NewError("feature is not quota limited").
			WithHint("Usage is only tracked for metered features").
			WithReportableDetails(map[string]any{
				"feature": feature,
			}).
			Mark(ierr.ErrInvalidOperation)
	}
	r.ResetIfStale(now)
	switch feature {
	case types.FeatureAIQuestion:
		r.AIQuestionsToday++
	case types.FeaturePracticeQuestion:
		r.PracticeQuestionsToday++
	}
	r.UpdatedAt = now.UTC()
	return nil
}
