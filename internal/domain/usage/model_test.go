package usage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/edumitra/entitlements/internal/types"
)

func TestResetIfStale(t *testing.T) {
	yesterday := time.Date(2025, time.March, 9, 23, 59, 0, 0, time.UTC)
	today := time.Date(2025, time.March, 10, 0, 1, 0, 0, time.UTC)

	r := New("acc_1", yesterday)
	r.AIQuestionsToday = 5
	r.PracticeQuestionsToday = 10

	assert.False(t, r.ResetIfStale(yesterday), "same day is not stale")
	assert.Equal(t, int64(5), r.AIQuestionsToday)

	assert.True(t, r.ResetIfStale(today))
	assert.Equal(t, int64(0), r.AIQuestionsToday)
	assert.Equal(t, int64(0), r.PracticeQuestionsToday)
	assert.Equal(t, types.CalendarDate(today), r.LastResetDate)
}

func TestIncrementResetsStaleRecordFirst(t *testing.T) {
	yesterday := time.Date(2025, time.March, 9, 12, 0, 0, 0, time.UTC)
	today := yesterday.Add(24 * time.Hour)

	r := New("acc_1", yesterday)
	r.AIQuestionsToday = 5

	assert.NoError(t, r.Increment(types.FeatureAIQuestion, today))
	assert.Equal(t, int64(1), r.AIQuestionsToday)
}

func TestIncrementRejectsNonMeteredFeatures(t *testing.T) {
	r := New("acc_1", time.Now().UTC())
	assert.Error(t, r.Increment(types.FeatureSyllabus, time.Now().UTC()))
}

func TestCountPerFeature(t *testing.T) {
	now := time.Now().UTC()
	r := New("acc_1", now)

	assert.NoError(t, r.Increment(types.FeatureAIQuestion, now))
	assert.NoError(t, r.Increment(types.FeaturePracticeQuestion, now))
	assert.NoError(t, r.Increment(types.FeaturePracticeQuestion, now))

	assert.Equal(t, int64(1), r.Count(types.FeatureAIQuestion))
	assert.Equal(t, int64(2), r.Count(types.FeaturePracticeQuestion))
	assert.Equal(t, int64(0), r.Count(types.FeatureMockTests))
}
