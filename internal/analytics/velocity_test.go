package analytics

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/lumora/api/lead-insights-service/internal/model"
)

func velocityByTransition(stats []VelocityStats) map[Transition]VelocityStats {
	m := make(map[Transition]VelocityStats, len(stats))
	for _, s := range stats {
		m[s.Transition] = s
	}
	return m
}

func TestStageVelocity_BasicTransitions(t *testing.T) {
	leads := []model.Lead{
		{ID: "a", DateAdded: "2025-01-01", FirstCallDate: "2025-01-03"},
		{ID: "b", DateAdded: "2025-01-01", FirstCallDate: "2025-01-05", SecondCallDate: "2025-01-09", FinalCallDate: "2025-01-10"},
	}

	stats := velocityByTransition(StageVelocity(leads))

	addedToFirst := stats[TransitionAddedToFirst]
	assert.Equal(t, 2, addedToFirst.Count)
	require.NotNil(t, addedToFirst.Mean)
	assert.InDelta(t, 3.0, *addedToFirst.Mean, 1e-9) // (2+4)/2

	firstToSecond := stats[TransitionFirstToSecond]
	assert.Equal(t, 1, firstToSecond.Count)
	require.NotNil(t, firstToSecond.P50)
	assert.InDelta(t, 4.0, *firstToSecond.P50, 1e-9)

	addedToFinal := stats[TransitionAddedToFinal]
	assert.Equal(t, 1, addedToFinal.Count)
	require.NotNil(t, addedToFinal.P90)
	assert.InDelta(t, 9.0, *addedToFinal.P90, 1e-9)
}

func TestStageVelocity_NearestRankPercentiles(t *testing.T) {
	// Samples 1..10 via added -> first gaps.
	leads := make([]model.Lead, 0, 10)
	for i := 1; i <= 10; i++ {
		leads = append(leads, model.Lead{
			ID:            fmt.Sprintf("l%d", i),
			DateAdded:     "2025-01-01",
			FirstCallDate: fmt.Sprintf("2025-01-%02d", 1+i),
		})
	}

	stats := velocityByTransition(StageVelocity(leads))
	addedToFirst := stats[TransitionAddedToFirst]

	require.Equal(t, 10, addedToFirst.Count)
	require.NotNil(t, addedToFirst.P50)
	assert.InDelta(t, 5.0, *addedToFirst.P50, 1e-9) // index floor(0.5*9)=4
	require.NotNil(t, addedToFirst.P75)
	assert.InDelta(t, 7.0, *addedToFirst.P75, 1e-9) // index floor(0.75*9)=6
	require.NotNil(t, addedToFirst.P90)
	assert.InDelta(t, 9.0, *addedToFirst.P90, 1e-9) // index floor(0.9*9)=8
}

func TestStageVelocity_OutlierExclusion(t *testing.T) {
	leads := []model.Lead{
		// Negative gap: first call recorded before the lead was added.
		{ID: "neg", DateAdded: "2025-03-01", FirstCallDate: "2025-02-01"},
		// Multi-year gap.
		{ID: "huge", DateAdded: "2020-01-01", FirstCallDate: "2025-01-01"},
		// Exactly 365 days is excluded; 364 is the last admissible gap.
		{ID: "excluded-edge", DateAdded: "2024-01-01", FirstCallDate: "2024-12-31"}, // 365 days (leap year)
		{ID: "included-edge", DateAdded: "2024-01-02", FirstCallDate: "2024-12-31"}, // 364 days
	}

	stats := velocityByTransition(StageVelocity(leads))
	addedToFirst := stats[TransitionAddedToFirst]

	require.Equal(t, 1, addedToFirst.Count)
	require.NotNil(t, addedToFirst.Mean)
	assert.InDelta(t, 364.0, *addedToFirst.Mean, 1e-9)
}

func TestStageVelocity_AllExcludedReportsNilStats(t *testing.T) {
	leads := []model.Lead{
		{ID: "neg", DateAdded: "2025-03-01", FirstCallDate: "2025-02-01"},
		{ID: "huge", DateAdded: "2020-01-01", FirstCallDate: "2025-01-01"},
	}

	stats := velocityByTransition(StageVelocity(leads))
	addedToFirst := stats[TransitionAddedToFirst]

	assert.Equal(t, 0, addedToFirst.Count)
	assert.Nil(t, addedToFirst.P50)
	assert.Nil(t, addedToFirst.P75)
	assert.Nil(t, addedToFirst.P90)
	assert.Nil(t, addedToFirst.Mean)
}

func TestStageVelocity_UnparseableDatesSkipped(t *testing.T) {
	leads := []model.Lead{
		{ID: "bad-from", DateAdded: "soon", FirstCallDate: "2025-01-05"},
		{ID: "bad-to", DateAdded: "2025-01-01", FirstCallDate: "next week"},
		{ID: "ok", DateAdded: "2025-01-01", FirstCallDate: "2025-01-04"},
	}

	stats := velocityByTransition(StageVelocity(leads))
	assert.Equal(t, 1, stats[TransitionAddedToFirst].Count)
}

func TestStageVelocity_AlwaysReportsFourTransitions(t *testing.T) {
	stats := StageVelocity(nil)
	require.Len(t, stats, 4)
	assert.Equal(t, TransitionAddedToFirst, stats[0].Transition)
	assert.Equal(t, TransitionFirstToSecond, stats[1].Transition)
	assert.Equal(t, TransitionSecondToFinal, stats[2].Transition)
	assert.Equal(t, TransitionAddedToFinal, stats[3].Transition)
}
